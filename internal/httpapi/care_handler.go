package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"guardiancare/internal/models"
	"guardiancare/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

// CareHandler 监护服务 Handler
type CareHandler struct {
	care   *service.CareService
	logger *zap.Logger
}

// NewCareHandler 创建监护服务 Handler
func NewCareHandler(care *service.CareService, logger *zap.Logger) *CareHandler {
	return &CareHandler{
		care:   care,
		logger: logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *CareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := r.URL.Path
	switch {
	case path == "/api/v1/status" && r.Method == http.MethodGet:
		h.GetStatus(w, r)
	case path == "/api/v1/alerts" && r.Method == http.MethodGet:
		h.GetAlerts(w, r)
	case path == "/api/v1/falls" && r.Method == http.MethodGet:
		h.GetFallIncidents(w, r)
	case path == "/api/v1/reminders/upcoming" && r.Method == http.MethodGet:
		h.GetUpcomingReminders(w, r)
	case path == "/api/v1/reminders" && r.Method == http.MethodPost:
		h.CreateReminder(w, r)
	case strings.HasSuffix(path, "/ack") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(path, "/ack")
		id = strings.TrimPrefix(id, "/api/v1/reminders/")
		if id != "" && !strings.Contains(id, "/") {
			h.AcknowledgeReminder(w, r, id)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case path == "/api/v1/thresholds" && r.Method == http.MethodGet:
		h.GetThresholds(w, r)
	case path == "/api/v1/thresholds" && r.Method == http.MethodPut:
		h.UpdateThresholds(w, r)
	case path == "/api/v1/readings/vitals" && r.Method == http.MethodPost:
		h.SubmitVital(w, r)
	case path == "/api/v1/readings/motion" && r.Method == http.MethodPost:
		h.SubmitMotion(w, r)
	case path == "/api/v1/emergency/reset" && r.Method == http.MethodPost:
		h.ResetEmergency(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetStatus 查询系统状态快照
func (h *CareHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.care.GetStatus()))
}

// GetAlerts 查询最近报警
func (h *CareHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	alerts := h.care.GetRecentAlerts(limit)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// GetFallIncidents 查询跌倒事件记录
func (h *CareHandler) GetFallIncidents(w http.ResponseWriter, r *http.Request) {
	incidents := h.care.GetFallIncidents()
	if incidents == nil {
		incidents = []models.FallIncident{}
	}
	writeJSON(w, http.StatusOK, Ok(incidents))
}

// GetUpcomingReminders 查询窗口内即将到期的提醒
func (h *CareHandler) GetUpcomingReminders(w http.ResponseWriter, r *http.Request) {
	windowMinutes := parseInt(r.URL.Query().Get("window_minutes"), 60)
	reminders := h.care.GetUpcomingReminders(time.Duration(windowMinutes) * time.Minute)
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	writeJSON(w, http.StatusOK, Ok(reminders))
}

// CreateReminder 登记提醒
func (h *CareHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID      string `json:"device_id"`
		Kind          string `json:"kind"`
		ScheduledTime string `json:"scheduled_time"`
		Message       string `json:"message"`
		Priority      string `json:"priority"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	reminder := h.care.ScheduleReminder(models.Reminder{
		DeviceID:      req.DeviceID,
		Kind:          req.Kind,
		ScheduledTime: req.ScheduledTime,
		Message:       req.Message,
		Priority:      req.Priority,
	})

	h.logger.Info("Reminder scheduled via API",
		zap.String("reminder_id", reminder.ID),
		zap.String("kind", reminder.Kind))

	writeJSON(w, http.StatusOK, Ok(reminder))
}

// AcknowledgeReminder 确认已触发的提醒
func (h *CareHandler) AcknowledgeReminder(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.care.Acknowledge(id); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"reminder_id": id}))
}

// GetThresholds 查询当前健康阈值
func (h *CareHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.care.Thresholds()))
}

// UpdateThresholds 更新健康阈值（支持批量）
func (h *CareHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var req map[string]float64
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	for metric, value := range req {
		if err := h.care.UpdateThreshold(metric, value); err != nil {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
	}

	writeJSON(w, http.StatusOK, Ok(h.care.Thresholds()))
}

// SubmitVital 提交生命体征读数
func (h *CareHandler) SubmitVital(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID          string  `json:"device_id"`
		Metric            string  `json:"metric"`
		Value             float64 `json:"value"`
		Timestamp         string  `json:"timestamp"`
		ThresholdExceeded *bool   `json:"threshold_exceeded"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if req.Metric == "" {
		writeJSON(w, http.StatusOK, Fail("metric is required"))
		return
	}

	v := models.Vital{
		DeviceID:          req.DeviceID,
		Metric:            req.Metric,
		Value:             req.Value,
		ThresholdExceeded: req.ThresholdExceeded,
	}
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			v.Timestamp = ts
		}
	}

	alerts := h.care.SubmitVital(r.Context(), v)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// SubmitMotion 提交运动传感器事件
func (h *CareHandler) SubmitMotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID           string `json:"device_id"`
		Activity           string `json:"activity"`
		FallDetected       bool   `json:"fall_detected"`
		ImpactForce        string `json:"impact_force"`
		InactivityDuration int    `json:"inactivity_duration_sec"`
		Location           string `json:"location"`
		Timestamp          string `json:"timestamp"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	m := models.MotionEvent{
		DeviceID:           req.DeviceID,
		Activity:           req.Activity,
		FallDetected:       req.FallDetected,
		ImpactForce:        req.ImpactForce,
		InactivityDuration: req.InactivityDuration,
		Location:           req.Location,
	}
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			m.Timestamp = ts
		}
	}

	alerts := h.care.SubmitMotionEvent(r.Context(), m)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// ResetEmergency 显式清除紧急状态
func (h *CareHandler) ResetEmergency(w http.ResponseWriter, r *http.Request) {
	h.care.ResetEmergency()
	h.logger.Info("Emergency mode reset via API")
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"emergency_mode": h.care.EmergencyMode()}))
}
