package evaluator

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// 跌倒后无活动时长阈值（秒）
const (
	criticalInactivitySec = 300 // 5 分钟
	fallInactivitySec     = 120 // 2 分钟
)

// incidentCap 跌倒事件记录上限
const incidentCap = 100

// SafetyEvaluator 安全/跌倒评估器
// 规则按优先级互斥，首条命中即停：每条读数至多产生一个报警
// （与健康评估器的多报警行为相反，这个不对称是有意保留的）
type SafetyEvaluator struct {
	mu        sync.Mutex
	incidents []models.FallIncident
	logger    *zap.Logger
}

// NewSafetyEvaluator 创建安全评估器
func NewSafetyEvaluator(logger *zap.Logger) *SafetyEvaluator {
	return &SafetyEvaluator{logger: logger}
}

// Evaluate 评估一条运动/跌倒事件，返回零个或一个报警
// 优先级：
//  1. 跌倒且（高撞击 或 无活动 > 300s）→ 危急跌倒
//  2. 跌倒且（中撞击 或 无活动 > 120s）→ 跌倒
//  3. 跌倒（其余情况）→ 轻微跌倒
//  4. 未跌倒但活动为 "No Movement" → 长时间无活动
// 跌倒事件无论命中哪个分支，都会记入独立的跌倒事件日志
func (e *SafetyEvaluator) Evaluate(m models.MotionEvent) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m.FallDetected {
		e.recordIncident(m)
	}

	switch {
	case m.FallDetected && (m.ImpactForce == models.ImpactHigh || m.InactivityDuration > criticalInactivitySec):
		return []models.Alert{newAlert(models.SourceSafety, "fall", float64(m.InactivityDuration), criticalInactivitySec,
			fmt.Sprintf("CRITICAL FALL DETECTED: High impact force or prolonged inactivity (%d seconds)!", m.InactivityDuration),
			models.SeverityHigh, m.Timestamp)}

	case m.FallDetected && (m.ImpactForce == models.ImpactMedium || m.InactivityDuration > fallInactivitySec):
		return []models.Alert{newAlert(models.SourceSafety, "fall", float64(m.InactivityDuration), fallInactivitySec,
			fmt.Sprintf("FALL DETECTED: Medium impact force with %d seconds of inactivity!", m.InactivityDuration),
			models.SeverityMedium, m.Timestamp)}

	case m.FallDetected:
		return []models.Alert{newAlert(models.SourceSafety, "fall", float64(m.InactivityDuration), 0,
			fmt.Sprintf("Minor fall detected: Low impact with %d seconds of inactivity.", m.InactivityDuration),
			models.SeverityLow, m.Timestamp)}

	case m.Activity == models.ActivityNoMovement:
		location := m.Location
		if location == "" {
			location = "Unknown"
		}
		return []models.Alert{newAlert(models.SourceSafety, "movement", 0, 0,
			fmt.Sprintf("Extended period of no movement detected in the %s.", location),
			models.SeverityLow, m.Timestamp)}
	}

	return nil
}

// FallIncidents 跌倒事件记录快照（纯读取）
func (e *SafetyEvaluator) FallIncidents() []models.FallIncident {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.FallIncident, len(e.incidents))
	copy(out, e.incidents)
	return out
}

func (e *SafetyEvaluator) recordIncident(m models.MotionEvent) {
	impact := m.ImpactForce
	if impact == "" {
		impact = "Unknown"
	}
	location := m.Location
	if location == "" {
		location = "Unknown"
	}

	e.incidents = append(e.incidents, models.FallIncident{
		Timestamp:          m.Timestamp,
		ImpactForce:        impact,
		InactivityDuration: m.InactivityDuration,
		Location:           location,
	})
	if len(e.incidents) > incidentCap {
		e.incidents = e.incidents[len(e.incidents)-incidentCap:]
	}

	e.logger.Info("Fall incident recorded",
		zap.String("impact_force", impact),
		zap.Int("inactivity_sec", m.InactivityDuration),
		zap.String("location", location),
	)
}
