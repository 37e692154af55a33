package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"guardiancare/internal/agent"
	"guardiancare/internal/bus"
	"guardiancare/internal/cache"
	"guardiancare/internal/config"
	"guardiancare/internal/evaluator"
	"guardiancare/internal/metrics"
	"guardiancare/internal/models"
	"guardiancare/internal/repository"
	"guardiancare/internal/scheduler"
)

// 缓存状态快照使用的设备标识（当前为单住户部署）
const systemDeviceID = "system"

// CareService 监护服务：组装消息总线、监测 Agent 和协调器，
// 并对外提供读写操作
type CareService struct {
	config *config.Config
	logger *zap.Logger

	bus         *bus.Bus
	gateway     *gateway
	health      *agent.HealthAgent
	safety      *agent.SafetyAgent
	reminder    *agent.ReminderAgent
	coordinator *agent.Coordinator

	repo     *repository.AlertsRepository
	cacheMgr *cache.Manager

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCareService 创建监护服务并完成总线接线
func NewCareService(cfg *config.Config, logger *zap.Logger) *CareService {
	b := bus.New(logger)

	healthEval := evaluator.NewHealthEvaluator(logger)
	safetyEval := evaluator.NewSafetyEvaluator(logger)
	sched := scheduler.New(logger)

	s := &CareService{
		config:   cfg,
		logger:   logger,
		bus:      b,
		gateway:  newGateway(),
		health:   agent.NewHealthAgent(b, healthEval, logger),
		safety:   agent.NewSafetyAgent(b, safetyEval, logger),
		reminder: agent.NewReminderAgent(b, sched, cfg.MedicationOverdueWindow(), logger),
	}
	s.coordinator = agent.NewCoordinator(b.Participants, logger)

	// 三个监测 Agent 都只与协调器相连，协调器是叶子节点
	b.Connect(s.health, s.coordinator)
	b.Connect(s.safety, s.coordinator)
	b.Connect(s.reminder, s.coordinator)

	// 入口参与者只与两个传感器 Agent 相连，读数经总线投递进来，
	// 报警经同一条边广播回去
	b.Connect(s.gateway, s.health)
	b.Connect(s.gateway, s.safety)

	s.coordinator.OnAlertHook(s.onAlert)
	s.coordinator.OnReminderHook(s.onReminder)

	return s
}

// SetRepository 启用报警持久化（需在 Start 前调用）
func (s *CareService) SetRepository(repo *repository.AlertsRepository) {
	s.repo = repo
}

// SetCache 启用状态与报警缓存（需在 Start 前调用）
func (s *CareService) SetCache(mgr *cache.Manager) {
	s.cacheMgr = mgr
}

// RegisterNotifier 注册报警外发通道，channel 用于失败计数的标签
func (s *CareService) RegisterNotifier(channel string, n agent.Notifier) {
	s.coordinator.RegisterNotifier(notifierWithMetrics{channel: channel, next: n})
}

// notifierWithMetrics 外发失败计数包装
type notifierWithMetrics struct {
	channel string
	next    agent.Notifier
}

func (n notifierWithMetrics) NotifyAlert(ctx context.Context, alert models.Alert) error {
	if err := n.next.NotifyAlert(ctx, alert); err != nil {
		metrics.NotifyFailures.WithLabelValues(n.channel).Inc()
		return err
	}
	return nil
}

// ============================================
// 读写操作
// ============================================

// SubmitVital 提交一条生命体征读数，返回本次产生的报警
func (s *CareService) SubmitVital(ctx context.Context, v models.Vital) []models.Alert {
	metrics.VitalsProcessed.WithLabelValues(v.Metric).Inc()
	return s.gateway.submit(func() bool {
		return s.bus.Send(GatewayID, agent.HealthAgentID, models.VitalReading{Vital: v})
	})
}

// SubmitMotionEvent 提交一条运动传感器事件，返回本次产生的报警
func (s *CareService) SubmitMotionEvent(ctx context.Context, m models.MotionEvent) []models.Alert {
	metrics.MotionEventsProcessed.Inc()
	alerts := s.gateway.submit(func() bool {
		return s.bus.Send(GatewayID, agent.SafetyAgentID, models.MotionReading{Motion: m})
	})

	if m.FallDetected && s.repo != nil {
		incident := models.FallIncident{
			Timestamp:          m.Timestamp,
			ImpactForce:        m.ImpactForce,
			InactivityDuration: m.InactivityDuration,
			Location:           m.Location,
		}
		if incident.Timestamp.IsZero() {
			incident.Timestamp = time.Now()
		}
		if err := s.repo.SaveFallIncident(ctx, incident); err != nil {
			s.logger.Error("Failed to persist fall incident", zap.Error(err))
		}
	}

	return alerts
}

// ScheduleReminder 登记一条提醒，返回补全默认值后的提醒
func (s *CareService) ScheduleReminder(r models.Reminder) models.Reminder {
	return s.reminder.Schedule(r)
}

// GetStatus 获取系统状态快照
func (s *CareService) GetStatus() models.StatusSnapshot {
	return s.coordinator.StatusSnapshot()
}

// GetRecentAlerts 获取最近 n 条报警，n<=0 返回全部
func (s *CareService) GetRecentAlerts(n int) []models.Alert {
	return s.coordinator.RecentAlerts(n)
}

// GetUpcomingReminders 获取窗口内未触发的提醒，按到期时间升序
func (s *CareService) GetUpcomingReminders(window time.Duration) []models.Reminder {
	return s.reminder.Upcoming(time.Now(), window)
}

// Acknowledge 确认一条已触发的提醒
func (s *CareService) Acknowledge(id string) error {
	if err := s.reminder.Acknowledge(id); err != nil {
		return err
	}
	metrics.RemindersAcknowledged.Inc()
	return nil
}

// UpdateThreshold 更新健康评估阈值
func (s *CareService) UpdateThreshold(metric string, value float64) error {
	return s.health.UpdateThreshold(metric, value)
}

// Thresholds 当前健康评估阈值
func (s *CareService) Thresholds() map[string]float64 {
	return s.health.Thresholds()
}

// ApplyThresholdOverrides 批量应用阈值覆盖（启动时从配置文件加载）
func (s *CareService) ApplyThresholdOverrides(overrides map[string]float64) error {
	for metric, value := range overrides {
		if err := s.health.UpdateThreshold(metric, value); err != nil {
			return fmt.Errorf("apply threshold override %s: %w", metric, err)
		}
	}
	return nil
}

// ResetEmergency 显式清除紧急状态
func (s *CareService) ResetEmergency() {
	s.coordinator.ResetEmergency()
	metrics.EmergencyMode.Set(0)
}

// EmergencyMode 当前是否处于紧急状态
func (s *CareService) EmergencyMode() bool {
	return s.coordinator.EmergencyMode()
}

// GetFallIncidents 获取跌倒事件记录
func (s *CareService) GetFallIncidents() []models.FallIncident {
	return s.safety.FallIncidents()
}

// ============================================
// 调度循环
// ============================================

// Start 启动提醒调度循环
func (s *CareService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

// Stop 停止调度循环并等待退出
func (s *CareService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *CareService) run(ctx context.Context) {
	defer close(s.done)

	interval := time.Duration(s.config.Care.TickInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	s.logger.Info("Care service scheduler started",
		zap.Duration("tick_interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Care service scheduler stopped")
			return
		case now := <-ticker.C:
			s.reminder.Tick(now)
			s.refreshStatusCache(ctx)
		}
	}
}

func (s *CareService) refreshStatusCache(ctx context.Context) {
	if s.cacheMgr == nil {
		return
	}
	if err := s.cacheMgr.UpdateStatus(ctx, systemDeviceID, s.coordinator.StatusSnapshot()); err != nil {
		s.logger.Error("Failed to update status cache", zap.Error(err))
	}
}

// ============================================
// 协调器回调
// ============================================

func (s *CareService) onAlert(alert models.Alert) {
	metrics.AlertsRaised.WithLabelValues(alert.Source, alert.Severity).Inc()
	if s.coordinator.EmergencyMode() {
		metrics.EmergencyMode.Set(1)
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	if s.repo != nil {
		if err := s.repo.SaveAlert(ctx, alert); err != nil {
			s.logger.Error("Failed to persist alert",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err))
		}
	}
	if s.cacheMgr != nil {
		if err := s.cacheMgr.UpdateAlerts(ctx, systemDeviceID, s.coordinator.RecentAlerts(0)); err != nil {
			s.logger.Error("Failed to update alert cache", zap.Error(err))
		}
	}
}

func (s *CareService) onReminder(r models.Reminder) {
	metrics.RemindersTriggered.WithLabelValues(r.Kind).Inc()
}
