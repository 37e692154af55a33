package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardiancare/internal/bus"
	"guardiancare/internal/models"
	"guardiancare/internal/scheduler"
)

// ReminderAgent 提醒参与者
// 包装调度器：到期提醒经总线广播；用药提醒逾期未确认时升级为 medication 报警
type ReminderAgent struct {
	b             *bus.Bus
	sched         *scheduler.Scheduler
	overdueWindow time.Duration
	logger        *zap.Logger
}

// NewReminderAgent 创建提醒参与者
func NewReminderAgent(b *bus.Bus, sched *scheduler.Scheduler, overdueWindow time.Duration, logger *zap.Logger) *ReminderAgent {
	return &ReminderAgent{
		b:             b,
		sched:         sched,
		overdueWindow: overdueWindow,
		logger:        logger,
	}
}

func (a *ReminderAgent) ID() string   { return ReminderAgentID }
func (a *ReminderAgent) Name() string { return "Reminder Agent" }

// OnMessage 处理总线投递（只认确认消息）
func (a *ReminderAgent) OnMessage(env models.Envelope) {
	switch msg := env.Message.(type) {
	case models.AckMessage:
		if err := a.sched.Acknowledge(msg.ReminderID); err != nil {
			a.logger.Warn("Acknowledge via bus failed",
				zap.String("reminder_id", msg.ReminderID),
				zap.Error(err),
			)
		}
	}
}

// Tick 由外部定时器驱动：触发到期提醒并检查漏服药升级
func (a *ReminderAgent) Tick(now time.Time) []models.Reminder {
	triggered := a.sched.Tick(now)
	for _, r := range triggered {
		a.b.Broadcast(a.ID(), models.ReminderMessage{Reminder: r})
	}

	for _, r := range a.sched.OverdueMedications(now, a.overdueWindow) {
		alert := models.Alert{
			AlertID:   uuid.New().String(),
			Source:    models.SourceMedication,
			Metric:    "medication_adherence",
			Message:   fmt.Sprintf("Missed medication: reminder not acknowledged after %s (%s)", a.overdueWindow, r.Message),
			Severity:  models.SeverityMedium,
			Timestamp: now,
		}
		a.logger.Warn("Medication reminder overdue, escalating",
			zap.String("reminder_id", r.ID),
		)
		a.b.Broadcast(a.ID(), models.AlertMessage{Alert: alert})
	}

	return triggered
}

// Schedule 透传给调度器
func (a *ReminderAgent) Schedule(r models.Reminder) models.Reminder {
	return a.sched.Schedule(r)
}

// Acknowledge 透传给调度器
func (a *ReminderAgent) Acknowledge(id string) error {
	return a.sched.Acknowledge(id)
}

// Upcoming 透传给调度器（纯读取）
func (a *ReminderAgent) Upcoming(now time.Time, window time.Duration) []models.Reminder {
	return a.sched.Upcoming(now, window)
}
