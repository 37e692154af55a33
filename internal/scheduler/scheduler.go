package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// ErrNotFound 确认的提醒不存在，或不处于 Triggered 状态
// （确认 Pending 或已确认的提醒是契约违反，不是静默成功）
var ErrNotFound = errors.New("reminder not found")

// Scheduler 提醒调度器
// 独占管理提醒生命周期：Pending → Triggered → Acknowledged（不可回退）
// Tick 由外部定时器驱动，与 Schedule/Acknowledge 可能并发，由一把锁串行化
type Scheduler struct {
	mu        sync.Mutex
	reminders map[string]*models.Reminder
	order     []string // 按 Schedule 顺序，保证 Tick 遍历顺序确定
	escalated map[string]bool
	logger    *zap.Logger
}

// New 创建调度器
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminders: make(map[string]*models.Reminder),
		escalated: make(map[string]bool),
		logger:    logger,
	}
}

// Schedule 登记一条提醒（初始 Pending）
// ID 为空时自动生成；DueAt 未给定时由 ScheduledTime 解析，
// 解析失败回退为一小时后触发，不让整次加载失败
func (s *Scheduler) Schedule(r models.Reminder) models.Reminder {
	now := time.Now()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Kind == "" {
		r.Kind = models.ReminderGeneral
	}
	if r.Message == "" {
		r.Message = models.DefaultReminderMessage(r.Kind)
	}
	if r.Priority == "" {
		r.Priority = "medium"
	}
	if r.DueAt.IsZero() {
		r.DueAt = resolveDueTime(r.ScheduledTime, now)
	}
	r.State = models.ReminderPending
	r.Sent = false
	r.Acknowledged = false
	r.CreatedAt = now
	r.SentAt = nil
	r.AcknowledgedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[r.ID] = &r
	s.order = append(s.order, r.ID)

	s.logger.Info("Reminder scheduled",
		zap.String("reminder_id", r.ID),
		zap.String("kind", r.Kind),
		zap.Time("due_at", r.DueAt),
	)
	return r
}

// Tick 触发所有到期的 Pending 提醒（due ≤ now）
// 每条提醒只会从 Pending 转入 Triggered 一次：连续两次 Tick 不会重复触发
func (s *Scheduler) Tick(now time.Time) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var triggered []models.Reminder
	for _, id := range s.order {
		r := s.reminders[id]
		if r.State != models.ReminderPending || r.DueAt.After(now) {
			continue
		}

		r.State = models.ReminderTriggered
		r.Sent = true
		sentAt := now
		r.SentAt = &sentAt
		triggered = append(triggered, *r)

		s.logger.Info("Reminder triggered",
			zap.String("reminder_id", r.ID),
			zap.String("kind", r.Kind),
			zap.String("message", r.Message),
		)
	}
	return triggered
}

// Upcoming 返回 [now, now+window] 内到期的 Pending 提醒，按到期时间升序
// 纯读取，不改变任何状态
func (s *Scheduler) Upcoming(now time.Time, window time.Duration) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := now.Add(window)
	var out []models.Reminder
	for _, id := range s.order {
		r := s.reminders[id]
		if r.State != models.ReminderPending {
			continue
		}
		if r.DueAt.Before(now) || r.DueAt.After(end) {
			continue
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out
}

// Acknowledge 确认一条 Triggered 提醒
// 提醒不存在或不处于 Triggered 状态时返回 ErrNotFound，状态不变
func (s *Scheduler) Acknowledge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok || r.State != models.ReminderTriggered {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.State = models.ReminderAcknowledged
	r.Acknowledged = true
	ackedAt := time.Now()
	r.AcknowledgedAt = &ackedAt

	s.logger.Info("Reminder acknowledged",
		zap.String("reminder_id", id),
	)
	return nil
}

// OverdueMedications 返回触发后超过 overdue 时长仍未确认的用药提醒
// 每条提醒只会被返回一次（用于漏服药升级报警）
func (s *Scheduler) OverdueMedications(now time.Time, overdue time.Duration) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Reminder
	for _, id := range s.order {
		r := s.reminders[id]
		if r.Kind != models.ReminderMedication || r.State != models.ReminderTriggered {
			continue
		}
		if s.escalated[id] || r.SentAt == nil {
			continue
		}
		if now.Sub(*r.SentAt) < overdue {
			continue
		}
		s.escalated[id] = true
		out = append(out, *r)
	}
	return out
}

// Get 按 ID 读取提醒快照
func (s *Scheduler) Get(id string) (models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return models.Reminder{}, false
	}
	return *r, true
}

// Reminders 全部提醒快照（按登记顺序）
func (s *Scheduler) Reminders() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.reminders[id])
	}
	return out
}
