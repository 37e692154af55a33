package agent

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// 事件日志与报警列表上限
const (
	eventLogCap = 1000
	alertLogCap = 1000
)

// recentAlertCount 状态快照携带的最近报警条数
const recentAlertCount = 5

// 紧急关键字按报警来源区分（健康类与安全类的词表不同，
// 否则 "High heart rate detected" 会被 "high" 误判为紧急）
var (
	healthEmergencyKeywords = []string{"critical", "severe", "emergency"}
	safetyEmergencyKeywords = []string{"critical", "high", "fall detected"}
)

// Notifier 下游通知协作方（短信/MQTT/Webhook 等），由外部注册
// 通知失败只记日志，绝不影响评估链路
type Notifier interface {
	NotifyAlert(ctx context.Context, alert models.Alert) error
}

// AlertHook 报警钩子（持久化、缓存、指标等旁路动作）
type AlertHook func(alert models.Alert)

// ReminderHook 提醒钩子
type ReminderHook func(reminder models.Reminder)

// Coordinator 中枢聚合参与者
// 接收全部报警与提醒，维护有界事件日志和粘性紧急状态
// 叶子接收方：不持有总线引用，收到的任何消息都不会再广播（防环由构造保证）
type Coordinator struct {
	mu           sync.Mutex
	eventLog     []models.Envelope
	alerts       []models.Alert
	emergency    bool
	participants func() []string

	notifiers     []Notifier
	alertHooks    []AlertHook
	reminderHooks []ReminderHook
	logger        *zap.Logger
}

// NewCoordinator 创建中枢参与者
// participants 提供当前已注册参与者列表（通常是总线的 Participants）
func NewCoordinator(participants func() []string, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		participants: participants,
		logger:       logger,
	}
}

func (c *Coordinator) ID() string   { return CoordinatorAgentID }
func (c *Coordinator) Name() string { return "Coordinator Agent" }

// RegisterNotifier 注册下游通知协作方
func (c *Coordinator) RegisterNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifiers = append(c.notifiers, n)
}

// OnAlertHook 注册报警旁路钩子
func (c *Coordinator) OnAlertHook(h AlertHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alertHooks = append(c.alertHooks, h)
}

// OnReminderHook 注册提醒旁路钩子
func (c *Coordinator) OnReminderHook(h ReminderHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminderHooks = append(c.reminderHooks, h)
}

// OnMessage 处理总线投递：所有消息进事件日志，报警与提醒分别处理
func (c *Coordinator) OnMessage(env models.Envelope) {
	c.appendEvent(env)

	switch msg := env.Message.(type) {
	case models.AlertMessage:
		c.handleAlert(msg.Alert)
	case models.ReminderMessage:
		c.handleReminder(msg.Reminder)
	}
}

// handleAlert 记录报警并更新紧急状态，然后触发旁路钩子与通知
func (c *Coordinator) handleAlert(alert models.Alert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	if len(c.alerts) > alertLogCap {
		c.alerts = c.alerts[len(c.alerts)-alertLogCap:]
	}

	if !c.emergency && containsEmergencyKeyword(alert) {
		// 紧急状态是粘性的：一旦置位，后续非紧急报警不会清除
		c.emergency = true
		c.logger.Warn("Emergency mode activated",
			zap.String("alert_id", alert.AlertID),
			zap.String("source", alert.Source),
			zap.String("message", alert.Message),
		)
	}

	hooks := make([]AlertHook, len(c.alertHooks))
	copy(hooks, c.alertHooks)
	notifiers := make([]Notifier, len(c.notifiers))
	copy(notifiers, c.notifiers)
	c.mu.Unlock()

	// 钩子与通知在锁外执行，失败不影响评估链路
	for _, h := range hooks {
		h(alert)
	}
	for _, n := range notifiers {
		if err := n.NotifyAlert(context.Background(), alert); err != nil {
			c.logger.Error("Failed to notify downstream",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
		}
	}
}

func (c *Coordinator) handleReminder(r models.Reminder) {
	c.logger.Info("Reminder received",
		zap.String("reminder_id", r.ID),
		zap.String("kind", r.Kind),
	)

	c.mu.Lock()
	hooks := make([]ReminderHook, len(c.reminderHooks))
	copy(hooks, c.reminderHooks)
	c.mu.Unlock()

	for _, h := range hooks {
		h(r)
	}
}

func (c *Coordinator) appendEvent(env models.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventLog = append(c.eventLog, env)
	if len(c.eventLog) > eventLogCap {
		c.eventLog = c.eventLog[len(c.eventLog)-eventLogCap:]
	}
}

// containsEmergencyKeyword 按来源选词表做字面匹配（大小写不敏感）
// 文本匹配是各 agent 的接口约定：改写报警文案会改变紧急判定
func containsEmergencyKeyword(alert models.Alert) bool {
	keywords := healthEmergencyKeywords
	if alert.Source == models.SourceSafety {
		keywords = safetyEmergencyKeywords
	}

	msg := strings.ToLower(alert.Message)
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

// StatusSnapshot 系统状态快照（纯读取）
func (c *Coordinator) StatusSnapshot() models.StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	participants := c.participants()
	sort.Strings(participants)

	return models.StatusSnapshot{
		EmergencyMode: c.emergency,
		RecentAlerts:  c.lastAlertsLocked(recentAlertCount),
		Participants:  participants,
		Timestamp:     time.Now(),
	}
}

// RecentAlerts 最近 n 条报警（新→旧不保证，按接收顺序返回尾部 n 条）
func (c *Coordinator) RecentAlerts(n int) []models.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAlertsLocked(n)
}

func (c *Coordinator) lastAlertsLocked(n int) []models.Alert {
	if n <= 0 || n > len(c.alerts) {
		n = len(c.alerts)
	}
	out := make([]models.Alert, n)
	copy(out, c.alerts[len(c.alerts)-n:])
	return out
}

// EmergencyMode 当前紧急状态
func (c *Coordinator) EmergencyMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emergency
}

// ResetEmergency 显式解除紧急状态（唯一的清除途径）
func (c *Coordinator) ResetEmergency() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emergency {
		c.emergency = false
		c.logger.Info("Emergency mode reset")
	}
}

// EventCount 事件日志长度（测试与诊断用）
func (c *Coordinator) EventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.eventLog)
}
