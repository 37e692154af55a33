package models

import (
	"time"
)

// 提醒类型
const (
	ReminderMedication  = "medication"
	ReminderAppointment = "appointment"
	ReminderExercise    = "exercise"
	ReminderHydration   = "hydration"
	ReminderGeneral     = "general"
)

// ReminderState 提醒状态机：Pending → Triggered → Acknowledged（终态，不可回退）
type ReminderState string

const (
	ReminderPending      ReminderState = "pending"
	ReminderTriggered    ReminderState = "triggered"
	ReminderAcknowledged ReminderState = "acknowledged"
)

// Reminder 定时提醒
// 生命周期由 Scheduler 独占管理，外部只能读快照或按 ID 提交确认
type Reminder struct {
	ID             string        `json:"id"`
	DeviceID       string        `json:"device_id,omitempty"`
	Kind           string        `json:"kind"`           // medication / appointment / exercise / hydration / general
	ScheduledTime  string        `json:"scheduled_time"` // 原始时间串（可能只有时刻，也可能是完整日期时间）
	DueAt          time.Time     `json:"due_at"`         // Schedule 时解析出的实际触发时间
	Message        string        `json:"message"`
	Priority       string        `json:"priority"` // low / medium / high
	State          ReminderState `json:"state"`
	Sent           bool          `json:"sent"`
	Acknowledged   bool          `json:"acknowledged"`
	CreatedAt      time.Time     `json:"created_at"`
	SentAt         *time.Time    `json:"sent_at,omitempty"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
}

// DefaultReminderMessage 按提醒类型生成默认提醒文案
func DefaultReminderMessage(kind string) string {
	switch kind {
	case ReminderMedication:
		return "Time to take your medication. Please don't forget!"
	case ReminderAppointment:
		return "You have an appointment scheduled. Please prepare for it."
	case ReminderExercise:
		return "It's time for your daily exercise routine. Stay active!"
	case ReminderHydration:
		return "Remember to drink water and stay hydrated throughout the day."
	default:
		return "Reminder: " + kind
	}
}
