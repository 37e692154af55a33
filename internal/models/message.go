package models

// Message 总线消息（封闭的变体集合，不使用自由 key-value 字典）
// busMessage() 为密封方法，变体只能在本包内定义，保证处理分支可穷举
type Message interface {
	busMessage()
}

// VitalReading 路由给健康评估器的生命体征读数
type VitalReading struct {
	Vital Vital
}

// MotionReading 路由给安全评估器的运动/跌倒事件
type MotionReading struct {
	Motion MotionEvent
}

// AlertMessage 评估器产生的报警（只向下游单向流动，接收方不得再广播）
type AlertMessage struct {
	Alert Alert
}

// ReminderMessage 触发的提醒
type ReminderMessage struct {
	Reminder Reminder
}

// AckMessage 对某条提醒的确认
type AckMessage struct {
	ReminderID string
}

// StatusRequest 状态查询请求
type StatusRequest struct{}

func (VitalReading) busMessage()    {}
func (MotionReading) busMessage()   {}
func (AlertMessage) busMessage()    {}
func (ReminderMessage) busMessage() {}
func (AckMessage) busMessage()      {}
func (StatusRequest) busMessage()   {}

// Envelope 投递信封：由总线在投递前补齐发送方身份
type Envelope struct {
	SenderID   string
	SenderName string
	Message    Message
}
