package agent

import (
	"go.uber.org/zap"

	"guardiancare/internal/bus"
	"guardiancare/internal/evaluator"
	"guardiancare/internal/models"
)

// SafetyAgent 安全监测参与者（跌倒/无活动）
type SafetyAgent struct {
	b      *bus.Bus
	eval   *evaluator.SafetyEvaluator
	logger *zap.Logger
}

// NewSafetyAgent 创建安全监测参与者
func NewSafetyAgent(b *bus.Bus, eval *evaluator.SafetyEvaluator, logger *zap.Logger) *SafetyAgent {
	return &SafetyAgent{b: b, eval: eval, logger: logger}
}

func (a *SafetyAgent) ID() string   { return SafetyAgentID }
func (a *SafetyAgent) Name() string { return "Safety Monitoring Agent" }

// OnMessage 处理总线投递（只认运动/跌倒事件）
func (a *SafetyAgent) OnMessage(env models.Envelope) {
	switch msg := env.Message.(type) {
	case models.MotionReading:
		a.Process(msg.Motion)
	}
}

// Process 评估一条运动事件，至多产生一个报警并广播
func (a *SafetyAgent) Process(m models.MotionEvent) []models.Alert {
	alerts := a.eval.Evaluate(m)
	for _, alert := range alerts {
		a.logger.Info("Safety alert raised",
			zap.String("alert_id", alert.AlertID),
			zap.String("severity", alert.Severity),
			zap.String("location", m.Location),
		)
		a.b.Broadcast(a.ID(), models.AlertMessage{Alert: alert})
	}
	return alerts
}

// FallIncidents 跌倒事件记录快照
func (a *SafetyAgent) FallIncidents() []models.FallIncident {
	return a.eval.FallIncidents()
}
