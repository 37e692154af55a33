package agent

import (
	"go.uber.org/zap"

	"guardiancare/internal/bus"
	"guardiancare/internal/evaluator"
	"guardiancare/internal/models"
)

// 参与者 ID（总线寻址用）
const (
	HealthAgentID      = "health"
	SafetyAgentID      = "safety"
	ReminderAgentID    = "reminder"
	CoordinatorAgentID = "coordinator"
)

// HealthAgent 健康监测参与者
// 持有健康评估器的私有状态，读数经总线路由进来，报警经总线广播出去
type HealthAgent struct {
	b      *bus.Bus
	eval   *evaluator.HealthEvaluator
	logger *zap.Logger
}

// NewHealthAgent 创建健康监测参与者
func NewHealthAgent(b *bus.Bus, eval *evaluator.HealthEvaluator, logger *zap.Logger) *HealthAgent {
	return &HealthAgent{b: b, eval: eval, logger: logger}
}

func (a *HealthAgent) ID() string   { return HealthAgentID }
func (a *HealthAgent) Name() string { return "Health Monitoring Agent" }

// OnMessage 处理总线投递（只认生命体征读数，其余变体忽略）
func (a *HealthAgent) OnMessage(env models.Envelope) {
	switch msg := env.Message.(type) {
	case models.VitalReading:
		a.Process(msg.Vital)
	}
}

// Process 评估一条读数，产生的每个报警单独广播
// 报警只向下游流动一级，接收方不会再广播（防环由构造保证）
func (a *HealthAgent) Process(v models.Vital) []models.Alert {
	alerts := a.eval.Evaluate(v)
	for _, alert := range alerts {
		a.logger.Info("Health alert raised",
			zap.String("alert_id", alert.AlertID),
			zap.String("metric", alert.Metric),
			zap.String("severity", alert.Severity),
		)
		a.b.Broadcast(a.ID(), models.AlertMessage{Alert: alert})
	}
	return alerts
}

// UpdateThreshold 更新评估阈值（指标未知时返回 evaluator.ErrUnknownMetric）
func (a *HealthAgent) UpdateThreshold(metric string, value float64) error {
	return a.eval.UpdateThreshold(metric, value)
}

// Thresholds 当前阈值快照
func (a *HealthAgent) Thresholds() map[string]float64 {
	return a.eval.Thresholds()
}
