package service

import (
	"sync"

	"guardiancare/internal/models"
)

// 入口参与者 ID（总线寻址用）
const GatewayID = "ingest"

// gateway 传感器入口参与者
// 外部读数统一由它经总线投递给监测 Agent，评估产生的报警
// 会在同一次投递内广播回来，由它收集后返回给调用方
type gateway struct {
	mu     sync.Mutex // 串行化 submit，保证收集到的报警只属于本次投递
	bufMu  sync.Mutex
	buffer []models.Alert
}

func newGateway() *gateway {
	return &gateway{}
}

func (g *gateway) ID() string   { return GatewayID }
func (g *gateway) Name() string { return "Sensor Gateway" }

// OnMessage 收集紧邻 Agent 广播回来的报警，其余变体忽略
func (g *gateway) OnMessage(env models.Envelope) {
	switch msg := env.Message.(type) {
	case models.AlertMessage:
		g.bufMu.Lock()
		g.buffer = append(g.buffer, msg.Alert)
		g.bufMu.Unlock()
	}
}

// submit 执行一次总线投递并返回期间广播回来的报警
// 总线投递是同步的，send 返回时报警已全部进入 buffer
func (g *gateway) submit(send func() bool) []models.Alert {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.bufMu.Lock()
	g.buffer = nil
	g.bufMu.Unlock()

	if !send() {
		return nil
	}

	g.bufMu.Lock()
	alerts := g.buffer
	g.buffer = nil
	g.bufMu.Unlock()
	return alerts
}
