package bus

import (
	"sync"

	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// Participant 总线参与者
// 所有跨参与者的影响只能通过消息投递产生，参与者之间不直接读写对方状态
type Participant interface {
	ID() string
	Name() string
	OnMessage(env models.Envelope)
}

// Bus 进程内消息总线
// 持有显式的邻接结构（按注册顺序），不使用全局注册表
// 投递是同步的：Send/Broadcast 返回前，接收方的处理器已经执行完毕
type Bus struct {
	mu           sync.RWMutex
	participants map[string]Participant
	adjacency    map[string][]string // 按 Connect 顺序保存，保证广播顺序确定
	logger       *zap.Logger
}

// New 创建消息总线
func New(logger *zap.Logger) *Bus {
	return &Bus{
		participants: make(map[string]Participant),
		adjacency:    make(map[string][]string),
		logger:       logger,
	}
}

// Register 注册参与者（幂等）
func (b *Bus) Register(p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.participants[p.ID()]; !ok {
		b.participants[p.ID()] = p
		b.adjacency[p.ID()] = nil
	}
}

// Connect 建立双向邻接关系（幂等），双方都未注册时自动注册
func (b *Bus) Connect(a, p Participant) {
	b.Register(a)
	b.Register(p)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.addEdge(a.ID(), p.ID())
	b.addEdge(p.ID(), a.ID())
}

func (b *Bus) addEdge(from, to string) {
	for _, id := range b.adjacency[from] {
		if id == to {
			return
		}
	}
	b.adjacency[from] = append(b.adjacency[from], to)
}

// Send 向指定参与者同步投递消息
// 接收方不存在或不相邻时返回 false（不抛错、不崩溃），消息直接丢弃
func (b *Bus) Send(fromID, toID string, msg models.Message) bool {
	b.mu.RLock()
	target, ok := b.participants[toID]
	if ok {
		ok = b.hasEdge(fromID, toID)
	}
	sender := b.participants[fromID]
	b.mu.RUnlock()

	if !ok || target == nil {
		b.logger.Debug("Message dropped: unknown or unconnected recipient",
			zap.String("from", fromID),
			zap.String("to", toID),
		)
		return false
	}

	target.OnMessage(b.stamp(sender, fromID, msg))
	return true
}

// Broadcast 向所有相邻参与者依次投递（按 Connect 顺序）
func (b *Bus) Broadcast(fromID string, msg models.Message) {
	b.mu.RLock()
	neighbors := make([]Participant, 0, len(b.adjacency[fromID]))
	for _, id := range b.adjacency[fromID] {
		if p, ok := b.participants[id]; ok {
			neighbors = append(neighbors, p)
		}
	}
	sender := b.participants[fromID]
	b.mu.RUnlock()

	env := b.stamp(sender, fromID, msg)
	for _, p := range neighbors {
		p.OnMessage(env)
	}
}

// Participants 返回已注册参与者 ID 列表（无序，排序交由调用方）
func (b *Bus) Participants() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.participants))
	for id := range b.participants {
		ids = append(ids, id)
	}
	return ids
}

func (b *Bus) hasEdge(from, to string) bool {
	for _, id := range b.adjacency[from] {
		if id == to {
			return true
		}
	}
	return false
}

// stamp 投递前补齐发送方身份
func (b *Bus) stamp(sender Participant, fromID string, msg models.Message) models.Envelope {
	env := models.Envelope{SenderID: fromID, Message: msg}
	if sender != nil {
		env.SenderName = sender.Name()
	}
	return env
}
