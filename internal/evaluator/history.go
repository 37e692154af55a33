package evaluator

// historyCap 每个指标保留的历史读数上限
const historyCap = 100

// rollingHistory 单个指标的有界滚动历史
// 只允许追加，超出上限时静默丢弃最旧的读数
// 历史是评估器的私有状态，其他组件不得直接读取
type rollingHistory struct {
	values []float64
}

// Append 追加一个读数
func (h *rollingHistory) Append(v float64) {
	h.values = append(h.values, v)
	if len(h.values) > historyCap {
		h.values = h.values[len(h.values)-historyCap:]
	}
}

// Len 当前历史长度
func (h *rollingHistory) Len() int {
	return len(h.values)
}

// Last 最近 n 个读数（不足 n 时返回全部），返回的是内部切片的视图
func (h *rollingHistory) Last(n int) []float64 {
	if n >= len(h.values) {
		return h.values
	}
	return h.values[len(h.values)-n:]
}
