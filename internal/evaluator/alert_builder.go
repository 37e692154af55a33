package evaluator

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"guardiancare/internal/models"
)

// ErrUnknownMetric 更新阈值时指标名不存在
var ErrUnknownMetric = errors.New("unknown metric")

// newAlert 构建报警事件（ID 唯一，创建后不可变）
func newAlert(source, metric string, value, threshold float64, message, severity string, ts time.Time) models.Alert {
	if ts.IsZero() {
		ts = time.Now()
	}
	return models.Alert{
		AlertID:   uuid.New().String(),
		Source:    source,
		Metric:    metric,
		Value:     value,
		Threshold: threshold,
		Message:   message,
		Severity:  severity,
		Timestamp: ts,
	}
}
