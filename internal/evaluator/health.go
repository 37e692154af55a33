package evaluator

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"guardiancare/internal/models"
)

// 健康阈值键
const (
	ThresholdHeartRate          = "heartrate"            // 心率上限，默认 100
	ThresholdBloodPressure      = "blood_pressure"       // 收缩压上限，默认 140
	ThresholdBloodPressureLower = "blood_pressure_lower" // 收缩压下限，默认 90
	ThresholdTemperature        = "temperature"          // 体温上限，默认 37.5
	ThresholdGlucose            = "blood_glucose"        // 血糖上限，默认 180
	ThresholdGlucoseLower       = "blood_glucose_lower"  // 血糖下限，默认 70
	ThresholdOxygenLevel        = "oxygen_level"         // 血氧下限，默认 92
)

// 固定下限/上限（不走 UpdateThreshold，不可配置）
const (
	heartRateLowLimit   = 50.0
	temperatureLowLimit = 36.0
	diastolicHighLimit  = 90.0
)

// 趋势规则参数：最近 5 个历史样本中最旧的一个作为基线，
// 当前值超过基线 1.3 倍即报警（刻意不用均值，为了抓突发尖峰）
const (
	trendWindow = 5
	trendFactor = 1.3
)

// HealthEvaluator 健康阈值评估器
// 每条读数可能产生多个报警（与安全评估器的单报警行为相反）
type HealthEvaluator struct {
	mu         sync.Mutex
	thresholds map[string]float64
	history    map[string]*rollingHistory
	logger     *zap.Logger
}

// NewHealthEvaluator 创建健康评估器（使用默认阈值）
func NewHealthEvaluator(logger *zap.Logger) *HealthEvaluator {
	return &HealthEvaluator{
		thresholds: map[string]float64{
			ThresholdHeartRate:          100,
			ThresholdBloodPressure:      140,
			ThresholdBloodPressureLower: 90,
			ThresholdTemperature:        37.5,
			ThresholdGlucose:            180,
			ThresholdGlucoseLower:       70,
			ThresholdOxygenLevel:        92,
		},
		history: make(map[string]*rollingHistory),
		logger:  logger,
	}
}

// UpdateThreshold 更新某个阈值
// 指标名没有对应阈值键时返回 ErrUnknownMetric
func (e *HealthEvaluator) UpdateThreshold(metric string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.thresholds[metric]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	e.thresholds[metric] = value

	e.logger.Info("Threshold updated",
		zap.String("metric", metric),
		zap.Float64("value", value),
	)
	return nil
}

// Thresholds 当前阈值快照
func (e *HealthEvaluator) Thresholds() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.thresholds))
	for k, v := range e.thresholds {
		out[k] = v
	}
	return out
}

// Evaluate 评估一条生命体征读数，返回零个或多个报警
// 读数自带上游预判（ThresholdExceeded 非 nil）时直接采用预判结果，
// 跳过本地阈值和趋势检查（两条路径对单条读数互斥）
func (e *HealthEvaluator) Evaluate(v models.Vital) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var alerts []models.Alert
	if v.ThresholdExceeded != nil {
		if *v.ThresholdExceeded {
			if a, ok := e.precomputedAlert(v); ok {
				alerts = append(alerts, a)
			}
		}
	} else {
		alerts = e.checkThresholds(v)
	}

	// 历史只追加，最旧的静默丢弃
	// 指标名来自外部输入，未知指标不建历史，否则 map 会被任意字符串撑大
	if knownVitalMetric(v.Metric) {
		h := e.history[v.Metric]
		if h == nil {
			h = &rollingHistory{}
			e.history[v.Metric] = h
		}
		h.Append(v.Value)
	}

	return alerts
}

func knownVitalMetric(metric string) bool {
	switch metric {
	case models.MetricHeartRate, models.MetricSystolicBP, models.MetricDiastolicBP,
		models.MetricTemperature, models.MetricGlucose, models.MetricOxygenLevel:
		return true
	}
	return false
}

// checkThresholds 本地阈值检查，规则彼此独立，一条读数可同时命中多条
func (e *HealthEvaluator) checkThresholds(v models.Vital) []models.Alert {
	var alerts []models.Alert

	switch v.Metric {
	case models.MetricHeartRate:
		if hi := e.thresholds[ThresholdHeartRate]; v.Value > hi {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, hi,
				fmt.Sprintf("High heart rate detected: %g BPM", v.Value),
				models.SeverityMedium, v.Timestamp))
		}
		if v.Value < heartRateLowLimit {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, heartRateLowLimit,
				fmt.Sprintf("Low heart rate detected: %g BPM", v.Value),
				models.SeverityMedium, v.Timestamp))
		}
		if a, ok := e.checkHeartRateTrend(v); ok {
			alerts = append(alerts, a)
		}

	case models.MetricSystolicBP:
		if hi := e.thresholds[ThresholdBloodPressure]; v.Value > hi {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, hi,
				fmt.Sprintf("High blood pressure detected: %g mmHg", v.Value),
				models.SeverityHigh, v.Timestamp))
		}
		if lo := e.thresholds[ThresholdBloodPressureLower]; v.Value < lo {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, lo,
				fmt.Sprintf("Low blood pressure detected: %g mmHg", v.Value),
				models.SeverityMedium, v.Timestamp))
		}

	case models.MetricDiastolicBP:
		if v.Value > diastolicHighLimit {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, diastolicHighLimit,
				fmt.Sprintf("High diastolic blood pressure: %g mmHg", v.Value),
				models.SeverityMedium, v.Timestamp))
		}

	case models.MetricTemperature:
		if hi := e.thresholds[ThresholdTemperature]; v.Value > hi {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, hi,
				fmt.Sprintf("Elevated temperature detected: %g°C", v.Value),
				models.SeverityMedium, v.Timestamp))
		}
		if v.Value < temperatureLowLimit {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, temperatureLowLimit,
				fmt.Sprintf("Low body temperature detected: %g°C", v.Value),
				models.SeverityMedium, v.Timestamp))
		}

	case models.MetricGlucose:
		if hi := e.thresholds[ThresholdGlucose]; v.Value > hi {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, hi,
				fmt.Sprintf("High blood glucose detected: %g mg/dL", v.Value),
				models.SeverityMedium, v.Timestamp))
		}
		// 低血糖比高血糖更紧急
		if lo := e.thresholds[ThresholdGlucoseLower]; v.Value < lo {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, lo,
				fmt.Sprintf("Low blood glucose detected: %g mg/dL", v.Value),
				models.SeverityHigh, v.Timestamp))
		}

	case models.MetricOxygenLevel:
		if lo := e.thresholds[ThresholdOxygenLevel]; v.Value < lo {
			alerts = append(alerts, newAlert(models.SourceHealth, v.Metric, v.Value, lo,
				fmt.Sprintf("Low oxygen level detected: %g%%", v.Value),
				models.SeverityHigh, v.Timestamp))
		}

	default:
		// 未知指标不是错误，跳过即可
		e.logger.Debug("Unknown vital metric skipped",
			zap.String("metric", v.Metric),
		)
	}

	return alerts
}

// checkHeartRateTrend 心率趋势检查
// 至少 5 个历史样本，且当前值 > 最近 5 个中最旧样本 × 1.3
func (e *HealthEvaluator) checkHeartRateTrend(v models.Vital) (models.Alert, bool) {
	h := e.history[models.MetricHeartRate]
	if h == nil || h.Len() < trendWindow {
		return models.Alert{}, false
	}

	baseline := h.Last(trendWindow)[0]
	if v.Value <= baseline*trendFactor {
		return models.Alert{}, false
	}

	return newAlert(models.SourceHealth, "heartrate_change", v.Value, baseline,
		fmt.Sprintf("Rapid increase in heart rate: from %g to %g BPM", baseline, v.Value),
		models.SeverityMedium, v.Timestamp), true
}

// precomputedAlert 上游已断言越限时，按指标给出规范化报警（不重新做阈值推导）
func (e *HealthEvaluator) precomputedAlert(v models.Vital) (models.Alert, bool) {
	switch v.Metric {
	case models.MetricHeartRate:
		return newAlert(models.SourceHealth, v.Metric, v.Value, e.thresholds[ThresholdHeartRate],
			fmt.Sprintf("Heart rate threshold exceeded: %g BPM", v.Value),
			models.SeverityMedium, v.Timestamp), true
	case models.MetricSystolicBP:
		return newAlert(models.SourceHealth, v.Metric, v.Value, e.thresholds[ThresholdBloodPressure],
			fmt.Sprintf("Blood pressure threshold exceeded: %g mmHg", v.Value),
			models.SeverityHigh, v.Timestamp), true
	case models.MetricDiastolicBP:
		return newAlert(models.SourceHealth, v.Metric, v.Value, diastolicHighLimit,
			fmt.Sprintf("Blood pressure threshold exceeded: %g mmHg", v.Value),
			models.SeverityMedium, v.Timestamp), true
	case models.MetricTemperature:
		return newAlert(models.SourceHealth, v.Metric, v.Value, e.thresholds[ThresholdTemperature],
			fmt.Sprintf("Temperature threshold exceeded: %g°C", v.Value),
			models.SeverityMedium, v.Timestamp), true
	case models.MetricGlucose:
		return newAlert(models.SourceHealth, v.Metric, v.Value, e.thresholds[ThresholdGlucose],
			fmt.Sprintf("Blood glucose threshold exceeded: %g mg/dL", v.Value),
			models.SeverityMedium, v.Timestamp), true
	case models.MetricOxygenLevel:
		return newAlert(models.SourceHealth, v.Metric, v.Value, e.thresholds[ThresholdOxygenLevel],
			fmt.Sprintf("Oxygen level below threshold: %g%%", v.Value),
			models.SeverityHigh, v.Timestamp), true
	}

	e.logger.Debug("Precomputed flag on unknown metric ignored",
		zap.String("metric", v.Metric),
	)
	return models.Alert{}, false
}
