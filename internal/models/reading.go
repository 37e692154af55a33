package models

import (
	"time"
)

// 生命体征指标名称（与 CSV 数据列对应）
const (
	MetricHeartRate   = "heartrate"
	MetricSystolicBP  = "systolic_bp"
	MetricDiastolicBP = "diastolic_bp"
	MetricTemperature = "temperature"
	MetricGlucose     = "blood_glucose"
	MetricOxygenLevel = "oxygen_level"
)

// Vital 单项生命体征读数
// 每条读数只携带一个指标；血压拆分为 systolic_bp / diastolic_bp 两条
type Vital struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`

	// ThresholdExceeded 上游预判结果（如 CSV 自带的 Below/Above Threshold 列）
	// 非 nil 时跳过本地阈值/趋势检查，直接采用上游判断
	ThresholdExceeded *bool `json:"threshold_exceeded,omitempty"`
}

// 撞击力度等级
const (
	ImpactLow    = "Low"
	ImpactMedium = "Medium"
	ImpactHigh   = "High"
)

// ActivityNoMovement 无活动标签（安全评估规则4使用）
const ActivityNoMovement = "No Movement"

// MotionEvent 运动/跌倒事件读数
type MotionEvent struct {
	DeviceID           string    `json:"device_id,omitempty"`
	Activity           string    `json:"activity"`                 // 活动标签，如 "Walking"、"No Movement"
	FallDetected       bool      `json:"fall_detected"`
	ImpactForce        string    `json:"impact_force"`             // Low / Medium / High
	InactivityDuration int       `json:"inactivity_duration_sec"`  // 跌倒后无活动持续时间（秒）
	Location           string    `json:"location"`
	Timestamp          time.Time `json:"timestamp"`
}
