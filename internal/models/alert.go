package models

import (
	"time"
)

// 报警来源
const (
	SourceHealth     = "health"
	SourceSafety     = "safety"
	SourceMedication = "medication"
)

// 报警级别
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert 报警事件（创建后不可变，只有在日志中的存在与否会变化）
type Alert struct {
	AlertID   string    `json:"alert_id" db:"alert_id"`
	Source    string    `json:"source" db:"source"`       // health / safety / medication
	Metric    string    `json:"metric" db:"metric"`
	Value     float64   `json:"value" db:"value"`
	Threshold float64   `json:"threshold" db:"threshold"`
	Message   string    `json:"message" db:"message"`
	Severity  string    `json:"severity" db:"severity"`   // low / medium / high
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// FallIncident 跌倒事件记录（安全评估器单独保存，与报警分支无关）
type FallIncident struct {
	Timestamp          time.Time `json:"timestamp" db:"timestamp"`
	ImpactForce        string    `json:"impact_force" db:"impact_force"`
	InactivityDuration int       `json:"inactivity_duration_sec" db:"inactivity_duration_sec"`
	Location           string    `json:"location" db:"location"`
}

// StatusSnapshot 系统状态快照（纯读取，不产生任何状态变化）
type StatusSnapshot struct {
	EmergencyMode bool      `json:"emergency_mode"`
	RecentAlerts  []Alert   `json:"recent_alerts"`
	Participants  []string  `json:"participants"`
	Timestamp     time.Time `json:"timestamp"`
}
