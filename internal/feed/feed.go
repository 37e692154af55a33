package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"guardiancare/internal/models"
)

// 数据集时间戳格式
const timestampLayout = "2006-01-02 15:04:05"

// 数据集列名
const (
	colDeviceID  = "Device-ID/User-ID"
	colTimestamp = "Timestamp"

	colHeartRate          = "Heart Rate"
	colHeartRateThreshold = "Heart Rate Below/Above Threshold (Yes/No)"
	colBloodPressure      = "Blood Pressure"
	colBPThreshold        = "Blood Pressure Below/Above Threshold (Yes/No)"
	colTemperature        = "Temperature (°C)"
	colGlucose            = "Glucose Levels"
	colGlucoseThreshold   = "Glucose Levels Below/Above Threshold (Yes/No)"
	colOxygen             = "Oxygen Saturation (SpO₂%)"
	colOxygenThreshold    = "SpO₂ Below Threshold (Yes/No)"

	colActivity    = "Movement Activity"
	colFall        = "Fall Detected (Yes/No)"
	colImpactForce = "Impact Force Level"
	colInactivity  = "Post-Fall Inactivity Duration (Seconds)"
	colLocation    = "Location"

	colReminderType  = "Reminder Type"
	colScheduledTime = "Scheduled Time"
	colReminderSent  = "Reminder Sent (Yes/No)"
	colAcknowledged  = "Acknowledged (Yes/No)"
)

// row 按列名取值的一行记录
type row struct {
	index  map[string]int
	fields []string
}

func (r row) get(col string) (string, bool) {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	return strings.TrimSpace(r.fields[i]), true
}

func (r row) yes(col string) bool {
	v, _ := r.get(col)
	return v == "Yes"
}

func (r row) yesPtr(col string) *bool {
	v, ok := r.get(col)
	if !ok || v == "" {
		return nil
	}
	b := v == "Yes"
	return &b
}

func (r row) float(col string) (float64, bool) {
	v, ok := r.get(col)
	if !ok || v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (r row) timestamp() time.Time {
	v, ok := r.get(colTimestamp)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(timestampLayout, v)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func readRows(reader io.Reader) ([]row, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1 // 数据集尾列可能缺失

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var rows []row
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		rows = append(rows, row{index: index, fields: fields})
	}
	return rows, nil
}

// LoadVitals 解析健康监测数据集
// 一行原始记录展开为多条单指标读数，血压按收缩压/舒张压拆成两条
func LoadVitals(reader io.Reader) ([]models.Vital, error) {
	rows, err := readRows(reader)
	if err != nil {
		return nil, err
	}

	var vitals []models.Vital
	for _, r := range rows {
		deviceID, _ := r.get(colDeviceID)
		ts := r.timestamp()

		if hr, ok := r.float(colHeartRate); ok {
			vitals = append(vitals, models.Vital{
				DeviceID:          deviceID,
				Metric:            models.MetricHeartRate,
				Value:             hr,
				Timestamp:         ts,
				ThresholdExceeded: r.yesPtr(colHeartRateThreshold),
			})
		}

		if bp, ok := r.get(colBloodPressure); ok && bp != "" {
			// 形如 "120/80 mmHg"
			bp = strings.TrimSpace(strings.ReplaceAll(bp, "mmHg", ""))
			if parts := strings.Split(bp, "/"); len(parts) == 2 {
				sys, errSys := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
				dia, errDia := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
				if errSys == nil && errDia == nil {
					exceeded := r.yesPtr(colBPThreshold)
					vitals = append(vitals,
						models.Vital{
							DeviceID:          deviceID,
							Metric:            models.MetricSystolicBP,
							Value:             sys,
							Timestamp:         ts,
							ThresholdExceeded: exceeded,
						},
						models.Vital{
							DeviceID:          deviceID,
							Metric:            models.MetricDiastolicBP,
							Value:             dia,
							Timestamp:         ts,
							ThresholdExceeded: exceeded,
						},
					)
				}
			}
		}

		if temp, ok := r.float(colTemperature); ok {
			vitals = append(vitals, models.Vital{
				DeviceID:  deviceID,
				Metric:    models.MetricTemperature,
				Value:     temp,
				Timestamp: ts,
			})
		}

		if glucose, ok := r.float(colGlucose); ok {
			vitals = append(vitals, models.Vital{
				DeviceID:          deviceID,
				Metric:            models.MetricGlucose,
				Value:             glucose,
				Timestamp:         ts,
				ThresholdExceeded: r.yesPtr(colGlucoseThreshold),
			})
		}

		if o2, ok := r.float(colOxygen); ok {
			vitals = append(vitals, models.Vital{
				DeviceID:          deviceID,
				Metric:            models.MetricOxygenLevel,
				Value:             o2,
				Timestamp:         ts,
				ThresholdExceeded: r.yesPtr(colOxygenThreshold),
			})
		}
	}

	return vitals, nil
}

// LoadMotionEvents 解析安全监测数据集
func LoadMotionEvents(reader io.Reader) ([]models.MotionEvent, error) {
	rows, err := readRows(reader)
	if err != nil {
		return nil, err
	}

	var events []models.MotionEvent
	for _, r := range rows {
		deviceID, _ := r.get(colDeviceID)
		activity, _ := r.get(colActivity)
		impact, _ := r.get(colImpactForce)
		location, _ := r.get(colLocation)

		inactivity := 0
		if v, ok := r.get(colInactivity); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				inactivity = n
			}
		}

		events = append(events, models.MotionEvent{
			DeviceID:           deviceID,
			Activity:           activity,
			FallDetected:       r.yes(colFall),
			ImpactForce:        impact,
			InactivityDuration: inactivity,
			Location:           location,
			Timestamp:          r.timestamp(),
		})
	}

	return events, nil
}

// LoadReminders 解析每日提醒数据集
func LoadReminders(reader io.Reader) ([]models.Reminder, error) {
	rows, err := readRows(reader)
	if err != nil {
		return nil, err
	}

	var reminders []models.Reminder
	for _, r := range rows {
		deviceID, _ := r.get(colDeviceID)
		kind, _ := r.get(colReminderType)
		scheduled, _ := r.get(colScheduledTime)

		reminders = append(reminders, models.Reminder{
			DeviceID:      deviceID,
			Kind:          strings.ToLower(kind),
			ScheduledTime: scheduled,
			Sent:          r.yes(colReminderSent),
			Acknowledged:  r.yes(colAcknowledged),
		})
	}

	return reminders, nil
}
