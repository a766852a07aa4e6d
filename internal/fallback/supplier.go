package fallback

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"vitalwatch-client/internal/models"

	"github.com/google/uuid"
)

// Supplier 降级数据提供器
// 后端不可达时按数据类别独立替换为合成数据，形状与真实数据完全一致，
// 下游组件无法区分替换是否发生
type Supplier struct {
	windowSize int
}

// NewSupplier 创建降级数据提供器
func NewSupplier(windowSize int) *Supplier {
	if windowSize <= 0 {
		windowSize = 20
	}
	return &Supplier{windowSize: windowSize}
}

func ptr(v float64) *float64 { return &v }

// rosterEntry 固定患者名单条目
type rosterEntry struct {
	id        string
	name      string
	bed       string
	age       int
	gender    string
	admission string
	diagnosis string
	severity  models.Severity
}

// 固定 8 人名单：2 critical、2 warning、4 stable（info/normal）
var roster = []rosterEntry{
	{"P001", "John Smith", "ICU-101", 67, "male", "2026-08-18", "Acute myocardial infarction", models.SeverityCritical},
	{"P002", "Sarah Johnson", "ICU-102", 54, "female", "2026-08-20", "Severe pneumonia", models.SeverityWarning},
	{"P003", "Michael Brown", "WARD-201", 45, "male", "2026-08-21", "Post-operative observation", models.SeverityNormal},
	{"P004", "Emily Davis", "ICU-103", 72, "female", "2026-08-19", "Septic shock", models.SeverityCritical},
	{"P005", "Robert Wilson", "WARD-202", 61, "male", "2026-08-22", "Chronic heart failure", models.SeverityInfo},
	{"P006", "Linda Martinez", "WARD-203", 58, "female", "2026-08-20", "COPD exacerbation", models.SeverityWarning},
	{"P007", "David Anderson", "WARD-204", 39, "male", "2026-08-23", "Diabetic ketoacidosis recovery", models.SeverityNormal},
	{"P008", "Maria Garcia", "WARD-205", 50, "female", "2026-08-22", "Stable angina", models.SeverityNormal},
}

// 各通道基线与随机游走幅度
var channelBaselines = map[string]struct {
	baseline float64
	step     float64
	min      float64
	max      float64
}{
	models.ChannelHeartRate:       {78, 3, 50, 140},
	models.ChannelSpO2:            {97, 0.5, 88, 100},
	models.ChannelSystolic:        {120, 4, 85, 185},
	models.ChannelDiastolic:       {80, 3, 50, 110},
	models.ChannelTemperature:     {36.8, 0.1, 35.0, 40.0},
	models.ChannelRespiratoryRate: {16, 1, 8, 30},
}

// Patients 固定患者名单（形状与 /api/patients 一致）
func (s *Supplier) Patients() []models.Patient {
	patients := make([]models.Patient, 0, len(roster))
	for _, entry := range roster {
		patients = append(patients, s.buildPatient(entry))
	}
	return patients
}

// Patient 按 ID 返回名单中的患者，名单外的 ID 返回 false
func (s *Supplier) Patient(patientID string) (models.Patient, bool) {
	for _, entry := range roster {
		if entry.id == patientID {
			return s.buildPatient(entry), true
		}
	}
	return models.Patient{}, false
}

func (s *Supplier) buildPatient(entry rosterEntry) models.Patient {
	// 快照取各通道随机游走的最后一个值，与历史序列保持一致
	snapshot := models.VitalSnapshot{}
	values := map[string]float64{}
	for channel := range channelBaselines {
		walk := s.walk(entry.id, channel, s.windowSize)
		values[channel] = walk[len(walk)-1]
	}
	snapshot.HeartRate = ptr(values[models.ChannelHeartRate])
	snapshot.SpO2 = ptr(values[models.ChannelSpO2])
	snapshot.BloodPressure = &models.BloodPressure{
		Systolic:  values[models.ChannelSystolic],
		Diastolic: values[models.ChannelDiastolic],
	}
	snapshot.Temperature = ptr(values[models.ChannelTemperature])
	snapshot.RespiratoryRate = ptr(values[models.ChannelRespiratoryRate])

	return models.Patient{
		ID:            entry.id,
		Name:          entry.name,
		Bed:           entry.bed,
		Age:           entry.age,
		Gender:        entry.gender,
		AdmissionDate: entry.admission,
		Diagnosis:     entry.diagnosis,
		Vitals:        snapshot,
		Severity:      entry.severity,
	}
}

// Alerts 合成报警集合
// 集合的最差级别与名单中该患者的级别一致（保持级别可由报警推导的不变量）
func (s *Supplier) Alerts(patientID string) []models.Alert {
	entry, ok := s.findEntry(patientID)
	if !ok {
		return []models.Alert{}
	}
	now := time.Now()
	switch entry.severity {
	case models.SeverityCritical:
		return []models.Alert{
			s.buildAlert(patientID, "Bradycardia Alert", "Critical bradycardia detected. Heart rate: 48 bpm (threshold: <50)",
				models.SeverityCritical, models.ChannelHeartRate, 48, 50, now.Add(-5*time.Minute)),
			s.buildAlert(patientID, "Hypoxia Alert", "Low oxygen saturation detected: 92% (normal: >95%)",
				models.SeverityWarning, models.ChannelSpO2, 92, 94, now.Add(-12*time.Minute)),
		}
	case models.SeverityWarning:
		return []models.Alert{
			s.buildAlert(patientID, "Tachycardia Alert", "Elevated heart rate detected: 112 bpm (normal: 60-100)",
				models.SeverityWarning, models.ChannelHeartRate, 112, 100, now.Add(-8*time.Minute)),
		}
	case models.SeverityInfo:
		return []models.Alert{
			s.buildAlert(patientID, "Fever Alert", "Slightly elevated temperature: 37.4°C (normal: 36.1-37.2°C)",
				models.SeverityInfo, models.ChannelTemperature, 37.4, 37.2, now.Add(-20*time.Minute)),
		}
	default:
		return []models.Alert{}
	}
}

func (s *Supplier) buildAlert(patientID, alertType, message string, severity models.Severity,
	vitalType string, value, threshold float64, ts time.Time) models.Alert {
	return models.Alert{
		ID:         fmt.Sprintf("FBK-%s", uuid.NewString()),
		PatientID:  patientID,
		Type:       alertType,
		Message:    message,
		Severity:   severity,
		VitalType:  vitalType,
		VitalValue: value,
		Threshold:  threshold,
		Timestamp:  ts.Format(time.RFC3339),
	}
}

// Summary 合成摘要（形状与摘要服务响应一致）
func (s *Supplier) Summary(patientID string) models.Summary {
	name := patientID
	if entry, ok := s.findEntry(patientID); ok {
		name = entry.name
	}
	alerts := s.Alerts(patientID)
	return models.Summary{
		PatientID: patientID,
		Text: fmt.Sprintf("**Clinical Summary for %s**\n\nVital signs are being monitored locally. "+
			"Live summarization is currently unavailable; displayed values are from the most recent local data.", name),
		Timestamp:   time.Now().Format(time.RFC3339),
		AlertsCount: len(alerts),
		Error:       false,
	}
}

// VitalsHistory 合成体征历史
// 每个通道是围绕基线的确定形状随机游走（按患者 ID + 通道名作种子），
// 长度等于配置的滑动窗口长度
func (s *Supplier) VitalsHistory(patientID string) map[string][]models.VitalSample {
	history := make(map[string][]models.VitalSample, len(models.AllChannels))
	end := time.Now().Truncate(time.Minute)
	for _, channel := range models.AllChannels {
		walk := s.walk(patientID, channel, s.windowSize)
		samples := make([]models.VitalSample, len(walk))
		for i, value := range walk {
			samples[i] = models.VitalSample{
				Timestamp: end.Add(-time.Duration(len(walk)-1-i) * time.Minute),
				Value:     value,
			}
		}
		history[channel] = samples
	}
	return history
}

// walk 确定性随机游走（同一患者同一通道形状不变）
func (s *Supplier) walk(patientID, channel string, length int) []float64 {
	params := channelBaselines[channel]
	rng := rand.New(rand.NewSource(seed(patientID + ":" + channel)))
	values := make([]float64, length)
	current := params.baseline
	for i := 0; i < length; i++ {
		current += (rng.Float64()*2 - 1) * params.step
		if current < params.min {
			current = params.min
		}
		if current > params.max {
			current = params.max
		}
		values[i] = current
	}
	return values
}

func (s *Supplier) findEntry(patientID string) (rosterEntry, bool) {
	for _, entry := range roster {
		if entry.id == patientID {
			return entry, true
		}
	}
	return rosterEntry{}, false
}

func seed(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}
