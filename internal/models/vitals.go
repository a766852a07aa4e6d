package models

import "time"

// 体征通道名称（与后端 history 接口的键一致）
const (
	ChannelHeartRate       = "heart_rate"
	ChannelSpO2            = "spo2"
	ChannelSystolic        = "systolic"
	ChannelDiastolic       = "diastolic"
	ChannelTemperature     = "temperature"
	ChannelRespiratoryRate = "respiratory_rate"
)

// AllChannels 全部体征通道（固定顺序）
var AllChannels = []string{
	ChannelHeartRate,
	ChannelSpO2,
	ChannelSystolic,
	ChannelDiastolic,
	ChannelTemperature,
	ChannelRespiratoryRate,
}

// BloodPressure 血压（收缩压/舒张压）
type BloodPressure struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// VitalSnapshot 当前最新体征快照
// 所有字段均可缺失（指针为 nil 表示未知），部分更新时缺失字段不覆盖已知值
type VitalSnapshot struct {
	HeartRate       *float64       `json:"heartRate,omitempty"`
	SpO2            *float64       `json:"spO2,omitempty"`
	BloodPressure   *BloodPressure `json:"bloodPressure,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	RespiratoryRate *float64       `json:"respiratoryRate,omitempty"`
}

// Merge 将推送的部分快照合并到当前快照
// 只覆盖 fragment 中存在的字段，返回被更新的通道名称列表
func (s *VitalSnapshot) Merge(fragment VitalSnapshot) []string {
	var updated []string
	if fragment.HeartRate != nil {
		v := *fragment.HeartRate
		s.HeartRate = &v
		updated = append(updated, ChannelHeartRate)
	}
	if fragment.SpO2 != nil {
		v := *fragment.SpO2
		s.SpO2 = &v
		updated = append(updated, ChannelSpO2)
	}
	if fragment.BloodPressure != nil {
		v := *fragment.BloodPressure
		s.BloodPressure = &v
		updated = append(updated, ChannelSystolic, ChannelDiastolic)
	}
	if fragment.Temperature != nil {
		v := *fragment.Temperature
		s.Temperature = &v
		updated = append(updated, ChannelTemperature)
	}
	if fragment.RespiratoryRate != nil {
		v := *fragment.RespiratoryRate
		s.RespiratoryRate = &v
		updated = append(updated, ChannelRespiratoryRate)
	}
	return updated
}

// ChannelValue 返回快照中指定通道的当前值
func (s *VitalSnapshot) ChannelValue(channel string) (float64, bool) {
	switch channel {
	case ChannelHeartRate:
		if s.HeartRate != nil {
			return *s.HeartRate, true
		}
	case ChannelSpO2:
		if s.SpO2 != nil {
			return *s.SpO2, true
		}
	case ChannelSystolic:
		if s.BloodPressure != nil {
			return s.BloodPressure.Systolic, true
		}
	case ChannelDiastolic:
		if s.BloodPressure != nil {
			return s.BloodPressure.Diastolic, true
		}
	case ChannelTemperature:
		if s.Temperature != nil {
			return *s.Temperature, true
		}
	case ChannelRespiratoryRate:
		if s.RespiratoryRate != nil {
			return *s.RespiratoryRate, true
		}
	}
	return 0, false
}

// Clone 深拷贝快照
func (s *VitalSnapshot) Clone() VitalSnapshot {
	out := VitalSnapshot{}
	out.Merge(*s)
	return out
}

// VitalSample 单个体征采样点
type VitalSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// VitalSeries 固定容量的体征趋势序列（滑动窗口）
// 写满后每次追加淘汰最旧的一个采样点，长度保持不变
type VitalSeries struct {
	capacity int
	samples  []VitalSample
}

// NewVitalSeries 创建趋势序列
func NewVitalSeries(capacity int) *VitalSeries {
	if capacity <= 0 {
		capacity = 1
	}
	return &VitalSeries{
		capacity: capacity,
		samples:  make([]VitalSample, 0, capacity),
	}
}

// NewVitalSeriesFrom 从历史数据创建趋势序列（超出容量时只保留最新的部分）
func NewVitalSeriesFrom(capacity int, samples []VitalSample) *VitalSeries {
	s := NewVitalSeries(capacity)
	start := 0
	if len(samples) > s.capacity {
		start = len(samples) - s.capacity
	}
	for _, sample := range samples[start:] {
		s.Append(sample)
	}
	return s
}

// Append 追加一个采样点，已满时淘汰最旧的
func (s *VitalSeries) Append(sample VitalSample) {
	if len(s.samples) >= s.capacity {
		copy(s.samples, s.samples[1:])
		s.samples[len(s.samples)-1] = sample
		return
	}
	s.samples = append(s.samples, sample)
}

// Len 当前采样点数量
func (s *VitalSeries) Len() int {
	return len(s.samples)
}

// Capacity 窗口容量
func (s *VitalSeries) Capacity() int {
	return s.capacity
}

// Samples 返回采样点副本（从旧到新）
func (s *VitalSeries) Samples() []VitalSample {
	out := make([]VitalSample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Latest 返回最新的采样点
func (s *VitalSeries) Latest() (VitalSample, bool) {
	if len(s.samples) == 0 {
		return VitalSample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Clone 深拷贝序列
func (s *VitalSeries) Clone() *VitalSeries {
	out := NewVitalSeries(s.capacity)
	out.samples = append(out.samples, s.samples...)
	return out
}
