package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestVitalSeries_AppendEvictsOldestWhenFull(t *testing.T) {
	series := NewVitalSeries(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		series.Append(VitalSample{Timestamp: base.Add(time.Duration(i) * time.Second), Value: float64(i)})
	}

	require.Equal(t, 3, series.Len())
	samples := series.Samples()
	assert.Equal(t, float64(2), samples[0].Value)
	assert.Equal(t, float64(4), samples[2].Value)

	latest, ok := series.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(4), latest.Value)
}

func TestVitalSeries_LengthConstantAcrossUpdates(t *testing.T) {
	series := NewVitalSeries(10)
	for i := 0; i < 10; i++ {
		series.Append(VitalSample{Value: float64(i)})
	}

	// 写满后任意次追加长度都保持不变
	for i := 0; i < 100; i++ {
		series.Append(VitalSample{Value: float64(100 + i)})
		assert.Equal(t, 10, series.Len())
	}
}

func TestNewVitalSeriesFrom_KeepsNewestWhenOverCapacity(t *testing.T) {
	samples := make([]VitalSample, 30)
	for i := range samples {
		samples[i] = VitalSample{Value: float64(i)}
	}

	series := NewVitalSeriesFrom(20, samples)
	require.Equal(t, 20, series.Len())
	assert.Equal(t, float64(10), series.Samples()[0].Value)
	assert.Equal(t, float64(29), series.Samples()[19].Value)
}

func TestVitalSnapshot_MergeOnlyPresentFields(t *testing.T) {
	snapshot := VitalSnapshot{
		HeartRate: fptr(72),
		SpO2:      fptr(97),
		Temperature: fptr(36.8),
	}

	updated := snapshot.Merge(VitalSnapshot{HeartRate: fptr(88)})

	assert.Equal(t, []string{ChannelHeartRate}, updated)
	assert.Equal(t, float64(88), *snapshot.HeartRate)
	// 推送中缺失的字段不覆盖已知值
	require.NotNil(t, snapshot.SpO2)
	assert.Equal(t, float64(97), *snapshot.SpO2)
	require.NotNil(t, snapshot.Temperature)
	assert.Equal(t, 36.8, *snapshot.Temperature)
}

func TestVitalSnapshot_MergeBloodPressureUpdatesBothChannels(t *testing.T) {
	snapshot := VitalSnapshot{}
	updated := snapshot.Merge(VitalSnapshot{
		BloodPressure: &BloodPressure{Systolic: 135, Diastolic: 85},
	})

	assert.ElementsMatch(t, []string{ChannelSystolic, ChannelDiastolic}, updated)

	systolic, ok := snapshot.ChannelValue(ChannelSystolic)
	require.True(t, ok)
	assert.Equal(t, float64(135), systolic)
	diastolic, ok := snapshot.ChannelValue(ChannelDiastolic)
	require.True(t, ok)
	assert.Equal(t, float64(85), diastolic)
}

func TestVitalSnapshot_MergeCopiesValues(t *testing.T) {
	source := VitalSnapshot{HeartRate: fptr(60)}
	target := VitalSnapshot{}
	target.Merge(source)

	*source.HeartRate = 999
	assert.Equal(t, float64(60), *target.HeartRate)
}

func TestVitalSnapshot_ChannelValueMissing(t *testing.T) {
	snapshot := VitalSnapshot{}
	for _, channel := range AllChannels {
		_, ok := snapshot.ChannelValue(channel)
		assert.False(t, ok, "channel %s should be absent", channel)
	}
}
