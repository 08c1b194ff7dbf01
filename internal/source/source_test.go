package source

import (
	"testing"
	"time"

	"github.com/orbitmetrics/client/internal/aggregate"
	"github.com/orbitmetrics/client/internal/metric"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/orbitmetrics/client/internal/tagged"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatch struct {
	readings []reading.Reading
}

func (b *fakeBatch) AddReading(r reading.Reading) { b.readings = append(b.readings, r) }

func TestAddCounterThenWriteReadings(t *testing.T) {
	s := New(nil, nil)
	c, err := s.AddCounter("requests", "", "number of requests")
	require.NoError(t, err)
	require.NoError(t, c.Increment(1))

	b := &fakeBatch{}
	s.WriteReadings(b, time.Now())
	require.Len(t, b.readings, 1)
	assert.Equal(t, "requests", b.readings[0].Name)
	assert.Equal(t, float64(1), b.readings[0].Value)
}

func TestAddCounterByteIdenticalReturnsExistingHandle(t *testing.T) {
	s := New(nil, nil)
	a, err := s.AddCounter("requests", "count", "")
	require.NoError(t, err)
	b, err := s.AddCounter("requests", "count", "")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestAddCounterConflictingUnitIsDuplicate(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddCounter("requests", "count", "")
	require.NoError(t, err)
	_, err = s.AddCounter("requests", "ms", "")
	assert.Error(t, err)
}

func TestAddCounterConflictingKindIsDuplicate(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddCounter("x", "", "")
	require.NoError(t, err)
	_, err = s.AddCumulativeCounter("x", "", "")
	assert.Error(t, err)
}

func TestAddScalarInvalidNameRejected(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddCounter("", "", "")
	assert.Error(t, err)
}

func TestAddAggregateGaugeSuffixCollisionWithExistingMetric(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddCounter("g_max", "", "")
	require.NoError(t, err)

	_, err = s.AddAggregateGauge("g", "", "", []aggregate.Spec{{Kind: aggregate.Max}})
	assert.Error(t, err)
}

func TestAddAggregateGaugeDuplicateSuffixRejectedBeforeRegistration(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddAggregateGauge("g", "", "", []aggregate.Spec{{Kind: aggregate.Max}, {Kind: aggregate.Max}})
	assert.Error(t, err)

	// The rejected registration must not have consumed the name: a fresh,
	// valid configuration for the same name succeeds.
	_, err = s.AddAggregateGauge("g", "", "", []aggregate.Spec{{Kind: aggregate.Max}})
	assert.NoError(t, err)
}

func TestOnRegisteredCalledOnce(t *testing.T) {
	calls := 0
	s := New(nil, func() { calls++ })

	_, err := s.AddCounter("a", "", "")
	require.NoError(t, err)
	_, err = s.AddCounter("a", "", "")
	require.NoError(t, err)
	_, err = s.AddCounter("b", "", "")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestAddTaggedSharesChildrenAcrossGet(t *testing.T) {
	s := New(nil, nil)
	fam, err := s.AddTagged("requests", "", "", []string{"method"}, reading.Counter, []string{""},
		func(ownTags map[string]string) metric.Metric {
			return metric.NewCounter("requests", "", "", ownTags)
		})
	require.NoError(t, err)

	m1, err := fam.Get("GET")
	require.NoError(t, err)
	require.NoError(t, m1.(*metric.Counter).Increment(1))

	fam2, err := s.AddTagged("requests", "", "", []string{"method"}, reading.Counter, []string{""}, nil)
	require.NoError(t, err)
	assert.Same(t, fam, fam2)

	b := &fakeBatch{}
	s.WriteReadings(b, time.Now())
	require.Len(t, b.readings, 1)
	assert.Equal(t, reading.Tags{{Name: "method", Value: "GET"}}, b.readings[0].Tags)
}

func TestAddTaggedArityValidated(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddTagged("x", "", "", nil, reading.Counter, []string{""}, nil)
	assert.Error(t, err)
}

func TestGetMetadataIncludesScalarsAndFamilies(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddCounter("a", "", "a desc")
	require.NoError(t, err)
	_, err = s.AddTagged("b", "", "", []string{"k"}, reading.Counter, []string{""},
		func(ownTags map[string]string) metric.Metric { return metric.NewCounter("b", "", "", ownTags) })
	require.NoError(t, err)

	facts := s.GetMetadata()
	names := map[string]bool{}
	for _, f := range facts {
		names[f.Metric] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
}

func TestDefaultTagsAppliedToReadings(t *testing.T) {
	opts := NewOptions(WithDefaultTags(map[string]string{"region": "us-east"}))
	s := New(opts, nil)
	c, err := s.AddCounter("x", "", "")
	require.NoError(t, err)
	require.NoError(t, c.Increment(1))

	b := &fakeBatch{}
	s.WriteReadings(b, time.Now())
	require.Len(t, b.readings, 1)
	assert.Equal(t, reading.Tags{{Name: "region", Value: "us-east"}}, b.readings[0].Tags)
}
