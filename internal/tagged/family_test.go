package tagged

import (
	"sync"
	"testing"
	"time"

	"github.com/orbitmetrics/client/internal/metric"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }
func nonEmpty(s string) bool   { return s != "" }

func counterFactory(ownTags map[string]string) metric.Metric {
	return metric.NewCounter("requests", "", "", ownTags)
}

func TestFamilyGetIsIdempotentPerTuple(t *testing.T) {
	f := New("requests", "", "", []Descriptor{{Name: "method"}, {Name: "status"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)

	a, err := f.Get("GET", "200")
	require.NoError(t, err)
	b, err := f.Get("GET", "200")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := f.Get("GET", "500")
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	assert.Len(t, f.Children(), 2)
}

func TestFamilyGetRejectsInvalidValue(t *testing.T) {
	f := New("requests", "", "", []Descriptor{{Name: "method"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)
	_, err := f.Get("")
	assert.Error(t, err)
}

func TestFamilyGetRejectsWrongArity(t *testing.T) {
	f := New("requests", "", "", []Descriptor{{Name: "method"}, {Name: "status"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)
	_, err := f.Get("GET")
	assert.Error(t, err)
}

func TestFamilyGetConcurrentSameTupleSharesOneChild(t *testing.T) {
	f := New("requests", "", "", []Descriptor{{Name: "method"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)

	var wg sync.WaitGroup
	results := make([]metric.Metric, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := f.Get("GET")
			require.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		assert.Same(t, results[0], m)
	}
	assert.Len(t, f.Children(), 1)
}

func TestFamilyEmitDelegatesToChildren(t *testing.T) {
	f := New("requests", "", "", []Descriptor{{Name: "method"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)

	get, err := f.Get("GET")
	require.NoError(t, err)
	require.NoError(t, get.(*metric.Counter).Increment(1))

	b := &recordingBatch{}
	f.Emit(b, nil, time.Now())
	require.Len(t, b.readings, 1)
	assert.Equal(t, "requests", b.readings[0].Name)
	assert.Equal(t, reading.Tags{{Name: "method", Value: "GET"}}, b.readings[0].Tags)
}

func TestFamilyMetadataIndependentOfChildren(t *testing.T) {
	f := New("requests", "ms", "request latency", []Descriptor{{Name: "method"}}, reading.Counter, []string{""}, identity, nonEmpty, counterFactory)
	facts := f.Metadata()
	require.NotEmpty(t, facts)
	for _, fact := range facts {
		assert.Equal(t, "requests", fact.Metric)
	}
}

type recordingBatch struct {
	readings []reading.Reading
}

func (b *recordingBatch) AddReading(r reading.Reading) { b.readings = append(b.readings, r) }
