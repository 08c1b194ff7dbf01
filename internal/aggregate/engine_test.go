package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestRankEmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), NearestRank(nil, 0.5))
}

func TestNearestRankMedianEvenLengthRoundsToEven(t *testing.T) {
	sorted := []float64{1.2, 2.4, 4.8, 9.6, 19.2, 38.4}
	assert.Equal(t, 4.8, NearestRank(sorted, 0.5))
}

func TestNearestRankBounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, float64(1), NearestRank(sorted, 0))
	assert.Equal(t, float64(5), NearestRank(sorted, 1))
}

func TestEngineAccumulatesAndResets(t *testing.T) {
	e := NewEngine([]Spec{{Kind: Average}, {Kind: Count}, {Kind: Max}, {Kind: Min}, {Kind: Last}})
	e.Record(1)
	e.Record(2)
	e.Record(3)

	results := e.Emit()
	byKind := map[Kind]float64{}
	for _, r := range results {
		byKind[r.Spec.Kind] = r.Value
	}
	assert.Equal(t, float64(2), byKind[Average])
	assert.Equal(t, float64(3), byKind[Count])
	assert.Equal(t, float64(3), byKind[Max])
	assert.Equal(t, float64(1), byKind[Min])
	assert.Equal(t, float64(3), byKind[Last])

	// Window reset: next emit with no new records yields only Count=0.
	results2 := e.Emit()
	require.Len(t, results2, 1)
	assert.Equal(t, Count, results2[0].Spec.Kind)
	assert.Equal(t, float64(0), results2[0].Value)
}

func TestEngineEmitNilWithoutCountSpec(t *testing.T) {
	e := NewEngine([]Spec{{Kind: Average}})
	assert.Nil(t, e.Emit())
}
