package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidInterval(t *testing.T) {
	assert.True(t, IsValidInterval(1))
	assert.True(t, IsValidInterval(30))
	assert.False(t, IsValidInterval(0))
	assert.False(t, IsValidInterval(-1))
}

func TestToInteger(t *testing.T) {
	assert.Equal(t, 30, ToInteger("30"))
	assert.Equal(t, 0, ToInteger("not-a-number"))
}
