package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersReflectGlobalConfig(t *testing.T) {
	assert.Equal(t, conf.GetSnapshotInterval(), GetSnapshotInterval())
	assert.Equal(t, conf.GetFlushInterval(), GetFlushInterval())
	assert.Equal(t, conf.GetRetryInterval(), GetRetryInterval())
	assert.Equal(t, conf.GetRetryCount(), GetRetryCount())
	assert.Equal(t, conf.GetEnabled(), GetEnabled())
}
