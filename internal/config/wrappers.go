package config

import (
	"github.com/orbitmetrics/client/internal/log"
)

var conf = NewConfig()

// GetSnapshotInterval is a wrapper to the method of the global config
var GetSnapshotInterval = conf.GetSnapshotInterval

// GetFlushInterval is a wrapper to the method of the global config
var GetFlushInterval = conf.GetFlushInterval

// GetRetryInterval is a wrapper to the method of the global config
var GetRetryInterval = conf.GetRetryInterval

// GetRetryCount is a wrapper to the method of the global config
var GetRetryCount = conf.GetRetryCount

// GetMaxPayloadSize is a wrapper to the method of the global config
var GetMaxPayloadSize = conf.GetMaxPayloadSize

// GetMaxPayloadCount is a wrapper to the method of the global config
var GetMaxPayloadCount = conf.GetMaxPayloadCount

// GetThrowOnPostFail is a wrapper to the method of the global config
var GetThrowOnPostFail = conf.GetThrowOnPostFail

// GetThrowOnQueueFull is a wrapper to the method of the global config
var GetThrowOnQueueFull = conf.GetThrowOnQueueFull

// DebugLevel is a wrapper to the method of the global config
var DebugLevel = conf.GetDebugLevel

// GetEnabled is a wrapper to the method of the global config
var GetEnabled = conf.GetEnabled

// Load reads the customized configuration
var Load = conf.Load

func init() {
	if conf.GetEnabled() {
		log.SetLevelFromStr(conf.GetDebugLevel())
	}
}
