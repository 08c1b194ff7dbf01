// Package config is responsible for loading the collector's configuration
// from various sources, e.g., environment variables, configuration files
// and user input.
//
// In order to add a new configuration item, you need to:
//   - add a field to the Config struct and assign the corresponding env
//     variable name and the default value via struct tags.
//   - add validation code to method `Config.validate()` (optional).
//   - add a method to retrieve the config value and a wrapper for the
//     default global variable `conf` (see wrappers.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/orbitmetrics/client/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const maxConfigFileSize = 1024 * 1024

// The environment variables read by Load.
const (
	envCollectorConfigFile    = "METRICS_CONFIG_FILE"
	envSnapshotInterval       = "METRICS_SNAPSHOT_INTERVAL"
	envFlushInterval          = "METRICS_FLUSH_INTERVAL"
	envRetryInterval          = "METRICS_RETRY_INTERVAL"
	envRetryCount             = "METRICS_RETRY_COUNT"
	envMaxPayloadSize         = "METRICS_MAX_PAYLOAD_SIZE"
	envMaxPayloadCount        = "METRICS_MAX_PAYLOAD_COUNT"
	envThrowOnPostFail        = "METRICS_THROW_ON_POST_FAIL"
	envThrowOnQueueFull       = "METRICS_THROW_ON_QUEUE_FULL"
	envDebugLevel             = "METRICS_DEBUG_LEVEL"
	envEnabled                = "METRICS_ENABLED"
)

var ErrUnsupportedFormat = errors.New("unsupported config file format")
var ErrFileTooLarge = errors.New("config file size exceeds limit")

// Config holds every collector option enumerated in §6.3: the snapshot and
// flush cadences, the handler's retry and payload-size/count thresholds, the
// exception visibility flags, and the ambient debug level. defaultTags and
// the name/tag transformer and validator functions are supplied
// programmatically via source.Option, since func values have no YAML/env
// representation.
type Config struct {
	sync.RWMutex `yaml:"-"`

	// SnapshotIntervalSeconds is the period between reading-emission passes.
	SnapshotIntervalSeconds int `yaml:"SnapshotIntervalSeconds,omitempty" env:"METRICS_SNAPSHOT_INTERVAL" default:"30"`

	// FlushIntervalSeconds is the period between endpoint drains.
	FlushIntervalSeconds int `yaml:"FlushIntervalSeconds,omitempty" env:"METRICS_FLUSH_INTERVAL" default:"1"`

	// RetryIntervalSeconds is the delay between failed sends.
	RetryIntervalSeconds int `yaml:"RetryIntervalSeconds,omitempty" env:"METRICS_RETRY_INTERVAL" default:"5"`

	// RetryCount is the max consecutive retries per flush call.
	RetryCount int `yaml:"RetryCount,omitempty" env:"METRICS_RETRY_COUNT" default:"3"`

	// MaxPayloadSize is the seal threshold for a handler's active buffer, in bytes.
	MaxPayloadSize int `yaml:"MaxPayloadSize,omitempty" env:"METRICS_MAX_PAYLOAD_SIZE" default:"32768"`

	// MaxPayloadCount is the overflow threshold for a handler's pending queue.
	MaxPayloadCount int `yaml:"MaxPayloadCount,omitempty" env:"METRICS_MAX_PAYLOAD_COUNT" default:"10"`

	// ThrowOnPostFail, if set, routes post failures to the exception handler.
	ThrowOnPostFail bool `yaml:"ThrowOnPostFail,omitempty" env:"METRICS_THROW_ON_POST_FAIL" default:"false"`

	// ThrowOnQueueFull, if set, routes queue drops to the exception handler.
	ThrowOnQueueFull bool `yaml:"ThrowOnQueueFull,omitempty" env:"METRICS_THROW_ON_QUEUE_FULL" default:"false"`

	// DebugLevel is the ambient logging level. It should follow the level
	// names defined in log.StrToLevel.
	DebugLevel string `yaml:"DebugLevel,omitempty" env:"METRICS_DEBUG_LEVEL" default:"warn"`

	// Enabled, when false, makes Load reset every other field to its
	// default. The collector does not read it: Start runs its loops either
	// way.
	Enabled bool `yaml:"Enabled,omitempty" env:"METRICS_ENABLED" default:"true"`
}

// Option is a function type that accepts a Config pointer and applies the
// configuration option it defines.
type Option func(c *Config)

// WithSnapshotInterval overrides the snapshot cadence, in seconds.
func WithSnapshotInterval(seconds int) Option {
	return func(c *Config) { c.SnapshotIntervalSeconds = seconds }
}

// WithFlushInterval overrides the flush cadence, in seconds.
func WithFlushInterval(seconds int) Option {
	return func(c *Config) { c.FlushIntervalSeconds = seconds }
}

// WithRetry overrides the handler's retry interval (seconds) and count.
func WithRetry(intervalSeconds, count int) Option {
	return func(c *Config) {
		c.RetryIntervalSeconds = intervalSeconds
		c.RetryCount = count
	}
}

// WithPayloadLimits overrides the per-endpoint buffer seal size and queue depth.
func WithPayloadLimits(maxSize, maxCount int) Option {
	return func(c *Config) {
		c.MaxPayloadSize = maxSize
		c.MaxPayloadCount = maxCount
	}
}

// NewConfig initializes a Config object and overrides default values with
// options provided as arguments. It may log warnings if there are invalid
// values in the configuration file or the environment variables, but it
// never fails: an invalid field falls back to its default.
func NewConfig(opts ...Option) *Config {
	return newConfig().Load(opts...)
}

func newConfig() *Config {
	return &Config{}
}

func (c *Config) validate() {
	if !IsValidInterval(c.SnapshotIntervalSeconds) {
		log.Info(InvalidEnv("SnapshotIntervalSeconds", fmt.Sprint(c.SnapshotIntervalSeconds)))
		c.SnapshotIntervalSeconds = intDefault(c, "SnapshotIntervalSeconds")
	}
	if !IsValidInterval(c.FlushIntervalSeconds) {
		log.Info(InvalidEnv("FlushIntervalSeconds", fmt.Sprint(c.FlushIntervalSeconds)))
		c.FlushIntervalSeconds = intDefault(c, "FlushIntervalSeconds")
	}
	if !IsValidInterval(c.RetryIntervalSeconds) {
		log.Info(InvalidEnv("RetryIntervalSeconds", fmt.Sprint(c.RetryIntervalSeconds)))
		c.RetryIntervalSeconds = intDefault(c, "RetryIntervalSeconds")
	}
	if c.RetryCount < 0 {
		log.Info(InvalidEnv("RetryCount", fmt.Sprint(c.RetryCount)))
		c.RetryCount = intDefault(c, "RetryCount")
	}
	if c.MaxPayloadSize <= 0 {
		log.Info(InvalidEnv("MaxPayloadSize", fmt.Sprint(c.MaxPayloadSize)))
		c.MaxPayloadSize = intDefault(c, "MaxPayloadSize")
	}
	if c.MaxPayloadCount <= 0 {
		log.Info(InvalidEnv("MaxPayloadCount", fmt.Sprint(c.MaxPayloadCount)))
		c.MaxPayloadCount = intDefault(c, "MaxPayloadCount")
	}
	if _, err := log.StrToLevel(c.DebugLevel); err != nil {
		log.Warning(InvalidEnv("DebugLevel", c.DebugLevel))
		c.DebugLevel = getFieldDefaultValue(c, "DebugLevel")
	}
}

func intDefault(c interface{}, field string) int {
	return ToInteger(getFieldDefaultValue(c, field))
}

// Get the value of the `default` tag of a field in the struct.
func getFieldDefaultValue(i interface{}, fieldName string) string {
	iv := reflect.Indirect(reflect.ValueOf(i))
	if iv.Kind() != reflect.Struct {
		panic("calling getFieldDefaultValue with non-struct type")
	}

	field, ok := iv.Type().FieldByName(fieldName)
	if !ok {
		panic(fmt.Sprintf("invalid field: %s", fieldName))
	}

	return field.Tag.Get("default")
}

// Load reads configuration from the config file and environment variables,
// in that order, then applies opts on top.
func (c *Config) Load(opts ...Option) *Config {
	c.Lock()
	defer c.Unlock()

	c.reset()

	if err := c.loadConfigFile(); err != nil {
		log.Warning(errors.Wrap(err, "config file load error").Error())
	}
	c.loadEnvs()

	for _, opt := range opts {
		opt(c)
	}

	if !c.Enabled {
		c.reset()
		c.Enabled = false
		return c
	}

	c.validate()
	return c
}

// reset reads the `default` struct tag of every field and reinitializes the
// struct with those values.
func (c *Config) reset() *Config {
	return initStruct(c).(*Config)
}

// initStruct initializes the struct with the default values defined in the
// struct tags. The input must be a pointer to a settable struct object.
func initStruct(c interface{}) interface{} {
	cVal := reflect.Indirect(reflect.ValueOf(c))
	cType := cVal.Type()

	for i := 0; i < cVal.NumField(); i++ {
		fieldVal := reflect.Indirect(cVal.Field(i))
		field := cType.Field(i)

		if field.Anonymous || !fieldVal.CanSet() {
			continue
		}
		tagVal := getFieldDefaultValue(c, field.Name)
		defaultVal, _ := stringToValue(tagVal, field.Type)
		setField(c, field, defaultVal)
	}

	return c
}

// setField assigns val to struct c's field named field.Name via reflection.
// The dynamic type of c must be a pointer to a struct object.
func setField(c interface{}, field reflect.StructField, val reflect.Value) {
	cVal := reflect.Indirect(reflect.ValueOf(c))
	if cVal.Kind() != reflect.Struct {
		return
	}

	fieldVal := reflect.Indirect(cVal.FieldByName(field.Name))
	if !fieldVal.IsValid() {
		return
	}

	if !fieldVal.CanSet() || field.Anonymous {
		log.Warningf("Failed to set field: %s val: %v", field.Name, val.Interface())
		return
	}

	fieldVal.Set(val)
}

func (c *Config) loadEnvs() {
	loadEnvsInternal(c)
}

func (c *Config) getConfigPath() string {
	if path, ok := os.LookupEnv(envCollectorConfigFile); ok {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		} else {
			log.Warningf("Ignore config file %s: %s", path, err)
		}
	}

	candidates := []string{
		"./metricsclient.yaml",
		"./metricsclient.yml",
		"/etc/metricsclient.yaml",
		"/etc/metricsclient.yml",
	}
	for _, file := range candidates {
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		if _, e := os.Stat(abs); e != nil {
			continue
		}
		return abs
	}
	return ""
}

func (c *Config) loadYaml(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "loadYaml")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, fmt.Sprintf("loadYaml: %s", path))
	}
	return nil
}

func (c *Config) checkFileSize(path string) error {
	file, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "checkFileSize")
	}
	if size := file.Size(); size > maxConfigFileSize {
		return errors.Wrap(ErrFileTooLarge, fmt.Sprintf("file size: %d", size))
	}
	return nil
}

func (c *Config) loadConfigFile() error {
	path := c.getConfigPath()
	if path == "" {
		return nil
	}
	if err := c.checkFileSize(path); err != nil {
		return errors.Wrap(err, "loadConfigFile")
	}
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return c.loadYaml(path)
	default:
		return errors.Wrap(ErrUnsupportedFormat, path)
	}
}

// GetSnapshotInterval returns the snapshot cadence.
func (c *Config) GetSnapshotInterval() int {
	c.RLock()
	defer c.RUnlock()
	return c.SnapshotIntervalSeconds
}

// GetFlushInterval returns the flush cadence.
func (c *Config) GetFlushInterval() int {
	c.RLock()
	defer c.RUnlock()
	return c.FlushIntervalSeconds
}

// GetRetryInterval returns the handler retry delay.
func (c *Config) GetRetryInterval() int {
	c.RLock()
	defer c.RUnlock()
	return c.RetryIntervalSeconds
}

// GetRetryCount returns the max consecutive retries per flush call.
func (c *Config) GetRetryCount() int {
	c.RLock()
	defer c.RUnlock()
	return c.RetryCount
}

// GetMaxPayloadSize returns the buffer seal threshold, in bytes.
func (c *Config) GetMaxPayloadSize() int {
	c.RLock()
	defer c.RUnlock()
	return c.MaxPayloadSize
}

// GetMaxPayloadCount returns the pending-queue overflow threshold.
func (c *Config) GetMaxPayloadCount() int {
	c.RLock()
	defer c.RUnlock()
	return c.MaxPayloadCount
}

// GetThrowOnPostFail returns whether post failures reach the exception handler.
func (c *Config) GetThrowOnPostFail() bool {
	c.RLock()
	defer c.RUnlock()
	return c.ThrowOnPostFail
}

// GetThrowOnQueueFull returns whether queue drops reach the exception handler.
func (c *Config) GetThrowOnQueueFull() bool {
	c.RLock()
	defer c.RUnlock()
	return c.ThrowOnQueueFull
}

// GetDebugLevel returns the configured ambient log level name.
func (c *Config) GetDebugLevel() string {
	c.RLock()
	defer c.RUnlock()
	return c.DebugLevel
}

// GetEnabled returns whether the collector is enabled.
func (c *Config) GetEnabled() bool {
	c.RLock()
	defer c.RUnlock()
	return c.Enabled
}
