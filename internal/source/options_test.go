package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTagSetAndRemove(t *testing.T) {
	o := NewOptions()
	o.SetDefaultTag("region", "us-east")
	assert.Equal(t, map[string]string{"region": "us-east"}, o.DefaultTags())

	o.SetDefaultTag("az", "a")
	assert.Equal(t, map[string]string{"region": "us-east", "az": "a"}, o.DefaultTags())

	o.RemoveDefaultTag("az")
	assert.Equal(t, map[string]string{"region": "us-east"}, o.DefaultTags())
}

func TestDefaultTagSnapshotIsImmutable(t *testing.T) {
	o := NewOptions()
	o.SetDefaultTag("region", "us-east")
	snap := o.DefaultTags()

	o.SetDefaultTag("region", "us-west")
	assert.Equal(t, "us-east", snap["region"])
	assert.Equal(t, "us-west", o.DefaultTags()["region"])
}

func TestWithDefaultTagsSeedsInitialSnapshot(t *testing.T) {
	o := NewOptions(WithDefaultTags(map[string]string{"k": "v"}))
	assert.Equal(t, map[string]string{"k": "v"}, o.DefaultTags())
}

func TestCustomTransformersAndValidators(t *testing.T) {
	o := NewOptions(
		WithMetricNameTransformer(strings.ToLower),
		WithMetricNameValidator(func(s string) bool { return !strings.Contains(s, " ") }),
	)
	assert.Equal(t, "requests_total", o.TransformMetricName("Requests_Total"))
	assert.True(t, o.ValidateMetricName("requests_total"))
	assert.False(t, o.ValidateMetricName("bad name"))
}

func TestDefaultValidatorsRejectEmpty(t *testing.T) {
	o := NewOptions()
	assert.False(t, o.ValidateMetricName(""))
	assert.False(t, o.ValidateTagName(""))
	assert.False(t, o.ValidateTagValue(""))
}
