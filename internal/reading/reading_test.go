package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeTagsOrderedByName(t *testing.T) {
	base := map[string]string{"zeta": "1", "alpha": "2"}
	override := map[string]string{"beta": "3"}

	tags := MergeTags(base, override)
	assert.Equal(t, Tags{{Name: "alpha", Value: "2"}, {Name: "beta", Value: "3"}, {Name: "zeta", Value: "1"}}, tags)
}

func TestMergeTagsOverrideWins(t *testing.T) {
	base := map[string]string{"host": "A"}
	override := map[string]string{"host": "B"}

	tags := MergeTags(base, override)
	assert.Equal(t, Tags{{Name: "host", Value: "B"}}, tags)
}

func TestNewTagsEmpty(t *testing.T) {
	assert.Nil(t, NewTags(nil))
	assert.Nil(t, NewTags(map[string]string{}))
}
