package metric

import "go.uber.org/atomic"

// base holds the fields common to every primitive: identity, declared
// metadata, the metric's own fixed tags (bound once at construction, e.g.
// by a tagged family child), and whether the handle is attached to a
// source.
type base struct {
	name        string
	unit        string
	description string
	ownTags     map[string]string
	attached    atomic.Bool
}

func newBase(name, unit, description string, ownTags map[string]string) base {
	b := base{name: name, unit: unit, description: description, ownTags: ownTags}
	b.attached.Store(true)
	return b
}

func (b *base) Name() string              { return b.name }
func (b *base) Unit() string              { return b.unit }
func (b *base) Description() string       { return b.description }
func (b *base) OwnTags() map[string]string { return b.ownTags }
func (b *base) NotAttached() bool         { return !b.attached.Load() }
func (b *base) detach()                   { b.attached.Store(false) }

var oneEmptySuffix = []string{""}
