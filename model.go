package inflect

import (
	"fmt"
	"slices"
	"strings"
)

// PartOfSpeechID identifies a part of speech (noun, verb, ...).
type PartOfSpeechID int

// PartOfSpeech is a grammatical category owning a fixed, ordered set of
// dimension axes, a set of singleton forms and the rules generating them.
type PartOfSpeech struct {
	ID   PartOfSpeechID
	Name string
}

// DimensionValue is one discrete value of an axis, e.g. "Plural".
type DimensionValue struct {
	// ID is unique within the owning axis.
	ID    int
	Label string
}

// Axis is one inflectional category, e.g. Number or Tense.
type Axis struct {
	ID     int
	Label  string
	Values []DimensionValue
}

// Value returns the value with the given id.
func (a Axis) Value(id int) (DimensionValue, bool) {
	for _, v := range a.Values {
		if v.ID == id {
			return v, true
		}
	}
	return DimensionValue{}, false
}

// Singleton is a form that sits outside the axis grid (infinitive, gerund).
type Singleton struct {
	ID    int
	Label string
}

// KeyLabel pairs a combined key with its human readable name.
type KeyLabel struct {
	Key   CombinedKey
	Label string
}

// partSnapshot is the immutable state of one part of speech. Edits build a
// new snapshot and swap it in; readers never see a half-applied edit.
type partSnapshot struct {
	info       PartOfSpeech
	axes       []Axis
	singletons []Singleton
	// rules is kept sorted by priority, then insertion order.
	rules []Rule
	// version is unique across the engine and changes on every edit.
	version uint64
}

// clone returns a deep copy that is safe to mutate.
func (p *partSnapshot) clone() *partSnapshot {
	c := &partSnapshot{
		info:       p.info,
		axes:       make([]Axis, len(p.axes)),
		singletons: slices.Clone(p.singletons),
		rules:      make([]Rule, len(p.rules)),
	}
	for i, a := range p.axes {
		a.Values = slices.Clone(a.Values)
		c.axes[i] = a
	}
	for i, r := range p.rules {
		c.rules[i] = r.clone()
	}
	return c
}

// axisIndex returns the token position of an axis, or -1.
func (p *partSnapshot) axisIndex(axisID int) int {
	for i, a := range p.axes {
		if a.ID == axisID {
			return i
		}
	}
	return -1
}

func (p *partSnapshot) singleton(id int) (Singleton, bool) {
	for _, s := range p.singletons {
		if s.ID == id {
			return s, true
		}
	}
	return Singleton{}, false
}

// checkKey validates key against the axis layout. Unset tokens are allowed;
// X/Y markers are accepted only when allowMarkers is set.
func (p *partSnapshot) checkKey(key CombinedKey, allowMarkers bool) error {
	if id, ok := key.singletonID(); ok {
		if _, found := p.singleton(id); !found {
			return keyError(key, "no singleton form %d in part of speech %d", id, p.info.ID)
		}
		return nil
	}
	sel, err := DecodeKey(key)
	if err != nil {
		return err
	}
	return p.checkSelection(key, sel, allowMarkers)
}

func (p *partSnapshot) checkSelection(key CombinedKey, sel Selection, allowMarkers bool) error {
	if len(sel) != len(p.axes) {
		return keyError(key, "has %d tokens, part of speech %d has %d axes", len(sel), p.info.ID, len(p.axes))
	}
	for i, t := range sel {
		switch t.Kind {
		case TokenValue:
			if _, ok := p.axes[i].Value(t.Value); !ok {
				return keyError(key, "axis %q has no value %d", p.axes[i].Label, t.Value)
			}
		case TokenX, TokenY:
			if !allowMarkers {
				return keyError(key, "unresolved grid marker at position %d", i)
			}
		}
	}
	return nil
}

// label builds the display name of a key from its value labels.
func (p *partSnapshot) label(key CombinedKey) string {
	if id, ok := key.singletonID(); ok {
		if s, found := p.singleton(id); found {
			return s.Label
		}
		return ""
	}
	sel, err := DecodeKey(key)
	if err != nil {
		return ""
	}
	var parts []string
	for i, t := range sel {
		if i >= len(p.axes) || t.Kind != TokenValue {
			continue
		}
		if v, ok := p.axes[i].Value(t.Value); ok {
			parts = append(parts, v.Label)
		}
	}
	return strings.Join(parts, " ")
}

// dimensionalKeys enumerates the cartesian product of all axis values in
// axis order. A part of speech without axes has no dimensional forms.
func (p *partSnapshot) dimensionalKeys() []KeyLabel {
	if len(p.axes) == 0 {
		return nil
	}
	var out []KeyLabel
	sel := make(Selection, len(p.axes))
	var walk func(depth int, labels []string)
	walk = func(depth int, labels []string) {
		if depth == len(p.axes) {
			key := EncodeKey(sel)
			if err := p.checkSelection(key, sel, false); err != nil {
				panic(fmt.Sprintf("inflect: enumerated key rejected: %v", err))
			}
			out = append(out, KeyLabel{Key: key, Label: strings.Join(labels, " ")})
			return
		}
		for _, v := range p.axes[depth].Values {
			sel[depth] = Val(v.ID)
			walk(depth+1, append(labels, v.Label))
		}
	}
	walk(0, nil)
	return out
}

// allKeys returns dimensional keys followed by singleton keys.
func (p *partSnapshot) allKeys() []KeyLabel {
	out := p.dimensionalKeys()
	for _, s := range p.singletons {
		out = append(out, KeyLabel{Key: SingletonKey(s.ID), Label: s.Label})
	}
	return out
}

// isCurrentKey reports whether key addresses a form that exists under the
// current axis layout.
func (p *partSnapshot) isCurrentKey(key CombinedKey) bool {
	return p.checkKey(key, false) == nil
}
