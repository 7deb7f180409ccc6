// Package inflect generates the conjugated and declined forms of words.
//
// A language defines parts of speech. Each part of speech owns an ordered
// list of dimension axes (Number, Case, Tense...) whose value combinations
// address its forms through a CombinedKey, plus optional singleton forms
// outside the grid. Forms are produced by prioritised rules filtered on the
// word's classes, unless the form is suppressed or the word carries a
// hand-entered override.
//
// Usage:
//
//	e := inflect.New(inflect.WithLogger(logger))
//	if err := e.AddPartOfSpeech(inflect.PartOfSpeech{ID: 1, Name: "noun"}); err != nil { ... }
//	...
//	form, err := e.Decline(word, ",2,")
package inflect

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine holds the dimension model, rules, suppression table, overrides and
// generated-form cache of one language. All methods are safe for concurrent
// use; several engines may live in one process.
type Engine struct {
	mu      sync.RWMutex
	parts   map[PartOfSpeechID]*partSnapshot
	classes map[ClassID]WordClass
	version uint64
	ruleSeq uint64

	suppressed *SuppressionTable
	overrides  *OverrideStore
	cache      *formCache
	eval       *Evaluator
	log        *zap.Logger

	gridLimit int
}

type options struct {
	logger       *zap.Logger
	cacheSize    int
	regexTimeout time.Duration
	gridLimit    int
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger. The engine only logs at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCacheSize bounds the generated-form cache; n <= 0 disables it.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithRegexTimeout bounds a single regex match; 0 means no limit.
func WithRegexTimeout(d time.Duration) Option {
	return func(o *options) { o.regexTimeout = d }
}

// WithGridConcurrency bounds the goroutines Grid and Sheet use.
func WithGridConcurrency(n int) Option {
	return func(o *options) { o.gridLimit = n }
}

// New returns an empty engine.
func New(opts ...Option) *Engine {
	o := options{
		cacheSize:    4096,
		regexTimeout: time.Second,
		gridLimit:    8,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.gridLimit <= 0 {
		o.gridLimit = 1
	}
	return &Engine{
		parts:      make(map[PartOfSpeechID]*partSnapshot),
		classes:    make(map[ClassID]WordClass),
		suppressed: NewSuppressionTable(),
		overrides:  NewOverrideStore(),
		cache:      newFormCache(o.cacheSize),
		eval:       NewEvaluator(o.regexTimeout),
		log:        o.logger,
		gridLimit:  o.gridLimit,
	}
}

// Evaluator returns the transform evaluator used by the engine.
func (e *Engine) Evaluator() *Evaluator { return e.eval }

// CacheStats reports generated-form cache usage.
func (e *Engine) CacheStats() CacheStats { return e.cache.stats() }

// PurgeCache drops every generated form.
func (e *Engine) PurgeCache() { e.cache.purge() }

// part returns the current snapshot of pos.
func (e *Engine) part(pos PartOfSpeechID) (*partSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.parts[pos]
	if !ok {
		return nil, fmt.Errorf("part of speech %d: %w", pos, ErrUnknownPartOfSpeech)
	}
	return p, nil
}

// edit applies fn to a copy of the snapshot of pos and publishes it when fn
// succeeds. fn runs with e.mu held.
func (e *Engine) edit(pos PartOfSpeechID, fn func(*partSnapshot) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.parts[pos]
	if !ok {
		return fmt.Errorf("part of speech %d: %w", pos, ErrUnknownPartOfSpeech)
	}
	next := cur.clone()
	if err := fn(next); err != nil {
		return err
	}
	e.version++
	next.version = e.version
	e.parts[pos] = next
	e.log.Debug("part of speech updated", zap.Int("pos", int(pos)), zap.Uint64("version", next.version))
	return nil
}

// AddPartOfSpeech registers a part of speech with no axes.
func (e *Engine) AddPartOfSpeech(info PartOfSpeech) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.parts[info.ID]; ok {
		return fmt.Errorf("part of speech %d already exists", info.ID)
	}
	e.version++
	e.parts[info.ID] = &partSnapshot{info: info, version: e.version}
	return nil
}

// RemovePartOfSpeech drops a part of speech with its rules and suppression
// marks. Overrides stay with their words.
func (e *Engine) RemovePartOfSpeech(pos PartOfSpeechID) error {
	e.mu.Lock()
	if _, ok := e.parts[pos]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("part of speech %d: %w", pos, ErrUnknownPartOfSpeech)
	}
	delete(e.parts, pos)
	e.mu.Unlock()
	e.suppressed.dropPart(pos)
	return nil
}

// PartsOfSpeech lists the registered parts of speech ordered by id.
func (e *Engine) PartsOfSpeech() []PartOfSpeech {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]PartOfSpeech, 0, len(e.parts))
	for _, p := range e.parts {
		out = append(out, p.info)
	}
	slices.SortFunc(out, func(a, b PartOfSpeech) int { return int(a.ID) - int(b.ID) })
	return out
}

// Axes returns the axes of pos in token order.
func (e *Engine) Axes(pos PartOfSpeechID) ([]Axis, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	return p.clone().axes, nil
}

// Value returns one dimension value of pos.
func (e *Engine) Value(pos PartOfSpeechID, axisID, valueID int) (DimensionValue, error) {
	p, err := e.part(pos)
	if err != nil {
		return DimensionValue{}, err
	}
	i := p.axisIndex(axisID)
	if i < 0 {
		return DimensionValue{}, fmt.Errorf("axis %d: %w", axisID, ErrNotFound)
	}
	v, ok := p.axes[i].Value(valueID)
	if !ok {
		return DimensionValue{}, fmt.Errorf("axis %d value %d: %w", axisID, valueID, ErrNotFound)
	}
	return v, nil
}

// AddAxis appends an axis to pos. Every stored rule, suppression and
// override key of pos gains an unset token so it keeps addressing the same
// forms, now free along the new axis.
func (e *Engine) AddAxis(pos PartOfSpeechID, axis Axis) error {
	return e.edit(pos, func(p *partSnapshot) error {
		if p.axisIndex(axis.ID) >= 0 {
			return fmt.Errorf("axis %d already exists", axis.ID)
		}
		axis.Values = slices.Clone(axis.Values)
		p.axes = append(p.axes, axis)
		for i := range p.rules {
			p.rules[i].Key = p.rules[i].Key.appendUnset()
		}
		e.suppressed.appendUnset(pos)
		e.overrides.appendUnset(pos)
		return nil
	})
}

// RemoveAxis deletes an axis. Stored keys are not rewritten; the ones that
// no longer fit show up in StaleRules and StaleOverrides.
func (e *Engine) RemoveAxis(pos PartOfSpeechID, axisID int) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := p.axisIndex(axisID)
		if i < 0 {
			return fmt.Errorf("axis %d: %w", axisID, ErrNotFound)
		}
		p.axes = slices.Delete(p.axes, i, i+1)
		return nil
	})
}

// AddValue appends a value to an axis of pos.
func (e *Engine) AddValue(pos PartOfSpeechID, axisID int, v DimensionValue) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := p.axisIndex(axisID)
		if i < 0 {
			return fmt.Errorf("axis %d: %w", axisID, ErrNotFound)
		}
		if _, ok := p.axes[i].Value(v.ID); ok {
			return fmt.Errorf("axis %d value %d already exists", axisID, v.ID)
		}
		p.axes[i].Values = append(p.axes[i].Values, v)
		return nil
	})
}

// RemoveValue deletes a value from an axis of pos.
func (e *Engine) RemoveValue(pos PartOfSpeechID, axisID, valueID int) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := p.axisIndex(axisID)
		if i < 0 {
			return fmt.Errorf("axis %d: %w", axisID, ErrNotFound)
		}
		vals := p.axes[i].Values
		j := slices.IndexFunc(vals, func(v DimensionValue) bool { return v.ID == valueID })
		if j < 0 {
			return fmt.Errorf("axis %d value %d: %w", axisID, valueID, ErrNotFound)
		}
		p.axes[i].Values = slices.Delete(vals, j, j+1)
		return nil
	})
}

// AddSingleton registers a form outside the axis grid.
func (e *Engine) AddSingleton(pos PartOfSpeechID, s Singleton) error {
	return e.edit(pos, func(p *partSnapshot) error {
		if _, ok := p.singleton(s.ID); ok {
			return fmt.Errorf("singleton %d already exists", s.ID)
		}
		p.singletons = append(p.singletons, s)
		return nil
	})
}

// RemoveSingleton deletes a singleton form.
func (e *Engine) RemoveSingleton(pos PartOfSpeechID, id int) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := slices.IndexFunc(p.singletons, func(s Singleton) bool { return s.ID == id })
		if i < 0 {
			return fmt.Errorf("singleton %d: %w", id, ErrNotFound)
		}
		p.singletons = slices.Delete(p.singletons, i, i+1)
		return nil
	})
}

// Singletons returns the singleton forms of pos.
func (e *Engine) Singletons(pos PartOfSpeechID) ([]Singleton, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.singletons), nil
}

// Encode serializes sel for pos. Unset tokens and X/Y markers are allowed;
// the token count must equal the axis count.
func (e *Engine) Encode(pos PartOfSpeechID, sel Selection) (CombinedKey, error) {
	p, err := e.part(pos)
	if err != nil {
		return "", err
	}
	key := EncodeKey(sel)
	if err := p.checkSelection(key, sel, true); err != nil {
		return "", err
	}
	return key, nil
}

// Decode parses a dimensional key of pos.
func (e *Engine) Decode(pos PartOfSpeechID, key CombinedKey) (Selection, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	sel, err := DecodeKey(key)
	if err != nil {
		return nil, err
	}
	if err := p.checkSelection(key, sel, true); err != nil {
		return nil, err
	}
	return sel, nil
}

// Keys enumerates the forms of pos: every combination of axis values in axis
// order, then the singletons. Suppressed forms are left out unless
// includeSuppressed is set.
func (e *Engine) Keys(pos PartOfSpeechID, includeSuppressed bool) ([]KeyLabel, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	all := p.allKeys()
	if includeSuppressed {
		return all, nil
	}
	out := all[:0]
	for _, k := range all {
		if !e.suppressed.IsSuppressed(pos, k.Key) {
			out = append(out, k)
		}
	}
	return out, nil
}

// KeyLabel returns the display name of a form of pos.
func (e *Engine) KeyLabel(pos PartOfSpeechID, key CombinedKey) (string, error) {
	p, err := e.part(pos)
	if err != nil {
		return "", err
	}
	if err := p.checkKey(key, true); err != nil {
		return "", err
	}
	return p.label(key), nil
}
