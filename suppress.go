package inflect

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// SuppressionTable records forms that are never generated, per part of
// speech. It is safe for concurrent use.
type SuppressionTable struct {
	mu   sync.RWMutex
	keys map[PartOfSpeechID]map[CombinedKey]struct{}
}

// NewSuppressionTable returns an empty table.
func NewSuppressionTable() *SuppressionTable {
	return &SuppressionTable{keys: make(map[PartOfSpeechID]map[CombinedKey]struct{})}
}

// IsSuppressed reports whether key is suppressed for pos.
func (t *SuppressionTable) IsSuppressed(pos PartOfSpeechID, key CombinedKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.keys[pos][key]
	return ok
}

// Set marks or unmarks key as suppressed.
func (t *SuppressionTable) Set(pos PartOfSpeechID, key CombinedKey, suppressed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !suppressed {
		delete(t.keys[pos], key)
		return
	}
	m, ok := t.keys[pos]
	if !ok {
		m = make(map[CombinedKey]struct{})
		t.keys[pos] = m
	}
	m[key] = struct{}{}
}

// Keys returns the suppressed keys of pos in sorted order.
func (t *SuppressionTable) Keys(pos PartOfSpeechID) []CombinedKey {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]CombinedKey, 0, len(t.keys[pos]))
	for k := range t.keys[pos] {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// appendUnset follows an axis being added to pos.
func (t *SuppressionTable) appendUnset(pos PartOfSpeechID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.keys[pos]
	if len(old) == 0 {
		return
	}
	m := make(map[CombinedKey]struct{}, len(old))
	for k := range old {
		m[k.appendUnset()] = struct{}{}
	}
	t.keys[pos] = m
}

func (t *SuppressionTable) dropPart(pos PartOfSpeechID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.keys, pos)
}

// IsSuppressed reports whether key is suppressed for pos.
func (e *Engine) IsSuppressed(pos PartOfSpeechID, key CombinedKey) bool {
	return e.suppressed.IsSuppressed(pos, key)
}

// SetSuppressed marks a form of pos as never generated (or lifts the mark).
func (e *Engine) SetSuppressed(pos PartOfSpeechID, key CombinedKey, suppressed bool) error {
	p, err := e.part(pos)
	if err != nil {
		return err
	}
	if suppressed {
		if err := p.checkKey(key, false); err != nil {
			return err
		}
	}
	e.suppressed.Set(pos, key, suppressed)
	e.log.Debug("suppression changed",
		zap.Int("pos", int(pos)),
		zap.String("key", string(key)),
		zap.Bool("suppressed", suppressed))
	return nil
}

// Suppressed returns the suppressed keys of pos.
func (e *Engine) Suppressed(pos PartOfSpeechID) []CombinedKey {
	return e.suppressed.Keys(pos)
}
