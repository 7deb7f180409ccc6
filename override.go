package inflect

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

type overrideEntry struct {
	pos   PartOfSpeechID
	value string
}

// OverrideStore holds hand-entered forms per word. Entries survive every
// rule and axis edit; they go away only when cleared. It is safe for
// concurrent use.
type OverrideStore struct {
	mu      sync.RWMutex
	entries map[WordID]map[CombinedKey]overrideEntry
}

// NewOverrideStore returns an empty store.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{entries: make(map[WordID]map[CombinedKey]overrideEntry)}
}

// Get returns the override of word at key.
func (s *OverrideStore) Get(word WordID, key CombinedKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[word][key]
	return e.value, ok
}

// Set stores value as the form of word at key.
func (s *OverrideStore) Set(word WordID, pos PartOfSpeechID, key CombinedKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[word]
	if !ok {
		m = make(map[CombinedKey]overrideEntry)
		s.entries[word] = m
	}
	m[key] = overrideEntry{pos: pos, value: value}
}

// Clear removes one override.
func (s *OverrideStore) Clear(word WordID, key CombinedKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries[word], key)
	if len(s.entries[word]) == 0 {
		delete(s.entries, word)
	}
}

// ClearWord removes every override of word.
func (s *OverrideStore) ClearWord(word WordID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, word)
}

// ForWord returns a copy of the overrides of word.
func (s *OverrideStore) ForWord(word WordID) map[CombinedKey]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[CombinedKey]string, len(s.entries[word]))
	for k, e := range s.entries[word] {
		out[k] = e.value
	}
	return out
}

// Words returns the ids of words having at least one override.
func (s *OverrideStore) Words() []WordID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.entries))
}

// appendUnset re-keys the overrides of words in pos after an axis was added.
func (s *OverrideStore) appendUnset(pos PartOfSpeechID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for word, m := range s.entries {
		next := make(map[CombinedKey]overrideEntry, len(m))
		for k, e := range m {
			if e.pos == pos {
				k = k.appendUnset()
			}
			next[k] = e
		}
		s.entries[word] = next
	}
}

// Override returns the stored form of word at key.
func (e *Engine) Override(word WordID, key CombinedKey) (string, bool) {
	return e.overrides.Get(word, key)
}

// Overrides returns all stored forms of word.
func (e *Engine) Overrides(word WordID) map[CombinedKey]string {
	return e.overrides.ForWord(word)
}

// SetOverride stores value as the form of word at key. The key must address
// a current form of the word's part of speech.
func (e *Engine) SetOverride(word Word, key CombinedKey, value string) error {
	p, err := e.part(word.PartOfSpeech)
	if err != nil {
		return err
	}
	if err := p.checkKey(key, false); err != nil {
		return err
	}
	e.overrides.Set(word.ID, word.PartOfSpeech, key, value)
	return nil
}

// ClearOverride removes the stored form of word at key.
func (e *Engine) ClearOverride(word WordID, key CombinedKey) {
	e.overrides.Clear(word, key)
}

// ClearOverrides drops every stored form and cached form of word, for use
// when the word is deleted.
func (e *Engine) ClearOverrides(word WordID) {
	e.overrides.ClearWord(word)
	e.cache.purgeWord(word)
}

// StaleOverrides returns overrides of word whose key no longer addresses a
// form of its part of speech.
func (e *Engine) StaleOverrides(word Word) (map[CombinedKey]string, error) {
	p, err := e.part(word.PartOfSpeech)
	if err != nil {
		return nil, fmt.Errorf("word %d: %w", word.ID, err)
	}
	out := make(map[CombinedKey]string)
	for k, v := range e.overrides.ForWord(word.ID) {
		if !p.isCurrentKey(k) {
			out[k] = v
		}
	}
	return out, nil
}
