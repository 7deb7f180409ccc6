package inflect

import (
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"sync"
)

// WordID identifies a lexicon entry.
type WordID int

// ClassID identifies a word class such as Gender.
type ClassID int

// ClassValueID identifies one value of a word class such as Masculine.
type ClassValueID int

// Word is the read-only snapshot of a lexicon entry the engine declines.
type Word struct {
	ID WordID
	// Value is the base (dictionary) form.
	Value        string
	PartOfSpeech PartOfSpeechID
	// Classes maps each assigned class to its value.
	Classes map[ClassID]ClassValueID
	// OverrideAutoGeneration makes stored overrides win over rules.
	OverrideAutoGeneration bool
}

// HasClassValue reports whether the word carries value v for class c.
func (w Word) HasClassValue(c ClassID, v ClassValueID) bool {
	got, ok := w.Classes[c]
	return ok && got == v
}

// fingerprint hashes everything about the word that generation reads, so
// cached forms die when the base value or class assignments change.
func (w Word) fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte(w.Value))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(int(w.PartOfSpeech))))
	classes := slices.Sorted(maps.Keys(w.Classes))
	for _, c := range classes {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(int(c))))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.Itoa(int(w.Classes[c]))))
	}
	return h.Sum64()
}

// clone copies the class map so the snapshot cannot be mutated by the owner.
func (w Word) clone() Word {
	w.Classes = maps.Clone(w.Classes)
	return w
}

// Lexicon is a minimal in-memory word store used by the binaries and by
// Lookup. It is safe for concurrent use.
type Lexicon struct {
	mu    sync.RWMutex
	words map[WordID]Word
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{words: make(map[WordID]Word)}
}

// Put inserts or replaces a word.
func (l *Lexicon) Put(w Word) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.words[w.ID] = w.clone()
}

// Delete removes a word.
func (l *Lexicon) Delete(id WordID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.words, id)
}

// Word returns a snapshot of the word with the given id.
func (l *Lexicon) Word(id WordID) (Word, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.words[id]
	if !ok {
		return Word{}, false
	}
	return w.clone(), true
}

// Words returns snapshots of all words ordered by id.
func (l *Lexicon) Words() []Word {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Word, 0, len(l.words))
	for _, w := range l.words {
		out = append(out, w.clone())
	}
	slices.SortFunc(out, func(a, b Word) int { return int(a.ID) - int(b.ID) })
	return out
}

// Len returns the number of words.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.words)
}
