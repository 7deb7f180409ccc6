package inflect

import (
	"fmt"
	"slices"
)

// ClassFilter restricts a rule to words carrying one class value.
type ClassFilter struct {
	Class ClassID
	Value ClassValueID
}

// AllClasses is the wildcard filter: a rule carrying it applies to every
// word regardless of its other filters.
var AllClasses = ClassFilter{Class: -1, Value: -1}

// IsWildcard reports whether f is AllClasses.
func (f ClassFilter) IsWildcard() bool { return f == AllClasses }

// Rule generates one form of a part of speech from a word's base value.
type Rule struct {
	// ID is unique within the part of speech. Zero asks AddRule to pick one.
	ID           int
	PartOfSpeech PartOfSpeechID
	// Key is the form this rule produces.
	Key  CombinedKey
	Name string
	// Priority orders rules; lower runs first. Ties keep insertion order.
	Priority int
	// Pattern, when set, must match the whole base value.
	Pattern string
	// Filters are ANDed. Empty means no restriction.
	Filters []ClassFilter
	Steps   []TransformStep

	seq uint64
}

func (r Rule) clone() Rule {
	r.Filters = slices.Clone(r.Filters)
	r.Steps = slices.Clone(r.Steps)
	return r
}

// classesMatch applies the class filter half of Matches.
func (r Rule) classesMatch(w Word) bool {
	if len(r.Filters) == 0 {
		return true
	}
	for _, f := range r.Filters {
		if f.IsWildcard() {
			return true
		}
	}
	for _, f := range r.Filters {
		if !w.HasClassValue(f.Class, f.Value) {
			return false
		}
	}
	return true
}

// Matches reports whether rule applies to word: its class filters hold and,
// when the rule has a pattern, the pattern matches the whole base value.
func Matches(rule Rule, word Word) (bool, error) {
	return defaultEvaluator.Matches(rule, word)
}

// Matches is the package Matches using ev's pattern cache.
func (ev *Evaluator) Matches(rule Rule, word Word) (bool, error) {
	if !rule.classesMatch(word) {
		return false, nil
	}
	if rule.Pattern == "" {
		return true, nil
	}
	return ev.matchWhole(rule.ID, rule.Pattern, word.Value)
}

func sortRules(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
}

func ruleIndex(rules []Rule, id int) int {
	return slices.IndexFunc(rules, func(r Rule) bool { return r.ID == id })
}

// WordClass is a lexical class (Gender, Animacy) whose values rules filter on.
type WordClass struct {
	ID   ClassID
	Name string
	// PartsOfSpeech limits the class to some parts of speech; empty means all.
	PartsOfSpeech []PartOfSpeechID
	Values        []ClassValue
}

// ClassValue is one value of a word class.
type ClassValue struct {
	ID    ClassValueID
	Label string
}

func (c WordClass) appliesTo(pos PartOfSpeechID) bool {
	return len(c.PartsOfSpeech) == 0 || slices.Contains(c.PartsOfSpeech, pos)
}

func (c WordClass) value(id ClassValueID) (ClassValue, bool) {
	for _, v := range c.Values {
		if v.ID == id {
			return v, true
		}
	}
	return ClassValue{}, false
}

// DefineClass adds or replaces a word class.
func (e *Engine) DefineClass(c WordClass) {
	c.PartsOfSpeech = slices.Clone(c.PartsOfSpeech)
	c.Values = slices.Clone(c.Values)
	e.mu.Lock()
	e.classes[c.ID] = c
	e.mu.Unlock()
}

// Classes returns all word classes ordered by id.
func (e *Engine) Classes() []WordClass {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]WordClass, 0, len(e.classes))
	for _, c := range e.classes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b WordClass) int { return int(a.ID) - int(b.ID) })
	return out
}

// checkFilters must run with e.mu held.
func (e *Engine) checkFilters(pos PartOfSpeechID, filters []ClassFilter) error {
	for _, f := range filters {
		if f.IsWildcard() {
			continue
		}
		c, ok := e.classes[f.Class]
		if !ok || !c.appliesTo(pos) {
			return fmt.Errorf("class %d: %w", f.Class, ErrUnknownClass)
		}
		if _, ok := c.value(f.Value); !ok {
			return fmt.Errorf("class %d value %d: %w", f.Class, f.Value, ErrUnknownClass)
		}
	}
	return nil
}

// Rules returns the rules of a part of speech in evaluation order.
func (e *Engine) Rules(pos PartOfSpeechID) ([]Rule, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	out := make([]Rule, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.clone()
	}
	return out, nil
}

// RulesFor returns the rules producing key, in evaluation order.
func (e *Engine) RulesFor(pos PartOfSpeechID, key CombinedKey) ([]Rule, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	var out []Rule
	for _, r := range p.rules {
		if r.Key == key {
			out = append(out, r.clone())
		}
	}
	return out, nil
}

// AddRule inserts rule and returns its id. The key must address a current
// form and filters must name defined classes. Broken regexes are accepted
// and reported when the rule runs, or by CheckRules.
func (e *Engine) AddRule(rule Rule) (int, error) {
	return e.addRule(rule, false)
}

// AppendRule adds rule after every existing rule of its part of speech.
func (e *Engine) AppendRule(rule Rule) (int, error) {
	return e.addRule(rule, true)
}

func (e *Engine) addRule(rule Rule, last bool) (int, error) {
	var id int
	err := e.edit(rule.PartOfSpeech, func(p *partSnapshot) error {
		if err := p.checkKey(rule.Key, false); err != nil {
			return err
		}
		if err := e.checkFilters(rule.PartOfSpeech, rule.Filters); err != nil {
			return err
		}
		r := rule.clone()
		if last {
			r.Priority = 1
			if n := len(p.rules); n > 0 {
				r.Priority = p.rules[n-1].Priority + 1
			}
		}
		if r.ID == 0 {
			r.ID = nextRuleID(p.rules)
		} else if ruleIndex(p.rules, r.ID) >= 0 {
			return fmt.Errorf("rule %d already exists", r.ID)
		}
		e.ruleSeq++
		r.seq = e.ruleSeq
		p.rules = append(p.rules, r)
		sortRules(p.rules)
		id = r.ID
		return nil
	})
	return id, err
}

func nextRuleID(rules []Rule) int {
	id := 0
	for _, r := range rules {
		id = max(id, r.ID)
	}
	return id + 1
}

// UpdateRule replaces the rule with rule.ID, keeping its insertion order.
func (e *Engine) UpdateRule(rule Rule) error {
	return e.edit(rule.PartOfSpeech, func(p *partSnapshot) error {
		i := ruleIndex(p.rules, rule.ID)
		if i < 0 {
			return fmt.Errorf("rule %d: %w", rule.ID, ErrNotFound)
		}
		if err := p.checkKey(rule.Key, false); err != nil {
			return err
		}
		if err := e.checkFilters(rule.PartOfSpeech, rule.Filters); err != nil {
			return err
		}
		r := rule.clone()
		r.seq = p.rules[i].seq
		p.rules[i] = r
		sortRules(p.rules)
		return nil
	})
}

// DeleteRule removes a rule.
func (e *Engine) DeleteRule(pos PartOfSpeechID, id int) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := ruleIndex(p.rules, id)
		if i < 0 {
			return fmt.Errorf("rule %d: %w", id, ErrNotFound)
		}
		p.rules = slices.Delete(p.rules, i, i+1)
		return nil
	})
}

// MoveRuleUp swaps a rule with the one evaluated just before it.
func (e *Engine) MoveRuleUp(pos PartOfSpeechID, id int) error {
	return e.moveRule(pos, id, -1)
}

// MoveRuleDown swaps a rule with the one evaluated just after it.
func (e *Engine) MoveRuleDown(pos PartOfSpeechID, id int) error {
	return e.moveRule(pos, id, 1)
}

func (e *Engine) moveRule(pos PartOfSpeechID, id, dir int) error {
	return e.edit(pos, func(p *partSnapshot) error {
		i := ruleIndex(p.rules, id)
		if i < 0 {
			return fmt.Errorf("rule %d: %w", id, ErrNotFound)
		}
		j := i + dir
		if j < 0 || j >= len(p.rules) {
			return nil
		}
		a, b := &p.rules[i], &p.rules[j]
		a.Priority, b.Priority = b.Priority, a.Priority
		a.seq, b.seq = b.seq, a.seq
		p.rules[i], p.rules[j] = p.rules[j], p.rules[i]
		return nil
	})
}

// SmoothPriorities renumbers the rules 1..n in their current order.
func (e *Engine) SmoothPriorities(pos PartOfSpeechID) error {
	return e.edit(pos, func(p *partSnapshot) error {
		for i := range p.rules {
			p.rules[i].Priority = i + 1
		}
		return nil
	})
}

// StaleRules returns rules whose key no longer fits the axis layout, for
// example after an axis was removed.
func (e *Engine) StaleRules(pos PartOfSpeechID) ([]Rule, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	var out []Rule
	for _, r := range p.rules {
		if !p.isCurrentKey(r.Key) {
			out = append(out, r.clone())
		}
	}
	return out, nil
}

// CheckRules compiles every pattern of every rule of pos and returns the
// failures.
func (e *Engine) CheckRules(pos PartOfSpeechID) ([]error, error) {
	p, err := e.part(pos)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, r := range p.rules {
		if err := e.eval.Validate(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs, nil
}
