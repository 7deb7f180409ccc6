package inflect

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Decline produces the form of word at key.
//
// A suppressed key fails with ErrSuppressed unless the word lets overrides
// win and has one for key. Otherwise an override wins when the word allows
// it, and failing that the first rule for key whose filters and pattern
// match the word is applied to its base value. Every error is a
// *DeclensionError.
func (e *Engine) Decline(word Word, key CombinedKey) (string, error) {
	v, _, _, err := e.decline(word, key)
	if err != nil {
		return "", &DeclensionError{WordID: word.ID, Key: key, Err: err}
	}
	return v, nil
}

func (e *Engine) decline(w Word, key CombinedKey) (string, Source, int, error) {
	p, err := e.part(w.PartOfSpeech)
	if err != nil {
		return "", 0, 0, err
	}
	if err := p.checkKey(key, false); err != nil {
		return "", 0, 0, err
	}

	if w.OverrideAutoGeneration {
		if v, ok := e.overrides.Get(w.ID, key); ok {
			return v, SourceOverride, 0, nil
		}
	}
	if e.suppressed.IsSuppressed(w.PartOfSpeech, key) {
		return "", 0, 0, ErrSuppressed
	}

	if f, ok := e.cache.get(w, key, p.version); ok {
		return f.value, SourceRule, f.ruleID, nil
	}

	for _, r := range p.rules {
		if r.Key != key {
			continue
		}
		ok, err := e.eval.Matches(r, w)
		if err != nil {
			return "", 0, 0, err
		}
		if !ok {
			continue
		}
		v, err := e.eval.Apply(r, w.Value)
		if err != nil {
			return "", 0, 0, err
		}
		e.cache.put(w, key, p.version, r.ID, v)
		e.log.Debug("form generated",
			zap.Int("word", int(w.ID)),
			zap.String("key", string(key)),
			zap.Int("rule", r.ID))
		return v, SourceRule, r.ID, nil
	}
	return "", 0, 0, ErrNoApplicableRule
}

// Grid declines word at every non-suppressed form of its part of speech.
// Cells are computed concurrently; a failing cell carries its error and does
// not stop the others.
func (e *Engine) Grid(ctx context.Context, word Word) (*InflectionTable, error) {
	keys, err := e.Keys(word.PartOfSpeech, false)
	if err != nil {
		return nil, err
	}
	cells := make([]Cell, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.gridLimit)
	for i, k := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cells[i] = e.cell(word, k.Key, k.Label)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &InflectionTable{Word: word.clone(), Cells: cells}, nil
}

func (e *Engine) cell(w Word, key CombinedKey, label string) Cell {
	v, src, rid, err := e.decline(w, key)
	c := Cell{Key: key, Label: label, Value: v, Source: src, RuleID: rid}
	if err != nil {
		c.Err = &DeclensionError{WordID: w.ID, Key: key, Err: err}
	}
	return c
}

// SheetKey builds the partial key of a two-axis view of pos. xAxis runs
// across columns, yAxis (or -1 for a single row) down rows, and fixed pins
// other axes to a value. Axes left out stay unset.
func (e *Engine) SheetKey(pos PartOfSpeechID, xAxis, yAxis int, fixed map[int]int) (CombinedKey, error) {
	p, err := e.part(pos)
	if err != nil {
		return "", err
	}
	sel := make(Selection, len(p.axes))
	for i := range sel {
		sel[i] = Unset()
	}
	for axisID, v := range fixed {
		i := p.axisIndex(axisID)
		if i < 0 {
			return "", fmt.Errorf("axis %d: %w", axisID, ErrNotFound)
		}
		sel[i] = Val(v)
	}
	xi := p.axisIndex(xAxis)
	if xi < 0 {
		return "", fmt.Errorf("axis %d: %w", xAxis, ErrNotFound)
	}
	sel[xi] = Token{Kind: TokenX}
	if yAxis >= 0 {
		yi := p.axisIndex(yAxis)
		if yi < 0 || yi == xi {
			return "", fmt.Errorf("axis %d: %w", yAxis, ErrNotFound)
		}
		sel[yi] = Token{Kind: TokenY}
	}
	key := EncodeKey(sel)
	if err := p.checkSelection(key, sel, true); err != nil {
		return "", err
	}
	return key, nil
}

// Sheet expands a partial key holding one X marker and at most one Y marker
// into a matrix of forms. Suppressed cells carry ErrSuppressed.
func (e *Engine) Sheet(ctx context.Context, word Word, partial CombinedKey) (*Sheet, error) {
	p, err := e.part(word.PartOfSpeech)
	if err != nil {
		return nil, err
	}
	sel, err := DecodeKey(partial)
	if err != nil {
		return nil, err
	}
	if err := p.checkSelection(partial, sel, true); err != nil {
		return nil, err
	}
	xi, yi := -1, -1
	for i, t := range sel {
		switch t.Kind {
		case TokenX:
			if xi >= 0 {
				return nil, keyError(partial, "more than one X marker")
			}
			xi = i
		case TokenY:
			if yi >= 0 {
				return nil, keyError(partial, "more than one Y marker")
			}
			yi = i
		}
	}
	if xi < 0 {
		return nil, keyError(partial, "no X marker")
	}

	s := &Sheet{
		Word:    word.clone(),
		Partial: partial,
		Columns: slices.Clone(p.axes[xi].Values),
		Rows:    []DimensionValue{{ID: -1}},
	}
	if yi >= 0 {
		s.Rows = slices.Clone(p.axes[yi].Values)
	}
	s.Cells = make([][]Cell, len(s.Rows))
	for r := range s.Cells {
		s.Cells[r] = make([]Cell, len(s.Columns))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.gridLimit)
	for r, row := range s.Rows {
		for c, col := range s.Columns {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				key, err := ResolveMarkers(partial, col.ID, row.ID)
				if err != nil {
					return err
				}
				s.Cells[r][c] = e.cell(word, key, p.label(key))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// Explain declines word at key and reports every decision taken on the way.
// Only an unknown part of speech or a malformed key fail the call; any other
// outcome is recorded in the explanation. The cache is bypassed.
func (e *Engine) Explain(word Word, key CombinedKey) (*Explanation, error) {
	p, err := e.part(word.PartOfSpeech)
	if err != nil {
		return nil, err
	}
	if err := p.checkKey(key, false); err != nil {
		return nil, err
	}

	x := &Explanation{
		Word:       word.clone(),
		Key:        key,
		Label:      p.label(key),
		Suppressed: e.suppressed.IsSuppressed(word.PartOfSpeech, key),
	}
	if v, ok := e.overrides.Get(word.ID, key); ok {
		x.Override = &v
		if word.OverrideAutoGeneration {
			x.Source = SourceOverride
			x.Result = v
			return x, nil
		}
	}
	if x.Suppressed {
		x.Err = ErrSuppressed
		return x, nil
	}

	for _, r := range p.rules {
		if r.Key != key {
			continue
		}
		check := RuleCheck{RuleID: r.ID, Name: r.Name, Priority: r.Priority}
		switch {
		case !r.classesMatch(word):
			check.Reason = "class filters do not match"
		case r.Pattern != "":
			ok, err := e.eval.Matches(r, word)
			if err != nil {
				check.Reason = err.Error()
				x.Considered = append(x.Considered, check)
				x.Err = err
				return x, nil
			}
			if !ok {
				check.Reason = fmt.Sprintf("word does not match %q", r.Pattern)
			} else {
				check.Matched = true
			}
		default:
			check.Matched = true
		}
		x.Considered = append(x.Considered, check)
		if !check.Matched {
			continue
		}
		x.AppliedRule = r.ID
		x.Source = SourceRule
		x.Result, x.Steps, x.Err = e.eval.Trace(r, word.Value)
		return x, nil
	}
	x.Err = ErrNoApplicableRule
	return x, nil
}
