package inflect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func pluralS() Rule {
	return Rule{
		PartOfSpeech: posNoun,
		Key:          pluralKey(),
		Name:         "plural -s",
		Priority:     0,
		Steps:        []TransformStep{{Kind: StepRegex, Pattern: "$", Text: "s"}},
	}
}

func TestDeclineScenarios(t *testing.T) {
	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}

	t.Run("A plural rule", func(t *testing.T) {
		e := newNounEngine(t)
		_, err := e.AddRule(pluralS())
		require.NoError(t, err)

		got, err := e.Decline(cat, pluralKey())
		require.NoError(t, err)
		assert.Equal(t, "cats", got)
	})

	t.Run("B suppressed", func(t *testing.T) {
		e := newNounEngine(t)
		_, err := e.AddRule(pluralS())
		require.NoError(t, err)
		require.NoError(t, e.SetSuppressed(posNoun, pluralKey(), true))

		got, err := e.Decline(cat, pluralKey())
		assert.Empty(t, got)
		assert.ErrorIs(t, err, ErrSuppressed)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("C override", func(t *testing.T) {
		e := newNounEngine(t)
		_, err := e.AddRule(pluralS())
		require.NoError(t, err)
		w := cat
		w.OverrideAutoGeneration = true
		require.NoError(t, e.SetOverride(w, pluralKey(), "catten"))

		got, err := e.Decline(w, pluralKey())
		require.NoError(t, err)
		assert.Equal(t, "catten", got)
	})

	t.Run("D first match wins", func(t *testing.T) {
		e := newNounEngine(t)
		_, err := e.AddRule(Rule{
			PartOfSpeech: posNoun, Key: pluralKey(), Priority: 0,
			Filters: []ClassFilter{{Class: classGender, Value: masculine}},
			Steps:   []TransformStep{{Kind: StepSuffix, Text: "us"}},
		})
		require.NoError(t, err)
		_, err = e.AddRule(Rule{
			PartOfSpeech: posNoun, Key: pluralKey(), Priority: 1,
			Steps: []TransformStep{{Kind: StepSuffix, Text: "a"}},
		})
		require.NoError(t, err)

		amic := Word{ID: 2, Value: "amic", PartOfSpeech: posNoun, Classes: map[ClassID]ClassValueID{classGender: masculine}}
		got, err := e.Decline(amic, pluralKey())
		require.NoError(t, err)
		assert.Equal(t, "amicus", got)
	})

	t.Run("E no applicable rule", func(t *testing.T) {
		e := newNounEngine(t)
		_, err := e.AddRule(Rule{
			PartOfSpeech: posNoun, Key: pluralKey(),
			Filters: []ClassFilter{{Class: classGender, Value: masculine}},
			Steps:   []TransformStep{{Kind: StepSuffix, Text: "us"}},
		})
		require.NoError(t, err)

		rosa := Word{ID: 3, Value: "rosa", PartOfSpeech: posNoun, Classes: map[ClassID]ClassValueID{classGender: feminine}}
		_, err = e.Decline(rosa, pluralKey())
		assert.ErrorIs(t, err, ErrNoApplicableRule)

		var de *DeclensionError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, rosa.ID, de.WordID)
		assert.Equal(t, pluralKey(), de.Key)
	})
}

func TestDeclineDeterministic(t *testing.T) {
	e := newNounEngine(t)
	_, err := e.AddRule(pluralS())
	require.NoError(t, err)
	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}

	first, err := e.Decline(cat, pluralKey())
	require.NoError(t, err)
	for range 10 {
		got, err := e.Decline(cat, pluralKey())
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
	stats := e.CacheStats()
	assert.Equal(t, uint64(10), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestOverridePrecedence(t *testing.T) {
	e := newNounEngine(t)
	ox := Word{ID: 4, Value: "ox", PartOfSpeech: posNoun, OverrideAutoGeneration: true}

	// No rule at all: the override still answers.
	require.NoError(t, e.SetOverride(ox, pluralKey(), "oxen"))
	got, err := e.Decline(ox, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "oxen", got)

	// Suppression does not hide an override.
	require.NoError(t, e.SetSuppressed(posNoun, pluralKey(), true))
	got, err = e.Decline(ox, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "oxen", got)

	// Without the word flag the override is ignored.
	ox.OverrideAutoGeneration = false
	_, err = e.Decline(ox, pluralKey())
	assert.ErrorIs(t, err, ErrSuppressed)

	require.NoError(t, e.SetSuppressed(posNoun, pluralKey(), false))
	_, err = e.Decline(ox, pluralKey())
	assert.ErrorIs(t, err, ErrNoApplicableRule)

	ox.OverrideAutoGeneration = true
	e.ClearOverride(ox.ID, pluralKey())
	_, err = e.Decline(ox, pluralKey())
	assert.ErrorIs(t, err, ErrNoApplicableRule)
}

func TestDeclineRejectsBadInput(t *testing.T) {
	e := newNounEngine(t)
	_, err := e.AddRule(pluralS())
	require.NoError(t, err)
	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}

	for _, key := range []CombinedKey{",2,1,", ",", ",9,", ",X,", "12", "garbage"} {
		t.Run(string(key), func(t *testing.T) {
			_, err := e.Decline(cat, key)
			assert.ErrorIs(t, err, ErrMalformedKey)
		})
	}

	_, err = e.Decline(Word{ID: 9, Value: "x", PartOfSpeech: 42}, pluralKey())
	assert.ErrorIs(t, err, ErrUnknownPartOfSpeech)
}

func TestDeclineInvalidPattern(t *testing.T) {
	e := newNounEngine(t)
	id, err := e.AddRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(),
		Steps: []TransformStep{{Kind: StepAppend, Text: "s"}, {Kind: StepRegex, Pattern: "(", Text: ""}},
	})
	require.NoError(t, err)

	_, err = e.Decline(Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}, pluralKey())
	assert.ErrorIs(t, err, ErrInvalidPattern)
	var ipe *InvalidPatternError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, id, ipe.RuleID)
	assert.Equal(t, 1, ipe.Step)

	errs, err := e.CheckRules(posNoun)
	require.NoError(t, err)
	assert.Len(t, errs, 1)
}

func TestDeclineWordPattern(t *testing.T) {
	e := newNounEngine(t)
	_, err := e.AddRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(), Priority: 0, Pattern: ".*[^aeiou]y",
		Steps: []TransformStep{{Kind: StepSuffix, Pattern: "y", Text: "ies"}},
	})
	require.NoError(t, err)
	_, err = e.AddRule(pluralS())
	require.NoError(t, err)

	// pluralS has priority 0 too; it was added later so it runs second.
	got, err := e.Decline(Word{ID: 1, Value: "city", PartOfSpeech: posNoun}, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "cities", got)

	got, err = e.Decline(Word{ID: 2, Value: "day", PartOfSpeech: posNoun}, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "days", got)

	// The pattern must match the whole word, not a part of it.
	got, err = e.Decline(Word{ID: 3, Value: "cityscape", PartOfSpeech: posNoun}, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "cityscapes", got)
}

func TestCacheInvalidation(t *testing.T) {
	e := newNounEngine(t)
	id, err := e.AddRule(pluralS())
	require.NoError(t, err)
	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}

	got, err := e.Decline(cat, pluralKey())
	require.NoError(t, err)
	require.Equal(t, "cats", got)

	// Rule edits bump the part of speech version.
	r := pluralS()
	r.ID = id
	r.Steps = []TransformStep{{Kind: StepAppend, Text: "z"}}
	require.NoError(t, e.UpdateRule(r))
	got, err = e.Decline(cat, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "catz", got)

	// A changed base value changes the word fingerprint.
	cat.Value = "dog"
	got, err = e.Decline(cat, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "dogz", got)

	// So does a class change.
	_, err = e.AddRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(), Priority: -1,
		Filters: []ClassFilter{{Class: classGender, Value: feminine}},
		Steps:   []TransformStep{{Kind: StepAppend, Text: "a"}},
	})
	require.NoError(t, err)
	got, err = e.Decline(cat, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "dogz", got)
	cat.Classes = map[ClassID]ClassValueID{classGender: feminine}
	got, err = e.Decline(cat, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "doga", got)
}

func TestDeclineDuringEdits(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newNounEngine(t, WithRegexTimeout(0))
	base, err := e.AddRule(pluralS())
	require.NoError(t, err)
	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}
	forms := map[string]bool{"cats": true, "cates": true, "catz": true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				got, err := e.Decline(cat, pluralKey())
				switch {
				case errors.Is(err, ErrSuppressed), errors.Is(err, ErrMalformedKey):
				case err != nil:
					return err
				case !forms[got]:
					return fmt.Errorf("declined to %q", got)
				}
			}
			return nil
		})
	}

	for i := 0; i < 100; i++ {
		id, err := e.AddRule(Rule{
			PartOfSpeech: posNoun, Key: pluralKey(), Priority: 1,
			Steps: []TransformStep{{Kind: StepAppend, Text: "es"}},
		})
		require.NoError(t, err)
		require.NoError(t, e.MoveRuleUp(posNoun, id))
		require.NoError(t, e.MoveRuleDown(posNoun, id))
		r := pluralS()
		r.ID = base
		if i%2 == 0 {
			r.Steps = []TransformStep{{Kind: StepAppend, Text: "z"}}
		}
		require.NoError(t, e.UpdateRule(r))
		require.NoError(t, e.SetSuppressed(posNoun, pluralKey(), i%3 == 0))
		require.NoError(t, e.DeleteRule(posNoun, id))
		require.NoError(t, e.AddValue(posNoun, axisNumber, DimensionValue{ID: 100 + i, Label: fmt.Sprint("Extra ", i)}))
	}
	// A new axis makes the one-axis key malformed for every later reader.
	addCaseAxis(t, e)

	cancel()
	require.NoError(t, g.Wait())
}

func TestDeclineWithoutCache(t *testing.T) {
	e := newNounEngine(t, WithCacheSize(0))
	_, err := e.AddRule(pluralS())
	require.NoError(t, err)
	got, err := e.Decline(Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "cats", got)
	assert.Equal(t, CacheStats{}, e.CacheStats())
}

func TestGrid(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newNounEngine(t, WithGridConcurrency(2), WithRegexTimeout(0))
	addCaseAxis(t, e)
	require.NoError(t, e.AddSingleton(posNoun, Singleton{ID: gerund, Label: "Gerund"}))
	for _, r := range []Rule{
		{Key: ",1,1,", Steps: nil},
		{Key: ",1,2,", Steps: []TransformStep{{Kind: StepAppend, Text: "'s"}}},
		{Key: ",2,1,", Steps: []TransformStep{{Kind: StepAppend, Text: "s"}}},
		{Key: ",2,2,", Steps: []TransformStep{{Kind: StepAppend, Text: "s'"}}},
	} {
		r.PartOfSpeech = posNoun
		_, err := e.AddRule(r)
		require.NoError(t, err)
	}
	require.NoError(t, e.SetSuppressed(posNoun, ",2,2,", true))

	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun, OverrideAutoGeneration: true}
	require.NoError(t, e.SetOverride(cat, ",1,2,", "cat's (archaic)"))

	table, err := e.Grid(context.Background(), cat)
	require.NoError(t, err)
	require.Len(t, table.Cells, 4)

	assert.Equal(t, map[CombinedKey]string{
		",1,1,": "cat",
		",1,2,": "cat's (archaic)",
		",2,1,": "cats",
	}, table.Forms())

	c, ok := table.Cell(",1,2,")
	require.True(t, ok)
	assert.Equal(t, SourceOverride, c.Source)
	assert.Equal(t, "Singular Genitive", c.Label)

	c, ok = table.Cell(SingletonKey(gerund))
	require.True(t, ok)
	assert.ErrorIs(t, c.Err, ErrNoApplicableRule)

	_, ok = table.Cell(",2,2,")
	assert.False(t, ok)
}

func TestGridCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newNounEngine(t, WithRegexTimeout(0))
	_, err := e.AddRule(pluralS())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Grid(ctx, Word{ID: 1, Value: "cat", PartOfSpeech: posNoun})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSheet(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newNounEngine(t, WithRegexTimeout(0))
	addCaseAxis(t, e)
	for _, r := range []Rule{
		{Key: ",1,1,"},
		{Key: ",1,2,", Steps: []TransformStep{{Kind: StepAppend, Text: "'s"}}},
		{Key: ",2,1,", Steps: []TransformStep{{Kind: StepAppend, Text: "s"}}},
		{Key: ",2,2,", Steps: []TransformStep{{Kind: StepAppend, Text: "s'"}}},
	} {
		r.PartOfSpeech = posNoun
		_, err := e.AddRule(r)
		require.NoError(t, err)
	}
	require.NoError(t, e.SetSuppressed(posNoun, ",2,2,", true))

	partial, err := e.SheetKey(posNoun, axisNumber, axisCase, nil)
	require.NoError(t, err)
	assert.Equal(t, CombinedKey(",X,Y,"), partial)

	cat := Word{ID: 1, Value: "cat", PartOfSpeech: posNoun}
	s, err := e.Sheet(context.Background(), cat, partial)
	require.NoError(t, err)
	require.Len(t, s.Rows, 2)
	require.Len(t, s.Columns, 2)

	assert.Equal(t, "cat", s.Cells[0][0].Value)
	assert.Equal(t, "cats", s.Cells[0][1].Value)
	assert.Equal(t, "cat's", s.Cells[1][0].Value)
	assert.ErrorIs(t, s.Cells[1][1].Err, ErrSuppressed)

	// Editing the sheet headers leaves the engine's axes alone.
	s.Columns[0].Label = "Changed"
	s.Rows[0].Label = "Changed"
	axes, err := e.Axes(posNoun)
	require.NoError(t, err)
	assert.Equal(t, "Singular", axes[0].Values[0].Label)
	assert.Equal(t, "Nominative", axes[1].Values[0].Label)

	// One axis fixed, single row.
	partial, err = e.SheetKey(posNoun, axisNumber, -1, map[int]int{axisCase: genitive})
	require.NoError(t, err)
	assert.Equal(t, CombinedKey(",X,2,"), partial)
	s, err = e.Sheet(context.Background(), cat, partial)
	require.NoError(t, err)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "cat's", s.Cells[0][0].Value)

	_, err = e.Sheet(context.Background(), cat, ",1,2,")
	assert.ErrorIs(t, err, ErrMalformedKey)
	_, err = e.Sheet(context.Background(), cat, ",X,X,")
	assert.ErrorIs(t, err, ErrMalformedKey)
	_, err = e.SheetKey(posNoun, axisNumber, axisNumber, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExplain(t *testing.T) {
	e := newNounEngine(t)
	_, err := e.AddRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(), Name: "masculine", Priority: 0,
		Filters: []ClassFilter{{Class: classGender, Value: masculine}},
		Steps:   []TransformStep{{Kind: StepSuffix, Text: "us"}},
	})
	require.NoError(t, err)
	_, err = e.AddRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(), Name: "consonant", Priority: 1, Pattern: ".*[^aeiou]",
		Steps: []TransformStep{{Kind: StepAppend, Text: "es"}},
	})
	require.NoError(t, err)
	fallback, err := e.AppendRule(Rule{
		PartOfSpeech: posNoun, Key: pluralKey(), Name: "default",
		Steps: []TransformStep{{Kind: StepAppend, Text: "s"}},
	})
	require.NoError(t, err)

	x, err := e.Explain(Word{ID: 1, Value: "rosa", PartOfSpeech: posNoun}, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, "rosas", x.Result)
	assert.Equal(t, fallback, x.AppliedRule)
	require.Len(t, x.Considered, 3)
	assert.Equal(t, "class filters do not match", x.Considered[0].Reason)
	assert.False(t, x.Considered[1].Matched)
	assert.True(t, x.Considered[2].Matched)
	require.Len(t, x.Steps, 1)
	assert.Equal(t, "Plural", x.Label)

	ox := Word{ID: 2, Value: "ox", PartOfSpeech: posNoun, OverrideAutoGeneration: true}
	require.NoError(t, e.SetOverride(ox, pluralKey(), "oxen"))
	x, err = e.Explain(ox, pluralKey())
	require.NoError(t, err)
	assert.Equal(t, SourceOverride, x.Source)
	assert.Equal(t, "oxen", x.Result)
	assert.Empty(t, x.Considered)

	require.NoError(t, e.SetSuppressed(posNoun, pluralKey(), true))
	ox.OverrideAutoGeneration = false
	x, err = e.Explain(ox, pluralKey())
	require.NoError(t, err)
	assert.True(t, x.Suppressed)
	require.NotNil(t, x.Override)
	assert.ErrorIs(t, x.Err, ErrSuppressed)

	_, err = e.Explain(ox, ",7,")
	assert.ErrorIs(t, err, ErrMalformedKey)
}
