package inflect

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySteps(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		steps []TransformStep
		want  string
	}{
		{
			name:  "append",
			base:  "cat",
			steps: []TransformStep{{Kind: StepAppend, Text: "s"}},
			want:  "cats",
		},
		{
			name:  "regex end anchor",
			base:  "cat",
			steps: []TransformStep{{Kind: StepRegex, Pattern: "$", Text: "s"}},
			want:  "cats",
		},
		{
			name:  "prefix strips literal",
			base:  "unhappy",
			steps: []TransformStep{{Kind: StepPrefix, Pattern: "un", Text: "in"}},
			want:  "inhappy",
		},
		{
			name:  "prefix without literal",
			base:  "happy",
			steps: []TransformStep{{Kind: StepPrefix, Pattern: "un", Text: "ge"}},
			want:  "gehappy",
		},
		{
			name:  "suffix strips literal",
			base:  "amicus",
			steps: []TransformStep{{Kind: StepSuffix, Pattern: "us", Text: "i"}},
			want:  "amici",
		},
		{
			name:  "backreference",
			base:  "stop",
			steps: []TransformStep{{Kind: StepRegex, Pattern: "([^aeiou])$", Text: "$1$1ed"}},
			want:  "stopped",
		},
		{
			name:  "lookbehind",
			base:  "baby",
			steps: []TransformStep{{Kind: StepRegex, Pattern: "(?<=[^aeiou])y$", Text: "ies"}},
			want:  "babies",
		},
		{
			name: "steps run in order",
			base: "city",
			steps: []TransformStep{
				{Kind: StepSuffix, Pattern: "y", Text: "i"},
				{Kind: StepAppend, Text: "es"},
			},
			want: "cities",
		},
		{
			name: "guard skips step",
			base: "boy",
			steps: []TransformStep{
				{Kind: StepSuffix, Pattern: "y", Text: "ies", Guard: "[^aeiou]y$"},
				{Kind: StepAppend, Text: "s", Guard: "[aeiou]y$"},
			},
			want: "boys",
		},
		{
			name:  "no steps",
			base:  "sheep",
			steps: nil,
			want:  "sheep",
		},
		{
			name:  "empty base passes through",
			base:  "",
			steps: []TransformStep{{Kind: StepRegex, Pattern: "x", Text: "y"}},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(Rule{ID: 1, Steps: tt.steps}, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceModes(t *testing.T) {
	tests := []struct {
		mode    ReplaceMode
		pattern string
		text    string
		base    string
		want    string
	}{
		{ReplaceAll, "a", "o", "banana", "bonono"},
		{ReplaceFirst, "a", "o", "banana", "bonana"},
		{ReplaceFirstAndMiddle, "a", "o", "banana", "bonona"},
		{ReplaceMiddle, "a", "o", "banana", "banona"},
		{ReplaceMiddleAndLast, "a", "o", "banana", "banono"},
		{ReplaceLast, "a", "o", "banana", "banano"},
		// A lone match is both first and last, never middle.
		{ReplaceFirst, "a", "o", "cat", "cot"},
		{ReplaceLast, "a", "o", "cat", "cot"},
		{ReplaceMiddle, "a", "o", "cat", "cat"},
		{ReplaceLast, "a", "o", "dog", "dog"},
		// Matches are taken from the input, not from text already replaced.
		{ReplaceFirstAndMiddle, "[ab]c?", "c", "abb", "ccb"},
		{ReplaceFirstAndMiddle, "a(?=a)", "X", "aaaa", "XXaa"},
		{ReplaceMiddleAndLast, "a(?=a)", "X", "aaaa", "aXXa"},
		{ReplaceLast, "(a)(b)", "$2$1", "abab", "abba"},
		{ReplaceFirst, "(?<=b)a", "o", "aaba", "aabo"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.pattern+"/"+tt.base, func(t *testing.T) {
			rule := Rule{ID: 1, Steps: []TransformStep{{Kind: StepRegex, Pattern: tt.pattern, Text: tt.text, Mode: tt.mode}}}
			got, err := Apply(rule, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceModeMultibyte(t *testing.T) {
	rule := Rule{ID: 1, Steps: []TransformStep{{Kind: StepRegex, Pattern: "ä", Text: "a", Mode: ReplaceLast}}}
	got, err := Apply(rule, "äöäöä")
	require.NoError(t, err)
	assert.Equal(t, "äöäöa", got)
}

func TestApplyInvalidPattern(t *testing.T) {
	tests := []struct {
		name    string
		step    TransformStep
		pattern string
	}{
		{"step pattern", TransformStep{Kind: StepRegex, Pattern: "(unclosed", Text: "x"}, "(unclosed"},
		{"guard", TransformStep{Kind: StepAppend, Text: "x", Guard: "[z-a]"}, "[z-a]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{ID: 7, Steps: []TransformStep{{Kind: StepAppend, Text: "ok"}, tt.step}}
			got, err := Apply(rule, "word")
			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, ErrInvalidPattern)

			var ipe *InvalidPatternError
			require.True(t, errors.As(err, &ipe))
			assert.Equal(t, 7, ipe.RuleID)
			assert.Equal(t, 1, ipe.Step)
			assert.Equal(t, tt.pattern, ipe.Pattern)
		})
	}
}

func TestApplyTimeout(t *testing.T) {
	ev := NewEvaluator(10 * time.Millisecond)
	rule := Rule{ID: 3, Steps: []TransformStep{{Kind: StepRegex, Pattern: "(a+)+$", Text: "b"}}}
	_, err := ev.Apply(rule, strings.Repeat("a", 32)+"!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransform)

	var te *TransformError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.RuleID)
	assert.Equal(t, 0, te.Step)
}

func TestTrace(t *testing.T) {
	ev := NewEvaluator(time.Second)
	rule := Rule{ID: 1, Steps: []TransformStep{
		{Kind: StepAppend, Text: "x", Guard: "^z"},
		{Kind: StepSuffix, Pattern: "y", Text: "ies"},
	}}
	got, steps, err := ev.Trace(rule, "city")
	require.NoError(t, err)
	assert.Equal(t, "cities", got)
	assert.Equal(t, []StepTrace{
		{Index: 0, Kind: StepAppend, Skipped: true, Before: "city", After: "city"},
		{Index: 1, Kind: StepSuffix, Before: "city", After: "cities"},
	}, steps)
}

func TestValidate(t *testing.T) {
	ev := NewEvaluator(time.Second)
	assert.NoError(t, ev.Validate(Rule{ID: 1, Pattern: ".*us", Steps: []TransformStep{{Kind: StepRegex, Pattern: "us$", Text: "i"}}}))

	err := ev.Validate(Rule{ID: 2, Pattern: "(", Steps: nil})
	var ipe *InvalidPatternError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, -1, ipe.Step)

	// Literal affixes are never compiled.
	assert.NoError(t, ev.Validate(Rule{ID: 3, Steps: []TransformStep{{Kind: StepSuffix, Pattern: "(", Text: "x"}}}))
}

func TestParseNames(t *testing.T) {
	for k := range stepKindNames {
		got, err := ParseStepKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	for m := range replaceModeNames {
		got, err := ParseReplaceMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseStepKind("splice")
	assert.Error(t, err)
	_, err = ParseReplaceMode("sometimes")
	assert.Error(t, err)

	k, err := ParseStepKind("")
	require.NoError(t, err)
	assert.Equal(t, StepRegex, k)
}
