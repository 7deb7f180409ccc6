package inflect

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// StepKind selects how a TransformStep rewrites the running value.
type StepKind int

const (
	// StepRegex replaces matches of Pattern with Text.
	StepRegex StepKind = iota
	// StepAppend appends Text.
	StepAppend
	// StepPrefix strips the literal Pattern from the start (when present)
	// and prepends Text.
	StepPrefix
	// StepSuffix strips the literal Pattern from the end (when present) and
	// appends Text.
	StepSuffix
)

var stepKindNames = map[StepKind]string{
	StepRegex:  "regex",
	StepAppend: "append",
	StepPrefix: "prefix",
	StepSuffix: "suffix",
}

func (k StepKind) String() string {
	if s, ok := stepKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// ParseStepKind is the inverse of StepKind.String.
func ParseStepKind(s string) (StepKind, error) {
	if s == "" {
		return StepRegex, nil
	}
	for k, name := range stepKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

// ReplaceMode chooses which regex matches of a StepRegex are replaced.
// With a single match, that match counts as both first and last.
type ReplaceMode int

const (
	ReplaceAll ReplaceMode = iota
	ReplaceFirst
	ReplaceFirstAndMiddle
	ReplaceMiddle
	ReplaceMiddleAndLast
	ReplaceLast
)

var replaceModeNames = map[ReplaceMode]string{
	ReplaceAll:            "all",
	ReplaceFirst:          "first",
	ReplaceFirstAndMiddle: "first-middle",
	ReplaceMiddle:         "middle",
	ReplaceMiddleAndLast:  "middle-last",
	ReplaceLast:           "last",
}

func (m ReplaceMode) String() string {
	if s, ok := replaceModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ReplaceMode(%d)", int(m))
}

// ParseReplaceMode is the inverse of ReplaceMode.String. The empty string
// means ReplaceAll.
func ParseReplaceMode(s string) (ReplaceMode, error) {
	if s == "" {
		return ReplaceAll, nil
	}
	for m, name := range replaceModeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown replace mode %q", s)
}

func (m ReplaceMode) selects(i, n int) bool {
	first := i == 0
	last := i == n-1
	middle := !first && !last
	switch m {
	case ReplaceAll:
		return true
	case ReplaceFirst:
		return first
	case ReplaceFirstAndMiddle:
		return first || middle
	case ReplaceMiddle:
		return middle
	case ReplaceMiddleAndLast:
		return middle || last
	case ReplaceLast:
		return last
	}
	return false
}

// TransformStep is one ordered edit of a rule.
type TransformStep struct {
	Kind StepKind
	// Pattern is the regex for StepRegex and the literal to strip for
	// StepPrefix and StepSuffix.
	Pattern string
	// Text is the replacement or the affix to add. Regex replacements may
	// reference groups as $1 or ${name}.
	Text string
	Mode ReplaceMode
	// Guard, when set, is a regex that must match somewhere in the running
	// value for the step to run.
	Guard string
}

// StepTrace records what one step did to the running value.
type StepTrace struct {
	Index   int
	Kind    StepKind
	Skipped bool
	Before  string
	After   string
}

// Evaluator applies rule steps. Compiled patterns are cached and shared, so
// one Evaluator may serve many goroutines.
type Evaluator struct {
	timeout  time.Duration
	patterns sync.Map // string -> *regexp2.Regexp
}

// NewEvaluator returns an Evaluator whose regex matches give up after
// timeout (0 disables the limit).
func NewEvaluator(timeout time.Duration) *Evaluator {
	return &Evaluator{timeout: timeout}
}

var defaultEvaluator = NewEvaluator(time.Second)

// Apply runs the steps of rule over base with the package default
// evaluator.
func Apply(rule Rule, base string) (string, error) {
	return defaultEvaluator.Apply(rule, base)
}

// Apply runs the steps of rule over base in order. Any failure discards the
// partial result.
func (ev *Evaluator) Apply(rule Rule, base string) (string, error) {
	out, _, err := ev.run(rule, base, false)
	return out, err
}

// Trace is Apply that also reports every step.
func (ev *Evaluator) Trace(rule Rule, base string) (string, []StepTrace, error) {
	return ev.run(rule, base, true)
}

func (ev *Evaluator) run(rule Rule, base string, trace bool) (string, []StepTrace, error) {
	cur := base
	var steps []StepTrace
	for i, st := range rule.Steps {
		before := cur
		skipped, next, err := ev.step(rule.ID, i, st, cur)
		if err != nil {
			return "", steps, err
		}
		cur = next
		if trace {
			steps = append(steps, StepTrace{Index: i, Kind: st.Kind, Skipped: skipped, Before: before, After: cur})
		}
	}
	return cur, steps, nil
}

func (ev *Evaluator) step(ruleID, idx int, st TransformStep, cur string) (bool, string, error) {
	if st.Guard != "" {
		re, err := ev.compile(st.Guard)
		if err != nil {
			return false, "", &InvalidPatternError{RuleID: ruleID, Step: idx, Pattern: st.Guard, Err: err}
		}
		ok, err := re.MatchString(cur)
		if err != nil {
			return false, "", &TransformError{RuleID: ruleID, Step: idx, Err: err}
		}
		if !ok {
			return true, cur, nil
		}
	}

	switch st.Kind {
	case StepAppend:
		return false, cur + st.Text, nil
	case StepPrefix:
		return false, st.Text + strings.TrimPrefix(cur, st.Pattern), nil
	case StepSuffix:
		return false, strings.TrimSuffix(cur, st.Pattern) + st.Text, nil
	case StepRegex:
		re, err := ev.compile(st.Pattern)
		if err != nil {
			return false, "", &InvalidPatternError{RuleID: ruleID, Step: idx, Pattern: st.Pattern, Err: err}
		}
		out, err := replace(re, cur, st.Text, st.Mode)
		if err != nil {
			return false, "", &TransformError{RuleID: ruleID, Step: idx, Err: err}
		}
		return false, out, nil
	}
	return false, "", &TransformError{RuleID: ruleID, Step: idx, Err: fmt.Errorf("unknown step kind %d", int(st.Kind))}
}

// replace substitutes the matches selected by mode. Every match is found
// once on the input and the output is built left to right from the
// original text, so a substitution never changes which spans match.
func replace(re *regexp2.Regexp, in, text string, mode ReplaceMode) (string, error) {
	if mode == ReplaceAll {
		return re.Replace(in, text, -1, -1)
	}
	type span struct{ index, length int }
	var spans []span
	m, err := re.FindStringMatch(in)
	for m != nil && err == nil {
		spans = append(spans, span{m.Index, m.Length})
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return "", err
	}

	// Match offsets count runes.
	src := []rune(in)
	var sb strings.Builder
	pos := 0
	for i, sp := range spans {
		sb.WriteString(string(src[pos:sp.index]))
		end := sp.index + sp.length
		if mode.selects(i, len(spans)) {
			seg, err := expand(re, in, len(src), sp.index, end, text)
			if err != nil {
				return "", err
			}
			sb.WriteString(seg)
		} else {
			sb.WriteString(string(src[sp.index:end]))
		}
		pos = end
	}
	sb.WriteString(string(src[pos:]))
	return sb.String(), nil
}

// expand returns text expanded for the match spanning runes [start, end) of
// in. The match is replaced inside the untouched input so group references
// and lookarounds see the original surroundings, then the replacement is
// cut back out.
func expand(re *regexp2.Regexp, in string, n, start, end int, text string) (string, error) {
	out, err := re.Replace(in, text, start, 1)
	if err != nil {
		return "", err
	}
	r := []rune(out)
	grown := len(r) - n
	return string(r[start : end+grown]), nil
}

// compile returns the cached regex for pattern.
func (ev *Evaluator) compile(pattern string) (*regexp2.Regexp, error) {
	if re, ok := ev.patterns.Load(pattern); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	if ev.timeout > 0 {
		re.MatchTimeout = ev.timeout
	}
	actual, _ := ev.patterns.LoadOrStore(pattern, re)
	return actual.(*regexp2.Regexp), nil
}

// matchWhole reports whether the rule's word pattern matches all of s.
func (ev *Evaluator) matchWhole(ruleID int, pattern, s string) (bool, error) {
	re, err := ev.compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return false, &InvalidPatternError{RuleID: ruleID, Step: -1, Pattern: pattern, Err: err}
	}
	ok, err := re.MatchString(s)
	if err != nil {
		return false, &TransformError{RuleID: ruleID, Step: -1, Err: err}
	}
	return ok, nil
}

// Validate compiles every pattern of rule and reports the first failure.
func (ev *Evaluator) Validate(rule Rule) error {
	if rule.Pattern != "" {
		if _, err := ev.compile(`\A(?:` + rule.Pattern + `)\z`); err != nil {
			return &InvalidPatternError{RuleID: rule.ID, Step: -1, Pattern: rule.Pattern, Err: err}
		}
	}
	for i, st := range rule.Steps {
		if st.Guard != "" {
			if _, err := ev.compile(st.Guard); err != nil {
				return &InvalidPatternError{RuleID: rule.ID, Step: i, Pattern: st.Guard, Err: err}
			}
		}
		if st.Kind == StepRegex {
			if _, err := ev.compile(st.Pattern); err != nil {
				return &InvalidPatternError{RuleID: rule.ID, Step: i, Pattern: st.Pattern, Err: err}
			}
		}
	}
	return nil
}
