package inflect

import "fmt"

// Source tells where a form came from.
type Source int

const (
	SourceRule Source = iota
	SourceOverride
)

func (s Source) String() string {
	switch s {
	case SourceRule:
		return "rule"
	case SourceOverride:
		return "override"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Cell is one form of a word inside an inflection table.
type Cell struct {
	Key   CombinedKey
	Label string
	// Value is empty when Err is set.
	Value  string
	Source Source
	// RuleID is the rule that produced Value when Source is SourceRule.
	RuleID int
	Err    error
}

// InflectionTable holds every non-suppressed form of a word, in the order
// Keys enumerates them.
type InflectionTable struct {
	Word  Word
	Cells []Cell
}

// Cell returns the cell of key.
func (t *InflectionTable) Cell(key CombinedKey) (Cell, bool) {
	for _, c := range t.Cells {
		if c.Key == key {
			return c, true
		}
	}
	return Cell{}, false
}

// Forms maps each successfully generated key to its value.
func (t *InflectionTable) Forms() map[CombinedKey]string {
	out := make(map[CombinedKey]string, len(t.Cells))
	for _, c := range t.Cells {
		if c.Err == nil {
			out[c.Key] = c.Value
		}
	}
	return out
}

// Sheet is a two-axis view of a word: the X axis runs across columns, the Y
// axis down rows, every other axis is fixed by the partial key.
type Sheet struct {
	Word    Word
	Partial CombinedKey
	Columns []DimensionValue
	Rows    []DimensionValue
	// Cells is indexed [row][column].
	Cells [][]Cell
}

// RuleCheck records how one candidate rule fared during Explain.
type RuleCheck struct {
	RuleID   int
	Name     string
	Priority int
	Matched  bool
	// Reason explains a rejection.
	Reason string
}

// Explanation is the step-by-step account of one Decline call.
type Explanation struct {
	Word       Word
	Key        CombinedKey
	Label      string
	Suppressed bool
	// Override is set when an override exists, whether or not it was used.
	Override    *string
	Source      Source
	Considered  []RuleCheck
	AppliedRule int
	Steps       []StepTrace
	Result      string
	Err         error
}

// LookupResult is one way a surface form can be produced.
type LookupResult struct {
	Form   string
	Word   Word
	Key    CombinedKey
	Label  string
	Source Source
}
