package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect"
	"github.com/polyglot-tools/inflect/internal/store"
)

// ---- JSON response types ------------------------------------------------

type wordJSON struct {
	ID           inflect.WordID         `json:"id"`
	Value        string                 `json:"value"`
	PartOfSpeech inflect.PartOfSpeechID `json:"pos"`
}

type labelJSON struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type axisJSON struct {
	ID     int         `json:"id"`
	Label  string      `json:"label"`
	Values []labelJSON `json:"values"`
}

type partJSON struct {
	ID         inflect.PartOfSpeechID `json:"id"`
	Name       string                 `json:"name"`
	Axes       []axisJSON             `json:"axes"`
	Singletons []labelJSON            `json:"singletons"`
}

type keyJSON struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Suppressed bool   `json:"suppressed,omitempty"`
}

type cellJSON struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value,omitempty"`
	Source string `json:"source,omitempty"`
	RuleID int    `json:"rule_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type declineResponse struct {
	Word  wordJSON `json:"word"`
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Value string   `json:"value"`
}

type gridResponse struct {
	Word  wordJSON   `json:"word"`
	Cells []cellJSON `json:"cells"`
}

type sheetResponse struct {
	Word    wordJSON     `json:"word"`
	Partial string       `json:"partial"`
	Columns []labelJSON  `json:"columns"`
	Rows    []labelJSON  `json:"rows"`
	Cells   [][]cellJSON `json:"cells"`
}

type filterJSON struct {
	Class inflect.ClassID      `json:"class"`
	Value inflect.ClassValueID `json:"value"`
}

type stepJSON struct {
	Kind    string `json:"kind"`
	Pattern string `json:"pattern,omitempty"`
	Text    string `json:"text,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Guard   string `json:"guard,omitempty"`
}

type ruleJSON struct {
	ID       int          `json:"id"`
	Key      string       `json:"key"`
	Name     string       `json:"name,omitempty"`
	Priority int          `json:"priority"`
	Pattern  string       `json:"pattern,omitempty"`
	Filters  []filterJSON `json:"filters,omitempty"`
	Steps    []stepJSON   `json:"steps"`
	Error    string       `json:"error,omitempty"`
}

type ruleCheckJSON struct {
	RuleID   int    `json:"rule_id"`
	Name     string `json:"name,omitempty"`
	Priority int    `json:"priority"`
	Matched  bool   `json:"matched"`
	Reason   string `json:"reason,omitempty"`
}

type stepTraceJSON struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Skipped bool   `json:"skipped,omitempty"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

type explainResponse struct {
	Word        wordJSON        `json:"word"`
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Suppressed  bool            `json:"suppressed"`
	Override    *string         `json:"override,omitempty"`
	Source      string          `json:"source,omitempty"`
	Considered  []ruleCheckJSON `json:"considered"`
	AppliedRule int             `json:"applied_rule,omitempty"`
	Steps       []stepTraceJSON `json:"steps,omitempty"`
	Result      string          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type lookupJSON struct {
	Word   wordJSON `json:"word"`
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Source string   `json:"source"`
}

type lookupResponse struct {
	Form    string       `json:"form"`
	Results []lookupJSON `json:"results"`
}

type tokenResultJSON struct {
	Token   string       `json:"token"`
	Results []lookupJSON `json:"results"`
}

type lookupTextResponse struct {
	Results []tokenResultJSON `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func toWordJSON(w inflect.Word) wordJSON {
	return wordJSON{ID: w.ID, Value: w.Value, PartOfSpeech: w.PartOfSpeech}
}

func toLabelsJSON(vals []inflect.DimensionValue) []labelJSON {
	out := make([]labelJSON, 0, len(vals))
	for _, v := range vals {
		out = append(out, labelJSON{ID: v.ID, Label: v.Label})
	}
	return out
}

func toCellJSON(c inflect.Cell) cellJSON {
	cj := cellJSON{Key: string(c.Key), Label: c.Label}
	if c.Err != nil {
		cj.Error = c.Err.Error()
		return cj
	}
	cj.Value = c.Value
	cj.Source = c.Source.String()
	if c.Source == inflect.SourceRule {
		cj.RuleID = c.RuleID
	}
	return cj
}

func toRuleJSON(r inflect.Rule, ev *inflect.Evaluator) ruleJSON {
	rj := ruleJSON{
		ID:       r.ID,
		Key:      string(r.Key),
		Name:     r.Name,
		Priority: r.Priority,
		Pattern:  r.Pattern,
		Steps:    make([]stepJSON, 0, len(r.Steps)),
	}
	for _, f := range r.Filters {
		rj.Filters = append(rj.Filters, filterJSON{Class: f.Class, Value: f.Value})
	}
	for _, st := range r.Steps {
		rj.Steps = append(rj.Steps, stepJSON{
			Kind:    st.Kind.String(),
			Pattern: st.Pattern,
			Text:    st.Text,
			Mode:    st.Mode.String(),
			Guard:   st.Guard,
		})
	}
	if err := ev.Validate(r); err != nil {
		rj.Error = err.Error()
	}
	return rj
}

func toLookupJSON(results []inflect.LookupResult) []lookupJSON {
	out := make([]lookupJSON, 0, len(results))
	for _, r := range results {
		out = append(out, lookupJSON{
			Word:   toWordJSON(r.Word),
			Key:    string(r.Key),
			Label:  r.Label,
			Source: r.Source.String(),
		})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode error", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// statusOf maps engine errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, inflect.ErrMalformedKey):
		return http.StatusBadRequest
	case errors.Is(err, inflect.ErrUnknownPartOfSpeech),
		errors.Is(err, inflect.ErrNotFound),
		errors.Is(err, store.ErrUnknownWord):
		return http.StatusNotFound
	case errors.Is(err, inflect.ErrSuppressed):
		return http.StatusConflict
	case errors.Is(err, inflect.ErrNoApplicableRule),
		errors.Is(err, inflect.ErrInvalidPattern),
		errors.Is(err, inflect.ErrTransform):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	s.writeError(w, statusOf(err), err.Error())
}
