package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/polyglot-tools/inflect"
)

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s required", methods[0]))
	return false
}

func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("missing '%s' query parameter", name))
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("'%s' must be an integer", name))
		return 0, false
	}
	return n, true
}

// word resolves the word query parameter against the lexicon.
func (s *Server) word(w http.ResponseWriter, r *http.Request, st *state) (inflect.Word, bool) {
	id, ok := s.intParam(w, r, "word")
	if !ok {
		return inflect.Word{}, false
	}
	word, found := st.doc.Lexicon.Word(inflect.WordID(id))
	if !found {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("word %d not found", id))
		return inflect.Word{}, false
	}
	return word, true
}

func (s *Server) keyParam(w http.ResponseWriter, r *http.Request) (inflect.CombinedKey, bool) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, "missing 'key' query parameter")
		return "", false
	}
	return inflect.CombinedKey(key), true
}

// ---- handlers -----------------------------------------------------------

func (s *Server) handleParts(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	eng := s.state().doc.Engine
	parts := eng.PartsOfSpeech()
	out := make([]partJSON, 0, len(parts))
	for _, p := range parts {
		pj := partJSON{ID: p.ID, Name: p.Name, Axes: []axisJSON{}, Singletons: []labelJSON{}}
		axes, err := eng.Axes(p.ID)
		if err != nil {
			// removed since PartsOfSpeech was read
			continue
		}
		for _, a := range axes {
			pj.Axes = append(pj.Axes, axisJSON{ID: a.ID, Label: a.Label, Values: toLabelsJSON(a.Values)})
		}
		singles, _ := eng.Singletons(p.ID)
		for _, sg := range singles {
			pj.Singletons = append(pj.Singletons, labelJSON{ID: sg.ID, Label: sg.Label})
		}
		out = append(out, pj)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	pos, ok := s.intParam(w, r, "pos")
	if !ok {
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	eng := s.state().doc.Engine
	keys, err := eng.Keys(inflect.PartOfSpeechID(pos), all)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := make([]keyJSON, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyJSON{
			Key:        string(k.Key),
			Label:      k.Label,
			Suppressed: eng.IsSuppressed(inflect.PartOfSpeechID(pos), k.Key),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	pos, ok := s.intParam(w, r, "pos")
	if !ok {
		return
	}
	eng := s.state().doc.Engine
	var (
		rules []inflect.Rule
		err   error
	)
	if key := r.URL.Query().Get("key"); key != "" {
		rules, err = eng.RulesFor(inflect.PartOfSpeechID(pos), inflect.CombinedKey(key))
	} else {
		rules, err = eng.Rules(inflect.PartOfSpeechID(pos))
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := make([]ruleJSON, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleJSON(rule, eng.Evaluator()))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	st := s.state()
	word, ok := s.word(w, r, st)
	if !ok {
		return
	}
	key, ok := s.keyParam(w, r)
	if !ok {
		return
	}
	value, err := st.doc.Engine.Decline(word, key)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	label, _ := st.doc.Engine.KeyLabel(word.PartOfSpeech, key)
	s.writeJSON(w, http.StatusOK, declineResponse{
		Word:  toWordJSON(word),
		Key:   string(key),
		Label: label,
		Value: value,
	})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	st := s.state()
	word, ok := s.word(w, r, st)
	if !ok {
		return
	}
	table, err := st.doc.Engine.Grid(r.Context(), word)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	cells := make([]cellJSON, 0, len(table.Cells))
	for _, c := range table.Cells {
		cells = append(cells, toCellJSON(c))
	}
	s.writeJSON(w, http.StatusOK, gridResponse{Word: toWordJSON(word), Cells: cells})
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	st := s.state()
	word, ok := s.word(w, r, st)
	if !ok {
		return
	}
	key, ok := s.keyParam(w, r)
	if !ok {
		return
	}
	sheet, err := st.doc.Engine.Sheet(r.Context(), word, key)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := sheetResponse{
		Word:    toWordJSON(word),
		Partial: string(sheet.Partial),
		Columns: toLabelsJSON(sheet.Columns),
		Rows:    toLabelsJSON(sheet.Rows),
		Cells:   make([][]cellJSON, len(sheet.Cells)),
	}
	for i, row := range sheet.Cells {
		out.Cells[i] = make([]cellJSON, 0, len(row))
		for _, c := range row {
			out.Cells[i] = append(out.Cells[i], toCellJSON(c))
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	st := s.state()
	word, ok := s.word(w, r, st)
	if !ok {
		return
	}
	key, ok := s.keyParam(w, r)
	if !ok {
		return
	}
	ex, err := st.doc.Engine.Explain(word, key)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := explainResponse{
		Word:        toWordJSON(word),
		Key:         string(ex.Key),
		Label:       ex.Label,
		Suppressed:  ex.Suppressed,
		Override:    ex.Override,
		Considered:  make([]ruleCheckJSON, 0, len(ex.Considered)),
		AppliedRule: ex.AppliedRule,
		Result:      ex.Result,
	}
	if ex.Err != nil {
		out.Error = ex.Err.Error()
	} else {
		out.Source = ex.Source.String()
	}
	for _, c := range ex.Considered {
		out.Considered = append(out.Considered, ruleCheckJSON{
			RuleID: c.RuleID, Name: c.Name, Priority: c.Priority, Matched: c.Matched, Reason: c.Reason,
		})
	}
	for _, t := range ex.Steps {
		out.Steps = append(out.Steps, stepTraceJSON{
			Index: t.Index, Kind: t.Kind.String(), Skipped: t.Skipped, Before: t.Before, After: t.After,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	form := r.URL.Query().Get("form")
	if form == "" {
		s.writeError(w, http.StatusBadRequest, "missing 'form' query parameter")
		return
	}
	ix, err := s.state().lookupIndex(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	results := ix.Lookup(form)
	status := http.StatusOK
	if len(results) == 0 {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, lookupResponse{Form: form, Results: toLookupJSON(results)})
}

func (s *Server) handleLookupText(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		s.writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty 'text' field")
		return
	}
	ix, err := s.state().lookupIndex(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	matches := ix.LookupText(body.Text)
	out := make([]tokenResultJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, tokenResultJSON{Token: m.Token, Results: toLookupJSON(m.Results)})
	}
	s.writeJSON(w, http.StatusOK, lookupTextResponse{Results: out})
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	st := s.state()

	if r.Method == http.MethodDelete {
		id, ok := s.intParam(w, r, "word")
		if !ok {
			return
		}
		var err error
		if key := r.URL.Query().Get("key"); key != "" {
			err = st.store.ClearOverride(inflect.WordID(id), inflect.CombinedKey(key))
		} else {
			err = st.store.ClearOverrides(inflect.WordID(id))
		}
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		st.invalidateIndex()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var body struct {
		Word  inflect.WordID `json:"word"`
		Key   string         `json:"key"`
		Value string         `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
		s.writeError(w, http.StatusBadRequest, "body must be JSON with 'word', 'key' and 'value'")
		return
	}
	if err := st.store.SetOverride(body.Word, inflect.CombinedKey(body.Key), body.Value); err != nil {
		s.writeEngineError(w, err)
		return
	}
	st.invalidateIndex()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuppress(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPut) {
		return
	}
	var body struct {
		Pos        inflect.PartOfSpeechID `json:"pos"`
		Key        string                 `json:"key"`
		Suppressed *bool                  `json:"suppressed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
		s.writeError(w, http.StatusBadRequest, "body must be JSON with 'pos' and 'key'")
		return
	}
	suppressed := body.Suppressed == nil || *body.Suppressed

	st := s.state()
	if err := st.store.SetSuppressed(body.Pos, inflect.CombinedKey(body.Key), suppressed); err != nil {
		s.writeEngineError(w, err)
		return
	}
	st.invalidateIndex()
	w.WriteHeader(http.StatusNoContent)
}
