package inflect

import (
	"context"
	"slices"
	"strings"
	"unicode"
)

// FormIndex maps surface forms back to the words and keys producing them.
// It is a snapshot: rebuild it after editing rules, overrides or words.
type FormIndex struct {
	forms  map[string][]LookupResult
	folded map[string][]LookupResult
}

// Index declines every word at every non-suppressed form and indexes the
// results. Failed cells are skipped.
func (e *Engine) Index(ctx context.Context, words []Word) (*FormIndex, error) {
	ix := &FormIndex{
		forms:  make(map[string][]LookupResult),
		folded: make(map[string][]LookupResult),
	}
	for _, w := range words {
		t, err := e.Grid(ctx, w)
		if err != nil {
			return nil, err
		}
		for _, c := range t.Cells {
			if c.Err != nil || c.Value == "" {
				continue
			}
			r := LookupResult{Form: c.Value, Word: t.Word, Key: c.Key, Label: c.Label, Source: c.Source}
			ix.forms[c.Value] = append(ix.forms[c.Value], r)
			low := strings.ToLower(c.Value)
			ix.folded[low] = append(ix.folded[low], r)
		}
	}
	return ix, nil
}

// Lookup returns the analyses of form. When nothing matches exactly the
// search is retried ignoring case, so a capitalised sentence-initial token
// still finds its word.
func (ix *FormIndex) Lookup(form string) []LookupResult {
	if rs, ok := ix.forms[form]; ok {
		return slices.Clone(rs)
	}
	return slices.Clone(ix.folded[strings.ToLower(form)])
}

// Len returns the number of distinct indexed forms.
func (ix *FormIndex) Len() int { return len(ix.forms) }

// TextMatch is the analysis of one token of a text.
type TextMatch struct {
	Token   string
	Results []LookupResult
}

// LookupText splits text into word tokens and looks each one up.
func (ix *FormIndex) LookupText(text string) []TextMatch {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && r != '\'' && r != '-'
	})
	out := make([]TextMatch, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'-")
		if tok == "" {
			continue
		}
		out = append(out, TextMatch{Token: tok, Results: ix.Lookup(tok)})
	}
	return out
}

// Lookup indexes the words of lex and returns the analyses of form.
func (e *Engine) Lookup(ctx context.Context, lex *Lexicon, form string) ([]LookupResult, error) {
	ix, err := e.Index(ctx, lex.Words())
	if err != nil {
		return nil, err
	}
	return ix.Lookup(form), nil
}
