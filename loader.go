package inflect

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is a language loaded from YAML: its engine and its words.
type Document struct {
	Name    string
	Version int
	Engine  *Engine
	Lexicon *Lexicon
	// Variables are the ${name} substitutions applied to rule patterns.
	Variables map[string]string
}

type docFile struct {
	Name          string            `yaml:"name"`
	Version       int               `yaml:"version"`
	Variables     map[string]string `yaml:"variables,omitempty"`
	Classes       []classDoc        `yaml:"classes,omitempty"`
	PartsOfSpeech []posDoc          `yaml:"parts_of_speech"`
	Words         []wordDoc         `yaml:"words,omitempty"`
}

type classDoc struct {
	ID            ClassID          `yaml:"id"`
	Name          string           `yaml:"name"`
	PartsOfSpeech []PartOfSpeechID `yaml:"parts_of_speech,omitempty"`
	Values        []labelDoc       `yaml:"values"`
}

type labelDoc struct {
	ID    int    `yaml:"id"`
	Label string `yaml:"label"`
}

type axisDoc struct {
	ID     int        `yaml:"id"`
	Label  string     `yaml:"label"`
	Values []labelDoc `yaml:"values"`
}

type posDoc struct {
	ID         PartOfSpeechID `yaml:"id"`
	Name       string         `yaml:"name"`
	Axes       []axisDoc      `yaml:"axes,omitempty"`
	Singletons []labelDoc     `yaml:"singletons,omitempty"`
	Suppressed []string       `yaml:"suppressed,omitempty"`
	Rules      []ruleDoc      `yaml:"rules,omitempty"`
}

type ruleDoc struct {
	ID  int    `yaml:"id,omitempty"`
	Key string `yaml:"key,omitempty"`
	// Form names the key by axis and value labels, e.g. {Number: Plural}.
	// Axes left out stay unset.
	Form     map[string]string `yaml:"form,omitempty"`
	Name     string            `yaml:"name,omitempty"`
	Priority int               `yaml:"priority"`
	Pattern  string            `yaml:"pattern,omitempty"`
	Filters  []filterDoc       `yaml:"filters,omitempty"`
	Steps    []stepDoc         `yaml:"steps"`
}

type filterDoc struct {
	Class ClassID      `yaml:"class"`
	Value ClassValueID `yaml:"value"`
}

type stepDoc struct {
	Kind    string `yaml:"kind,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	Text    string `yaml:"text,omitempty"`
	Mode    string `yaml:"mode,omitempty"`
	Guard   string `yaml:"guard,omitempty"`
}

type wordDoc struct {
	ID        WordID                   `yaml:"id"`
	Value     string                   `yaml:"value"`
	POS       PartOfSpeechID           `yaml:"pos"`
	Classes   map[ClassID]ClassValueID `yaml:"classes,omitempty"`
	Override  bool                     `yaml:"override_auto_generation,omitempty"`
	Overrides map[string]string        `yaml:"overrides,omitempty"`
}

// LoadFile reads a language document from path.
func LoadFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	doc, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads a language document and builds its engine. Rule patterns are
// not compiled here; use Engine.CheckRules to report broken ones.
func Load(r io.Reader, opts ...Option) (*Document, error) {
	var df docFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&df); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := &Document{
		Name:      df.Name,
		Version:   df.Version,
		Engine:    New(opts...),
		Lexicon:   NewLexicon(),
		Variables: df.Variables,
	}
	e := doc.Engine

	for _, c := range df.Classes {
		wc := WordClass{ID: c.ID, Name: c.Name, PartsOfSpeech: c.PartsOfSpeech}
		for _, v := range c.Values {
			wc.Values = append(wc.Values, ClassValue{ID: ClassValueID(v.ID), Label: v.Label})
		}
		e.DefineClass(wc)
	}

	for _, pd := range df.PartsOfSpeech {
		if err := doc.loadPart(pd); err != nil {
			return nil, fmt.Errorf("part of speech %d (%s): %w", pd.ID, pd.Name, err)
		}
	}

	for _, wd := range df.Words {
		w := Word{
			ID:                     wd.ID,
			Value:                  wd.Value,
			PartOfSpeech:           wd.POS,
			Classes:                wd.Classes,
			OverrideAutoGeneration: wd.Override,
		}
		doc.Lexicon.Put(w)
		for k, v := range wd.Overrides {
			if err := e.SetOverride(w, CombinedKey(k), v); err != nil {
				return nil, fmt.Errorf("word %d override %q: %w", wd.ID, k, err)
			}
		}
	}
	return doc, nil
}

func (doc *Document) loadPart(pd posDoc) error {
	e := doc.Engine
	if err := e.AddPartOfSpeech(PartOfSpeech{ID: pd.ID, Name: pd.Name}); err != nil {
		return err
	}
	for _, ad := range pd.Axes {
		a := Axis{ID: ad.ID, Label: ad.Label}
		for _, v := range ad.Values {
			a.Values = append(a.Values, DimensionValue(v))
		}
		if err := e.AddAxis(pd.ID, a); err != nil {
			return err
		}
	}
	for _, s := range pd.Singletons {
		if err := e.AddSingleton(pd.ID, Singleton(s)); err != nil {
			return err
		}
	}
	for _, k := range pd.Suppressed {
		if err := e.SetSuppressed(pd.ID, CombinedKey(k), true); err != nil {
			return err
		}
	}
	for i, rd := range pd.Rules {
		r, err := doc.rule(pd.ID, rd)
		if err != nil {
			return fmt.Errorf("rule %d (#%d): %w", rd.ID, i, err)
		}
		if _, err := e.AddRule(r); err != nil {
			return fmt.Errorf("rule %d (#%d): %w", rd.ID, i, err)
		}
	}
	return nil
}

func (doc *Document) rule(pos PartOfSpeechID, rd ruleDoc) (Rule, error) {
	r := Rule{
		ID:           rd.ID,
		PartOfSpeech: pos,
		Key:          CombinedKey(rd.Key),
		Name:         rd.Name,
		Priority:     rd.Priority,
		Pattern:      doc.substituteVars(rd.Pattern),
	}
	if len(rd.Form) > 0 {
		if rd.Key != "" {
			return Rule{}, fmt.Errorf("both key and form given")
		}
		key, err := doc.Engine.keyFromLabels(pos, rd.Form)
		if err != nil {
			return Rule{}, err
		}
		r.Key = key
	}
	for _, f := range rd.Filters {
		r.Filters = append(r.Filters, ClassFilter(f))
	}
	for i, sd := range rd.Steps {
		kind, err := ParseStepKind(sd.Kind)
		if err != nil {
			return Rule{}, fmt.Errorf("step %d: %w", i, err)
		}
		mode, err := ParseReplaceMode(sd.Mode)
		if err != nil {
			return Rule{}, fmt.Errorf("step %d: %w", i, err)
		}
		st := TransformStep{
			Kind:    kind,
			Pattern: sd.Pattern,
			Text:    sd.Text,
			Mode:    mode,
			Guard:   doc.substituteVars(sd.Guard),
		}
		if kind == StepRegex {
			st.Pattern = doc.substituteVars(sd.Pattern)
		}
		r.Steps = append(r.Steps, st)
	}
	return r, nil
}

// substituteVars replaces ${name} occurrences by their value. A bare $ is
// left alone so regex anchors survive.
func (doc *Document) substituteVars(s string) string {
	if len(doc.Variables) == 0 || !strings.Contains(s, "${") {
		return s
	}
	pairs := make([]string, 0, 2*len(doc.Variables))
	for n, v := range doc.Variables {
		pairs = append(pairs, "${"+n+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// keyFromLabels builds the key of pos naming values by axis and value label.
func (e *Engine) keyFromLabels(pos PartOfSpeechID, form map[string]string) (CombinedKey, error) {
	p, err := e.part(pos)
	if err != nil {
		return "", err
	}
	if len(form) == 1 {
		for axis, v := range form {
			if axis == "" {
				for _, s := range p.singletons {
					if s.Label == v {
						return SingletonKey(s.ID), nil
					}
				}
				return "", fmt.Errorf("no singleton %q: %w", v, ErrNotFound)
			}
		}
	}
	sel := make(Selection, len(p.axes))
	for i := range sel {
		sel[i] = Unset()
	}
	for axis, label := range form {
		i := slices.IndexFunc(p.axes, func(a Axis) bool { return a.Label == axis })
		if i < 0 {
			return "", fmt.Errorf("axis %q: %w", axis, ErrNotFound)
		}
		j := slices.IndexFunc(p.axes[i].Values, func(v DimensionValue) bool { return v.Label == label })
		if j < 0 {
			return "", fmt.Errorf("axis %q value %q: %w", axis, label, ErrNotFound)
		}
		sel[i] = Val(p.axes[i].Values[j].ID)
	}
	return EncodeKey(sel), nil
}

// Save writes the document as YAML. Rule keys are written as keys, never as
// label forms. Rules, suppression marks and overrides whose key no longer
// fits the axis layout are left out and logged, so the output always loads.
func (doc *Document) Save(w io.Writer) error {
	e := doc.Engine
	parts := make(map[PartOfSpeechID]*partSnapshot)
	df := docFile{Name: doc.Name, Version: doc.Version, Variables: doc.Variables}

	for _, c := range e.Classes() {
		cd := classDoc{ID: c.ID, Name: c.Name, PartsOfSpeech: c.PartsOfSpeech}
		for _, v := range c.Values {
			cd.Values = append(cd.Values, labelDoc{ID: int(v.ID), Label: v.Label})
		}
		df.Classes = append(df.Classes, cd)
	}

	for _, info := range e.PartsOfSpeech() {
		p, err := e.part(info.ID)
		if err != nil {
			return err
		}
		parts[info.ID] = p
		pd := posDoc{ID: info.ID, Name: info.Name}
		for _, a := range p.axes {
			ad := axisDoc{ID: a.ID, Label: a.Label}
			for _, v := range a.Values {
				ad.Values = append(ad.Values, labelDoc(v))
			}
			pd.Axes = append(pd.Axes, ad)
		}
		for _, s := range p.singletons {
			pd.Singletons = append(pd.Singletons, labelDoc(s))
		}
		for _, k := range e.Suppressed(info.ID) {
			if !p.isCurrentKey(k) {
				e.log.Warn("dropping stale suppression", zap.Int("pos", int(info.ID)), zap.String("key", string(k)))
				continue
			}
			pd.Suppressed = append(pd.Suppressed, string(k))
		}
		for _, r := range p.rules {
			if !p.isCurrentKey(r.Key) {
				e.log.Warn("dropping stale rule", zap.Int("pos", int(info.ID)), zap.Int("rule", r.ID), zap.String("key", string(r.Key)))
				continue
			}
			rd := ruleDoc{ID: r.ID, Key: string(r.Key), Name: r.Name, Priority: r.Priority, Pattern: r.Pattern}
			for _, f := range r.Filters {
				rd.Filters = append(rd.Filters, filterDoc(f))
			}
			for _, st := range r.Steps {
				sd := stepDoc{Kind: st.Kind.String(), Pattern: st.Pattern, Text: st.Text, Guard: st.Guard}
				if st.Mode != ReplaceAll {
					sd.Mode = st.Mode.String()
				}
				rd.Steps = append(rd.Steps, sd)
			}
			pd.Rules = append(pd.Rules, rd)
		}
		df.PartsOfSpeech = append(df.PartsOfSpeech, pd)
	}

	for _, wd := range doc.Lexicon.Words() {
		d := wordDoc{ID: wd.ID, Value: wd.Value, POS: wd.PartOfSpeech, Classes: wd.Classes, Override: wd.OverrideAutoGeneration}
		p := parts[wd.PartOfSpeech]
		for k, v := range e.Overrides(wd.ID) {
			if p == nil || !p.isCurrentKey(k) {
				e.log.Warn("dropping stale override", zap.Int("word", int(wd.ID)), zap.String("key", string(k)))
				continue
			}
			if d.Overrides == nil {
				d.Overrides = make(map[string]string)
			}
			d.Overrides[string(k)] = v
		}
		df.Words = append(df.Words, d)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&df); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}
