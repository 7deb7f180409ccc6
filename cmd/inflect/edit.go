package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polyglot-tools/inflect"
)

var keysCmd = &cobra.Command{
	Use:   "keys <pos-id>",
	Short: "List the forms of a part of speech",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeys,
}

var rulesCmd = &cobra.Command{
	Use:   "rules <pos-id> [key]",
	Short: "List rules in evaluation order and report broken or stale ones",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRules,
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Edit hand-entered forms",
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <word-id> <key> <value>",
	Short: "Store a hand-entered form",
	Args:  cobra.ExactArgs(3),
	RunE:  runOverrideSet,
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear <word-id> [key]",
	Short: "Remove one hand-entered form, or all of a word's",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runOverrideClear,
}

var suppressCmd = &cobra.Command{
	Use:   "suppress <pos-id> <key>",
	Short: "Mark a form as never generated",
	Args:  cobra.ExactArgs(2),
	RunE:  runSuppress,
}

var (
	keysAll     bool
	suppressOff bool
)

func init() {
	keysCmd.Flags().BoolVar(&keysAll, "all", false, "include suppressed forms")
	suppressCmd.Flags().BoolVar(&suppressOff, "off", false, "lift the mark instead")

	overrideCmd.AddCommand(overrideSetCmd, overrideClearCmd)
	rootCmd.AddCommand(keysCmd, rulesCmd, overrideCmd, suppressCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID("part of speech", args[0])
	if err != nil {
		return err
	}
	pos := inflect.PartOfSpeechID(id)
	keys, err := s.doc.Engine.Keys(pos, keysAll)
	if err != nil {
		return err
	}
	t := newTable("", "key", "form", "")
	for _, k := range keys {
		var note string
		if s.doc.Engine.IsSuppressed(pos, k.Key) {
			note = "suppressed"
		}
		t.addRow(string(k.Key), k.Label, note)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.render())
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID("part of speech", args[0])
	if err != nil {
		return err
	}
	pos := inflect.PartOfSpeechID(id)
	eng := s.doc.Engine

	var rules []inflect.Rule
	if len(args) == 2 {
		rules, err = eng.RulesFor(pos, inflect.CombinedKey(args[1]))
	} else {
		rules, err = eng.Rules(pos)
	}
	if err != nil {
		return err
	}
	stale, err := eng.StaleRules(pos)
	if err != nil {
		return err
	}
	isStale := make(map[int]bool, len(stale))
	for _, r := range stale {
		isStale[r.ID] = true
	}

	t := newTable("", "id", "priority", "key", "name", "pattern", "steps", "status")
	for _, r := range rules {
		status := "ok"
		if isStale[r.ID] {
			status = "stale key"
		} else if err := eng.Evaluator().Validate(r); err != nil {
			status = err.Error()
		}
		t.addRow(fmt.Sprint(r.ID), fmt.Sprint(r.Priority), string(r.Key), r.Name, r.Pattern, fmt.Sprint(len(r.Steps)), status)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.render())
	return nil
}

func runOverrideSet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID("word", args[0])
	if err != nil {
		return err
	}
	if err := s.store.SetOverride(inflect.WordID(id), inflect.CombinedKey(args[1]), args[2]); err != nil {
		return err
	}
	w, _ := s.doc.Lexicon.Word(inflect.WordID(id))
	if !w.OverrideAutoGeneration {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: word %d does not use overrides; the stored form is kept but rules still apply\n", id)
	}
	return nil
}

func runOverrideClear(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID("word", args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		return s.store.ClearOverride(inflect.WordID(id), inflect.CombinedKey(args[1]))
	}
	return s.store.ClearOverrides(inflect.WordID(id))
}

func runSuppress(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := parseID("part of speech", args[0])
	if err != nil {
		return err
	}
	return s.store.SetSuppressed(inflect.PartOfSpeechID(id), inflect.CombinedKey(args[1]), !suppressOff)
}
