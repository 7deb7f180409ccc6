package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polyglot-tools/inflect"
)

var declineCmd = &cobra.Command{
	Use:   "decline <word-id> <key>",
	Short: "Generate one form of a word",
	Example: `  inflect decline 2 ,2,2,
  inflect decline 3 10`,
	Args: cobra.ExactArgs(2),
	RunE: runDecline,
}

var gridCmd = &cobra.Command{
	Use:   "grid <word-id>",
	Short: "Generate every form of a word",
	Long: `Without --x, prints every non-suppressed form of the word, one per line.

With --x (and optionally --y) prints a table with the values of the X axis
across and the values of the Y axis down. Other axes are pinned with
--fix axis=value.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrid,
}

var explainCmd = &cobra.Command{
	Use:   "explain <word-id> <key>",
	Short: "Show how a form is produced, rule by rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runExplain,
}

var (
	gridX   int
	gridY   int
	gridFix map[string]int
)

func init() {
	gridCmd.Flags().IntVar(&gridX, "x", -1, "axis id running across columns")
	gridCmd.Flags().IntVar(&gridY, "y", -1, "axis id running down rows")
	gridCmd.Flags().StringToIntVar(&gridFix, "fix", nil, "pin other axes, e.g. --fix 3=1")

	rootCmd.AddCommand(declineCmd, gridCmd, explainCmd)
}

func parseID(kind, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s id %q must be an integer", kind, s)
	}
	return n, nil
}

func (s *session) word(arg string) (inflect.Word, error) {
	id, err := parseID("word", arg)
	if err != nil {
		return inflect.Word{}, err
	}
	w, ok := s.doc.Lexicon.Word(inflect.WordID(id))
	if !ok {
		return inflect.Word{}, fmt.Errorf("word %d: %w", id, inflect.ErrNotFound)
	}
	return w, nil
}

func runDecline(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.word(args[0])
	if err != nil {
		return err
	}
	form, err := s.doc.Engine.Decline(w, inflect.CombinedKey(args[1]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), form)
	return nil
}

func runGrid(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.word(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if gridX < 0 {
		table, err := s.doc.Engine.Grid(ctx, w)
		if err != nil {
			return err
		}
		t := newTable(fmt.Sprintf("%s (word %d)", w.Value, w.ID), "key", "form", "value", "source")
		for _, c := range table.Cells {
			t.addRow(string(c.Key), c.Label, cellText(c), sourceText(c))
		}
		fmt.Fprint(out, t.render())
		return nil
	}

	fixed := make(map[int]int, len(gridFix))
	for axis, v := range gridFix {
		id, err := parseID("axis", axis)
		if err != nil {
			return err
		}
		fixed[id] = v
	}
	partial, err := s.doc.Engine.SheetKey(w.PartOfSpeech, gridX, gridY, fixed)
	if err != nil {
		return err
	}
	sheet, err := s.doc.Engine.Sheet(ctx, w, partial)
	if err != nil {
		return err
	}
	headers := []string{""}
	for _, c := range sheet.Columns {
		headers = append(headers, c.Label)
	}
	t := newTable(fmt.Sprintf("%s %s", w.Value, partial), headers...)
	for r, row := range sheet.Rows {
		cells := []string{row.Label}
		for _, c := range sheet.Cells[r] {
			cells = append(cells, cellText(c))
		}
		t.addRow(cells...)
	}
	fmt.Fprint(out, t.render())
	return nil
}

func cellText(c inflect.Cell) string {
	if c.Err != nil {
		return "-"
	}
	return c.Value
}

func sourceText(c inflect.Cell) string {
	switch {
	case c.Err != nil:
		return c.Err.Error()
	case c.Source == inflect.SourceOverride:
		return "override"
	}
	return fmt.Sprintf("rule %d", c.RuleID)
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.word(args[0])
	if err != nil {
		return err
	}
	x, err := s.doc.Engine.Explain(w, inflect.CombinedKey(args[1]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%s)\n", styles.title.Render(w.Value), x.Key, x.Label)
	if x.Override != nil {
		used := "ignored"
		if w.OverrideAutoGeneration {
			used = "used"
		}
		fmt.Fprintf(out, "  override %q (%s)\n", *x.Override, used)
	}
	if x.Suppressed {
		fmt.Fprintln(out, "  suppressed")
	}
	for _, c := range x.Considered {
		mark := styles.bad.Render("x")
		if c.Matched {
			mark = styles.good.Render("*")
		}
		line := fmt.Sprintf("  %s rule %d %q priority %d", mark, c.RuleID, c.Name, c.Priority)
		if c.Reason != "" {
			line += ": " + c.Reason
		}
		fmt.Fprintln(out, line)
	}
	for _, st := range x.Steps {
		if st.Skipped {
			fmt.Fprintf(out, "      step %d %s skipped\n", st.Index, st.Kind)
			continue
		}
		fmt.Fprintf(out, "      step %d %s: %s -> %s\n", st.Index, st.Kind, st.Before, st.After)
	}
	if x.Err != nil {
		fmt.Fprintln(out, styles.bad.Render("error: "+x.Err.Error()))
		return nil
	}
	fmt.Fprintf(out, "= %s\n", x.Result)
	return nil
}
