package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polyglot-tools/inflect/internal/server"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <form>...",
	Short: "Find which words and forms produce each token",
	Example: `  inflect lookup lupi
  inflect lookup "Puella lupum amat"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().Bool("watch", false, "reload the document when it changes")
	bindFlag(serveCmd, "server.addr", "addr")
	bindFlag(serveCmd, "server.watch", "watch")

	rootCmd.AddCommand(lookupCmd, serveCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ix, err := s.doc.Engine.Index(ctx, s.doc.Lexicon.Words())
	if err != nil {
		return err
	}

	t := newTable("", "token", "word", "key", "form", "source")
	for _, m := range ix.LookupText(strings.Join(args, " ")) {
		if len(m.Results) == 0 {
			t.addRow(m.Token, "?", "", "", "")
			continue
		}
		for _, r := range m.Results {
			t.addRow(m.Token, fmt.Sprintf("%s (%d)", r.Word.Value, r.Word.ID), string(r.Key), r.Label, r.Source.String())
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), t.render())
	return nil
}
