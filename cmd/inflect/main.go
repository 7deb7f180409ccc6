// Command inflect declines words of a language document from the command
// line and serves the HTTP API.
package main

import (
	"database/sql"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect"
	"github.com/polyglot-tools/inflect/internal/config"
	"github.com/polyglot-tools/inflect/internal/logging"
	"github.com/polyglot-tools/inflect/internal/store"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "inflect",
	Short: "Conjugation and declension engine",
	Long: `inflect generates the inflected forms of words from a YAML language
document: dimension axes per part of speech, prioritised transformation
rules, suppressed forms and hand-entered overrides.

Overrides and suppression marks edited here are kept in the SQLite
database named by --db (store.path) and replayed on every run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(func() { config.Init(cfgFile) })

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/inflect/config.yaml)")
	pf.String("doc", "", "language document")
	pf.String("db", "", "SQLite database holding overrides and suppression marks")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	bindPersistentFlag("document.path", "doc")
	bindPersistentFlag("store.path", "db")
}

func bindPersistentFlag(key, name string) {
	_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
}

func bindFlag(cmd *cobra.Command, key, name string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(name))
}

// session is a loaded document with its edits replayed.
type session struct {
	doc   *inflect.Document
	db    *sql.DB
	store *store.Store
}

func openSession() (*session, error) {
	doc, err := inflect.LoadFile(cfg.Document.Path, cfg.EngineOptions(logger.Named("engine"))...)
	if err != nil {
		return nil, err
	}
	db, err := store.OpenDB(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	st := store.New(db, doc.Engine, doc.Lexicon, logger)
	if _, err := st.Restore(); err != nil {
		db.Close()
		return nil, err
	}
	return &session{doc: doc, db: db, store: st}, nil
}

func (s *session) Close() error { return s.db.Close() }

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
