// Command server exposes an inflect language document as a JSON REST API.
// See package internal/server for the endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/polyglot-tools/inflect/internal/config"
	"github.com/polyglot-tools/inflect/internal/logging"
	"github.com/polyglot-tools/inflect/internal/server"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/inflect/config.yaml)")
	doc := flag.String("doc", "", "language document (overrides document.path)")
	db := flag.String("db", "", "SQLite database for edits (overrides store.path)")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	watch := flag.Bool("watch", false, "reload the document when it changes")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	config.Init(*cfgFile)
	if *doc != "" {
		viper.Set("document.path", *doc)
	}
	if *db != "" {
		viper.Set("store.path", *db)
	}
	if *addr != "" {
		viper.Set("server.addr", *addr)
	}
	if *watch {
		viper.Set("server.watch", true)
	}

	if err := run(*verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, cfg, logger)
}
