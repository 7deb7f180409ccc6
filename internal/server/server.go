// Package server exposes an inflect language document as a JSON REST API.
//
// Endpoints:
//
//	GET    /api/parts
//	GET    /api/keys?pos=<id>[&all=true]
//	GET    /api/rules?pos=<id>
//	GET    /api/decline?word=<id>&key=<key>
//	GET    /api/grid?word=<id>
//	GET    /api/sheet?word=<id>&key=<partial key with X and Y markers>
//	GET    /api/explain?word=<id>&key=<key>
//	GET    /api/lookup?form=<form>
//	POST   /api/lookup/text   body: {"text":"..."}
//	PUT    /api/override      body: {"word":1,"key":",2,","value":"..."}
//	DELETE /api/override?word=<id>[&key=<key>]
//	PUT    /api/suppress      body: {"pos":1,"key":",2,","suppressed":true}
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect"
	"github.com/polyglot-tools/inflect/internal/store"
)

// Options configures a Server.
type Options struct {
	// DocPath is the YAML language document.
	DocPath string
	// DB holds persisted overrides and suppression marks.
	DB *sql.DB
	// EngineOptions are passed to every engine the server loads.
	EngineOptions []inflect.Option
	// AllowedOrigins are the CORS origins; empty allows none.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// state is one loaded document. A reload swaps the whole state.
type state struct {
	doc   *inflect.Document
	store *store.Store

	ixMu  sync.Mutex
	index *inflect.FormIndex
}

// Server serves one language document.
type Server struct {
	opts Options
	log  *zap.Logger

	mu  sync.RWMutex
	cur *state
}

// New loads the document and replays persisted edits onto it.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{opts: opts, log: opts.Logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the document. On failure the previous document stays
// live.
func (s *Server) Reload() error {
	doc, err := inflect.LoadFile(s.opts.DocPath, s.opts.EngineOptions...)
	if err != nil {
		return err
	}
	st := &state{doc: doc, store: store.New(s.opts.DB, doc.Engine, doc.Lexicon, s.log)}
	stats, err := st.store.Restore()
	if err != nil {
		return fmt.Errorf("restore edits: %w", err)
	}
	s.mu.Lock()
	s.cur = st
	s.mu.Unlock()

	s.log.Info("document loaded",
		zap.String("path", s.opts.DocPath),
		zap.String("name", doc.Name),
		zap.Int("words", doc.Lexicon.Len()),
		zap.Int("overrides", stats.Overrides),
		zap.Int("suppressions", stats.Suppressions),
		zap.Int("skipped", stats.Skipped))
	return nil
}

func (s *Server) state() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// lookupIndex returns the reverse-lookup index, building it on first use after
// the last edit.
func (st *state) lookupIndex(ctx context.Context) (*inflect.FormIndex, error) {
	st.ixMu.Lock()
	defer st.ixMu.Unlock()
	if st.index != nil {
		return st.index, nil
	}
	ix, err := st.doc.Engine.Index(ctx, st.doc.Lexicon.Words())
	if err != nil {
		return nil, err
	}
	st.index = ix
	return ix, nil
}

func (st *state) invalidateIndex() {
	st.ixMu.Lock()
	st.index = nil
	st.ixMu.Unlock()
}

// Watch reloads the document whenever its file is written, until ctx is
// done.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// editors replace files by rename, so watch the directory
	target := filepath.Clean(s.opts.DocPath)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Error("reload failed, keeping previous document", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Handler returns the API with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parts", s.handleParts)
	mux.HandleFunc("/api/keys", s.handleKeys)
	mux.HandleFunc("/api/rules", s.handleRules)
	mux.HandleFunc("/api/decline", s.handleDecline)
	mux.HandleFunc("/api/grid", s.handleGrid)
	mux.HandleFunc("/api/sheet", s.handleSheet)
	mux.HandleFunc("/api/explain", s.handleExplain)
	mux.HandleFunc("/api/lookup/text", s.handleLookupText)
	mux.HandleFunc("/api/lookup", s.handleLookup)
	mux.HandleFunc("/api/override", s.handleOverride)
	mux.HandleFunc("/api/suppress", s.handleSuppress)

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return s.withRequestID(c.Handler(mux))
}
