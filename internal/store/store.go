package store

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// OverrideRow is one persisted override.
type OverrideRow struct {
	Word  inflect.WordID
	Pos   inflect.PartOfSpeechID
	Key   inflect.CombinedKey
	Value string
}

// SuppressionRow is one persisted suppression mark.
type SuppressionRow struct {
	Pos inflect.PartOfSpeechID
	Key inflect.CombinedKey
}

// SaveOverride inserts or replaces the override of word at key.
func SaveOverride(db DBExecutor, o OverrideRow) error {
	_, err := db.Exec(
		`INSERT INTO overrides (word_id, pos_id, form_key, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(word_id, form_key)
		 DO UPDATE SET pos_id = excluded.pos_id, value = excluded.value, updated = CURRENT_TIMESTAMP`,
		int64(o.Word), int64(o.Pos), string(o.Key), o.Value,
	)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// DeleteOverride removes one override. Missing rows are not an error.
func DeleteOverride(db DBExecutor, word inflect.WordID, key inflect.CombinedKey) error {
	if _, err := db.Exec(`DELETE FROM overrides WHERE word_id = ? AND form_key = ?`, int64(word), string(key)); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// DeleteWordOverrides removes every override of word.
func DeleteWordOverrides(db DBExecutor, word inflect.WordID) error {
	if _, err := db.Exec(`DELETE FROM overrides WHERE word_id = ?`, int64(word)); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	return nil
}

// ListOverrides returns every override ordered by word then key.
func ListOverrides(db DBExecutor) ([]OverrideRow, error) {
	rows, err := db.Query(`SELECT word_id, pos_id, form_key, value FROM overrides ORDER BY word_id, form_key`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var out []OverrideRow
	for rows.Next() {
		var (
			word, pos int64
			key       string
			o         OverrideRow
		)
		if err := rows.Scan(&word, &pos, &key, &o.Value); err != nil {
			return nil, err
		}
		o.Word, o.Pos, o.Key = inflect.WordID(word), inflect.PartOfSpeechID(pos), inflect.CombinedKey(key)
		out = append(out, o)
	}
	return out, rows.Err()
}

// SaveSuppression records or clears the suppression mark of key.
func SaveSuppression(db DBExecutor, pos inflect.PartOfSpeechID, key inflect.CombinedKey, suppressed bool) error {
	var err error
	if suppressed {
		_, err = db.Exec(`INSERT OR IGNORE INTO suppressions (pos_id, form_key) VALUES (?, ?)`, int64(pos), string(key))
	} else {
		_, err = db.Exec(`DELETE FROM suppressions WHERE pos_id = ? AND form_key = ?`, int64(pos), string(key))
	}
	if err != nil {
		return fmt.Errorf("save suppression: %w", err)
	}
	return nil
}

// ListSuppressions returns every suppression mark ordered by part of speech
// then key.
func ListSuppressions(db DBExecutor) ([]SuppressionRow, error) {
	rows, err := db.Query(`SELECT pos_id, form_key FROM suppressions ORDER BY pos_id, form_key`)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []SuppressionRow
	for rows.Next() {
		var (
			pos int64
			key string
		)
		if err := rows.Scan(&pos, &key); err != nil {
			return nil, err
		}
		out = append(out, SuppressionRow{Pos: inflect.PartOfSpeechID(pos), Key: inflect.CombinedKey(key)})
	}
	return out, rows.Err()
}

// Store keeps an engine and its database in step: every edit goes to the
// engine first and is only persisted when the engine accepts it.
type Store struct {
	db  *sql.DB
	eng *inflect.Engine
	lex *inflect.Lexicon
	log *zap.Logger
}

// New wraps db for eng. Words are resolved through lex.
func New(db *sql.DB, eng *inflect.Engine, lex *inflect.Lexicon, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, eng: eng, lex: lex, log: logger}
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// RestoreStats counts what Restore applied.
type RestoreStats struct {
	Overrides    int
	Suppressions int
	Skipped      int
}

// Restore replays persisted suppressions and overrides onto the engine.
// Rows for unknown words or keys that no longer fit the layout are skipped
// and logged, not deleted.
func (s *Store) Restore() (RestoreStats, error) {
	var stats RestoreStats

	sups, err := ListSuppressions(s.db)
	if err != nil {
		return stats, err
	}
	for _, r := range sups {
		if err := s.eng.SetSuppressed(r.Pos, r.Key, true); err != nil {
			s.log.Warn("skipping stored suppression",
				zap.Int("pos", int(r.Pos)), zap.String("key", string(r.Key)), zap.Error(err))
			stats.Skipped++
			continue
		}
		stats.Suppressions++
	}

	ovs, err := ListOverrides(s.db)
	if err != nil {
		return stats, err
	}
	for _, r := range ovs {
		w, ok := s.lex.Word(r.Word)
		if !ok {
			s.log.Warn("skipping override of unknown word", zap.Int64("word", int64(r.Word)))
			stats.Skipped++
			continue
		}
		if err := s.eng.SetOverride(w, r.Key, r.Value); err != nil {
			s.log.Warn("skipping stored override",
				zap.Int64("word", int64(r.Word)), zap.String("key", string(r.Key)), zap.Error(err))
			stats.Skipped++
			continue
		}
		stats.Overrides++
	}
	return stats, nil
}

// ErrUnknownWord is returned for word ids missing from the lexicon.
var ErrUnknownWord = errors.New("unknown word")

func (s *Store) word(id inflect.WordID) (inflect.Word, error) {
	w, ok := s.lex.Word(id)
	if !ok {
		return inflect.Word{}, fmt.Errorf("word %d: %w", id, ErrUnknownWord)
	}
	return w, nil
}

// SetOverride sets and persists an override.
func (s *Store) SetOverride(word inflect.WordID, key inflect.CombinedKey, value string) error {
	w, err := s.word(word)
	if err != nil {
		return err
	}
	if err := s.eng.SetOverride(w, key, value); err != nil {
		return err
	}
	return SaveOverride(s.db, OverrideRow{Word: w.ID, Pos: w.PartOfSpeech, Key: key, Value: value})
}

// ClearOverride clears and forgets an override.
func (s *Store) ClearOverride(word inflect.WordID, key inflect.CombinedKey) error {
	s.eng.ClearOverride(word, key)
	return DeleteOverride(s.db, word, key)
}

// ClearOverrides clears and forgets every override of word.
func (s *Store) ClearOverrides(word inflect.WordID) error {
	s.eng.ClearOverrides(word)
	return DeleteWordOverrides(s.db, word)
}

// SetSuppressed marks or unmarks key and persists the mark.
func (s *Store) SetSuppressed(pos inflect.PartOfSpeechID, key inflect.CombinedKey, suppressed bool) error {
	if err := s.eng.SetSuppressed(pos, key, suppressed); err != nil {
		return err
	}
	return SaveSuppression(s.db, pos, key, suppressed)
}
