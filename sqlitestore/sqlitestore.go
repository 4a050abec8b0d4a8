// Package sqlitestore provides a ScrollbackProvider backed by SQLite,
// letting an embedder keep scrollback beyond the in-memory ring — across
// detach/reattach in a multiplexer, or across process restarts for a
// recorder. Lines evicted from the live grid land here; they are read
// back as text-only history (per-cell SGR is flattened on the way in).
package sqlitestore

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	headlessvt "github.com/dveys/headlessvt"
)

// Store is a SQLite-backed scrollback sink. It satisfies
// headlessvt.ScrollbackProvider; attach it with
// headlessvt.WithScrollback(store).
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	maxLines int

	// seq is the rowid-style ordinal of the next line; kept in memory so
	// Push doesn't need a MAX() query per call.
	seq int64
	// count caches the stored line count for the same reason.
	count int
}

// Open creates (or reopens) a store at path. Use ":memory:" for an
// ephemeral store. maxLines <= 0 means unlimited.
func Open(path string, maxLines int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %q: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scrollback (
		seq  INTEGER PRIMARY KEY,
		text TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	s := &Store{db: db, maxLines: maxLines}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(MAX(seq), -1) FROM scrollback`)
	var maxSeq int64
	if err := row.Scan(&s.count, &maxSeq); err != nil {
		return fmt.Errorf("sqlitestore: load: %w", err)
	}
	s.seq = maxSeq + 1
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Push appends one evicted line, trimming the oldest rows past MaxLines.
func (s *Store) Push(line []headlessvt.Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := cellsToText(line)
	if _, err := s.db.Exec(`INSERT INTO scrollback (seq, text) VALUES (?, ?)`, s.seq, text); err != nil {
		return
	}
	s.seq++
	s.count++
	if s.maxLines > 0 && s.count > s.maxLines {
		overflow := s.count - s.maxLines
		if _, err := s.db.Exec(
			`DELETE FROM scrollback WHERE seq IN (SELECT seq FROM scrollback ORDER BY seq LIMIT ?)`,
			overflow,
		); err == nil {
			s.count -= overflow
		}
	}
}

// Len returns the number of stored lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Line returns the line at index (0 = oldest), or nil if out of range.
func (s *Store) Line(index int) []headlessvt.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= s.count {
		return nil
	}
	row := s.db.QueryRow(
		`SELECT text FROM scrollback ORDER BY seq LIMIT 1 OFFSET ?`, index,
	)
	var text string
	if err := row.Scan(&text); err != nil {
		return nil
	}
	return textToCells(text)
}

// Pop removes and returns the newest stored line, or nil when empty. The
// grid calls this when the page grows and re-uncovers history.
func (s *Store) Pop() []headlessvt.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return nil
	}
	row := s.db.QueryRow(`SELECT seq, text FROM scrollback ORDER BY seq DESC LIMIT 1`)
	var seq int64
	var text string
	if err := row.Scan(&seq, &text); err != nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM scrollback WHERE seq = ?`, seq); err != nil {
		return nil
	}
	s.count--
	return textToCells(text)
}

// Clear removes all stored lines.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM scrollback`); err != nil {
		return
	}
	s.count = 0
}

// SetMaxLines changes the capacity, trimming immediately if exceeded.
func (s *Store) SetMaxLines(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxLines = max
	if max > 0 && s.count > max {
		overflow := s.count - max
		if _, err := s.db.Exec(
			`DELETE FROM scrollback WHERE seq IN (SELECT seq FROM scrollback ORDER BY seq LIMIT ?)`,
			overflow,
		); err == nil {
			s.count -= overflow
		}
	}
}

// MaxLines returns the current capacity; 0 means unlimited.
func (s *Store) MaxLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxLines
}

var _ headlessvt.ScrollbackProvider = (*Store)(nil)

// cellsToText flattens a cell row to its text, skipping wide-cell spacer
// columns and trimming trailing blanks.
func cellsToText(cells []headlessvt.Cell) string {
	var b strings.Builder
	for i := range cells {
		c := &cells[i]
		if c.IsWideSpacer() {
			continue
		}
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
		for _, ext := range c.Extra {
			b.WriteRune(ext)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// textToCells rebuilds a plain-rendition cell row from stored text.
func textToCells(text string) []headlessvt.Cell {
	runes := []rune(text)
	cells := make([]headlessvt.Cell, len(runes))
	for i, r := range runes {
		c := headlessvt.NewCell()
		c.Char = r
		cells[i] = c
	}
	return cells
}
