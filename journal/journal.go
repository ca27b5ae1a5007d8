// Package journal records evaluated MiniLisp forms in a SQLite database,
// one session per interpreter run.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	session TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	form    TEXT NOT NULL,
	result  TEXT NOT NULL,
	error   TEXT NOT NULL,
	at      TEXT NOT NULL,
	PRIMARY KEY (session, seq)
)`

// timeLayout is RFC 3339 with a fixed-width fraction, so that the text
// order of stored times is their chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded evaluation.
// Exactly one of Result and Error is non-empty.
type Entry struct {
	Session string
	Seq     int
	Form    string
	Result  string
	Error   string
	At      time.Time
}

// Journal appends entries for a single session.
type Journal struct {
	db      *sql.DB
	session string
	now     func() time.Time

	mu  sync.Mutex
	seq int
}

// Open opens (or creates) the journal database at path and starts a
// new session in it.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	return &Journal{db: db, session: uuid.NewString(), now: time.Now}, nil
}

// Session returns the id of the session being recorded.
func (j *Journal) Session() string {
	return j.session
}

// Record appends an entry for form.  If evalErr is not nil it is recorded
// in place of result.
func (j *Journal) Record(form, result string, evalErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	errText := ""
	if evalErr != nil {
		errText = evalErr.Error()
		result = ""
	}
	_, err := j.db.Exec(
		`INSERT INTO entries (session, seq, form, result, error, at) VALUES (?, ?, ?, ?, ?, ?)`,
		j.session, j.seq+1, form, result, errText, j.now().UTC().Format(timeLayout))
	if err != nil {
		return err
	}
	j.seq++
	return nil
}

// Entries returns the entries of session in the order they were recorded.
func (j *Journal) Entries(session string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT session, seq, form, result, error, at FROM entries WHERE session = ? ORDER BY seq`,
		session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.Session, &e.Seq, &e.Form, &e.Result, &e.Error, &at); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("entry %d of %s: %w", e.Seq, session, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sessions returns the ids of all recorded sessions, oldest first.
func (j *Journal) Sessions() ([]string, error) {
	rows, err := j.db.Query(
		`SELECT session FROM entries GROUP BY session ORDER BY MIN(at), session`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
