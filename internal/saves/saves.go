// Package saves keeps numbered save slots for the terminal player in a local
// SQLite file.
package saves

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/novel-engine/pkg/playback"

	// pure-Go driver, registers "sqlite"
	_ "modernc.org/sqlite"
)

// MaxSlots is the number of save slots offered.
const MaxSlots = 9

const schema = `CREATE TABLE IF NOT EXISTS saves (
	slot     INTEGER PRIMARY KEY,
	script   TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	saved_at TEXT NOT NULL
);`

// Slot is one saved game.
type Slot struct {
	Number  int
	Script  string
	Label   string
	SavedAt time.Time
	Session *playback.Session
}

// Store is a save file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the save file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("save file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create save dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create saves table: %w", err)
	}

	logger.Debug("Save file ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the save file.
func (s *Store) Close() error {
	return s.db.Close()
}

func checkSlot(slot int) error {
	if slot < 1 || slot > MaxSlots {
		return fmt.Errorf("slot %d outside 1..%d", slot, MaxSlots)
	}
	return nil
}

// Save writes a session into a slot, replacing what was there.
func (s *Store) Save(ctx context.Context, slot int, sess *playback.Session, label string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if sess == nil {
		return errors.New("session cannot be nil")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO saves (slot, script, snapshot, label, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			script = excluded.script,
			snapshot = excluded.snapshot,
			label = excluded.label,
			saved_at = excluded.saved_at`,
		slot, sess.Script, string(data), label, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("Failed to save slot", "slot", slot, "error", err)
		return fmt.Errorf("failed to save slot %d: %w", slot, err)
	}
	s.logger.Info("Saved", "slot", slot, "script", sess.Script, "index", sess.State.Index)
	return nil
}

// Load reads a slot. An empty slot is (nil, nil).
func (s *Store) Load(ctx context.Context, slot int) (*Slot, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT slot, script, snapshot, label, saved_at FROM saves WHERE slot = ?`, slot)

	out, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %d: %w", slot, err)
	}
	return out, nil
}

// List returns the used slots in slot order.
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, script, snapshot, label, saved_at FROM saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list saves: %w", err)
		}
		slots = append(slots, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return slots, nil
}

// Delete empties a slot.
func (s *Store) Delete(ctx context.Context, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to delete slot %d: %w", slot, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSlot(row scanner) (*Slot, error) {
	var (
		out      Slot
		snapshot string
		savedAt  string
	)
	if err := row.Scan(&out.Number, &out.Script, &snapshot, &out.Label, &savedAt); err != nil {
		return nil, err
	}

	var sess playback.Session
	if err := json.Unmarshal([]byte(snapshot), &sess); err != nil {
		return nil, fmt.Errorf("corrupt snapshot in slot %d: %w", out.Number, err)
	}
	out.Session = &sess

	t, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp in slot %d: %w", out.Number, err)
	}
	out.SavedAt = t
	return &out, nil
}
