package state

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mferal/undertow/internal/playback"
)

const (
	appName      = "undertow"
	dbFileName   = "undertow.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager persists playback state to SQLite. Saves are debounced so a
// position tick every 250ms does not turn into a disk write every 250ms;
// Close flushes whatever is pending.
type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *playback.State
}

func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens the store at an explicit path. Tests use ":memory:".
func OpenPath(dbPath string) (*Manager, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		if err := savePlayback(m.db, *pending); err != nil {
			log.Printf("state: flush on close failed: %v", err)
		}
	}

	return m.db.Close()
}

// GetPlayback returns the persisted state, or nil when none was saved. A
// row that cannot be read counts as absent; startup never fails on a bad
// cache.
func (m *Manager) GetPlayback() *playback.State {
	row := m.db.QueryRow(`
		SELECT track_index, position_ms, playing, started_at_ms
		FROM playback_state WHERE id = 1
	`)

	var trackIndex int
	var positionMS, startedAtMS int64
	var playing bool
	if err := row.Scan(&trackIndex, &positionMS, &playing, &startedAtMS); err != nil {
		if err != sql.ErrNoRows {
			log.Printf("state: discarding unreadable playback state: %v", err)
		}
		return nil
	}

	return &playback.State{
		TrackIndex: trackIndex,
		Position:   time.Duration(positionMS) * time.Millisecond,
		Playing:    playing,
		StartedAt:  time.UnixMilli(startedAtMS),
	}
}

// SavePlayback stages the state for a debounced write. The most recent
// state wins; intermediate snapshots within the debounce window are
// dropped on purpose.
func (m *Manager) SavePlayback(s playback.State) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &s

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			if err := savePlayback(m.db, *pending); err != nil {
				log.Printf("state: save failed: %v", err)
			}
		}
	})

	return nil
}

// Flush writes any staged state immediately. Used by tests and by callers
// that need durability before a known exit point.
func (m *Manager) Flush() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending == nil {
		return nil
	}
	return savePlayback(m.db, *pending)
}

func savePlayback(db *sql.DB, s playback.State) error {
	_, err := db.Exec(`
		INSERT INTO playback_state (id, track_index, position_ms, playing, started_at_ms)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			track_index = excluded.track_index,
			position_ms = excluded.position_ms,
			playing = excluded.playing,
			started_at_ms = excluded.started_at_ms
	`, s.TrackIndex, s.Position.Milliseconds(), s.Playing, s.StartedAt.UnixMilli())

	return err
}

var _ playback.Persister = (*Manager)(nil)
