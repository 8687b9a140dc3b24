package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpataki/drill/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sql.DB
}

var _ Store = (*Storage)(nil)

func New(dbPath string) (*Storage, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(2)

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guid TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		workout_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		total_planned INTEGER NOT NULL DEFAULT 0,
		total_elapsed INTEGER NOT NULL DEFAULT 0,
		phase_count INTEGER NOT NULL DEFAULT 0,
		phases_completed INTEGER NOT NULL DEFAULT 0,
		phases_skipped INTEGER NOT NULL DEFAULT 0,
		rounds INTEGER NOT NULL DEFAULT 0,
		rounds_completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS phase_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		sequence_num INTEGER NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		round INTEGER NOT NULL,
		planned_seconds INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	CREATE INDEX IF NOT EXISTS idx_phase_logs_session ON phase_logs(session_id, sequence_num);
	`

	_, err := s.db.Exec(schema)
	return err
}

const sessionColumns = `id, guid, created_at, completed_at, workout_name, status,
	total_planned, total_elapsed, phase_count, phases_completed, phases_skipped, rounds, rounds_completed`

func scanSession(scanner interface{ Scan(...any) error }) (*models.Session, error) {
	var sess models.Session
	var completedAt sql.NullTime

	err := scanner.Scan(
		&sess.ID, &sess.GUID, &sess.CreatedAt, &completedAt, &sess.WorkoutName, &sess.Status,
		&sess.TotalPlanned, &sess.TotalElapsed, &sess.PhaseCount, &sess.PhasesCompleted,
		&sess.PhasesSkipped, &sess.Rounds, &sess.RoundsCompleted,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		sess.CompletedAt = &completedAt.Time
	}
	return &sess, nil
}

// CreateSession inserts a session row. A GUID and creation time are
// assigned when missing.
func (s *Storage) CreateSession(sess *models.Session) (int64, error) {
	if sess.GUID == "" {
		sess.GUID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if sess.Status == "" {
		sess.Status = models.SessionStatusRunning
	}

	var id int64
	err := retryOnContention(func() error {
		result, err := s.db.Exec(
			`INSERT INTO sessions (guid, created_at, completed_at, workout_name, status,
				total_planned, total_elapsed, phase_count, phases_completed, phases_skipped, rounds, rounds_completed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.GUID, sess.CreatedAt, sess.CompletedAt, sess.WorkoutName, sess.Status,
			sess.TotalPlanned, sess.TotalElapsed, sess.PhaseCount, sess.PhasesCompleted,
			sess.PhasesSkipped, sess.Rounds, sess.RoundsCompleted,
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (s *Storage) GetSession(id int64) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return sess, err
}

func (s *Storage) UpdateSession(sess *models.Session) error {
	return retryOnContention(func() error {
		_, err := s.db.Exec(
			`UPDATE sessions SET completed_at = ?, status = ?, total_elapsed = ?, phases_completed = ?,
				phases_skipped = ?, rounds_completed = ?
			 WHERE id = ?`,
			sess.CompletedAt, sess.Status, sess.TotalElapsed, sess.PhasesCompleted,
			sess.PhasesSkipped, sess.RoundsCompleted, sess.ID,
		)
		return err
	})
}

func (s *Storage) ListSessions(limit int) ([]*models.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

func (s *Storage) CreatePhaseLog(entry *models.PhaseLog) (int64, error) {
	var id int64
	err := retryOnContention(func() error {
		result, err := s.db.Exec(
			`INSERT INTO phase_logs (session_id, sequence_num, kind, label, round, planned_seconds,
				elapsed_seconds, skipped, started_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.SessionID, entry.SequenceNum, entry.Kind, entry.Label, entry.Round, entry.PlannedSeconds,
			entry.ElapsedSeconds, entry.Skipped, entry.StartedAt, entry.CompletedAt,
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert phase log: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdatePhaseLog(entry *models.PhaseLog) error {
	return retryOnContention(func() error {
		_, err := s.db.Exec(
			`UPDATE phase_logs SET elapsed_seconds = ?, skipped = ?, completed_at = ? WHERE id = ?`,
			entry.ElapsedSeconds, entry.Skipped, entry.CompletedAt, entry.ID,
		)
		return err
	})
}

func (s *Storage) GetPhaseLogs(sessionID int64) ([]*models.PhaseLog, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, sequence_num, kind, label, round, planned_seconds, elapsed_seconds,
			skipped, started_at, completed_at
		 FROM phase_logs WHERE session_id = ? ORDER BY sequence_num, id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.PhaseLog
	for rows.Next() {
		var entry models.PhaseLog
		var completedAt sql.NullTime

		err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.SequenceNum, &entry.Kind, &entry.Label, &entry.Round,
			&entry.PlannedSeconds, &entry.ElapsedSeconds, &entry.Skipped, &entry.StartedAt, &completedAt,
		)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			entry.CompletedAt = &completedAt.Time
		}
		logs = append(logs, &entry)
	}

	return logs, rows.Err()
}

func (s *Storage) DeleteSession(id int64) error {
	return retryOnContention(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM phase_logs WHERE session_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("session %d: %w", id, ErrNotFound)
		}

		return tx.Commit()
	})
}

// Totals aggregates completed training time across all sessions.
type Totals struct {
	Sessions          int
	CompletedSessions int
	ElapsedSeconds    int
}

func (s *Storage) Totals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'complete' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(total_elapsed), 0)
		 FROM sessions`,
	).Scan(&t.Sessions, &t.CompletedSessions, &t.ElapsedSeconds)
	return t, err
}

// FormatTimeAgo renders t relative to now for listings.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
