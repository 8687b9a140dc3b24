package storage

import "github.com/mpataki/drill/internal/models"

// Store is the persistence surface used by the session recorder and the CLI.
// *Storage implements it; tests may substitute their own.
type Store interface {
	Close() error

	CreateSession(sess *models.Session) (int64, error)
	GetSession(id int64) (*models.Session, error)
	UpdateSession(sess *models.Session) error
	ListSessions(limit int) ([]*models.Session, error)
	DeleteSession(id int64) error

	CreatePhaseLog(entry *models.PhaseLog) (int64, error)
	UpdatePhaseLog(entry *models.PhaseLog) error
	GetPhaseLogs(sessionID int64) ([]*models.PhaseLog, error)

	Totals() (Totals, error)
}
