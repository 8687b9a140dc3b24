package models

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusComplete  SessionStatus = "complete"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

type Session struct {
	ID              int64
	GUID            string
	CreatedAt       time.Time
	CompletedAt     *time.Time
	WorkoutName     string
	Status          SessionStatus
	TotalPlanned    int
	TotalElapsed    int
	PhaseCount      int
	PhasesCompleted int
	PhasesSkipped   int
	Rounds          int
	RoundsCompleted int
}
