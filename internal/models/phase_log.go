package models

import "time"

type PhaseLog struct {
	ID             int64
	SessionID      int64
	SequenceNum    int // timeline position of the phase
	Kind           string
	Label          string
	Round          int
	PlannedSeconds int
	ElapsedSeconds int
	Skipped        bool
	StartedAt      time.Time
	CompletedAt    *time.Time
}
