package model

import "time"

// ReconcileRun is the persisted audit record of one reconcile pass,
// kept so operators can see when broker truth last flowed in and what
// it changed.
type ReconcileRun struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OK      bool `json:"ok"`
	Scanned int  `json:"scanned"`
	Matched int  `json:"matched"`
	Updated int  `json:"updated"`

	// Newline-joined pass errors, empty on a clean run.
	Errors string `gorm:"type:text" json:"errors,omitempty"`

	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (ReconcileRun) TableName() string {
	return "reconcile_runs"
}
