package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DecomposeCall is one audited /decompose invocation.
type DecomposeCall struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   string         `gorm:"column:request_id;index" json:"request_id"`
	Engine      string         `gorm:"column:engine;not null" json:"engine"`
	Model       string         `gorm:"column:model;not null" json:"model"`
	Task        string         `gorm:"column:task" json:"task"`
	Preferences datatypes.JSON `gorm:"column:preferences" json:"preferences,omitempty"`
	Outcome     string         `gorm:"column:outcome;not null;index" json:"outcome"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	RawOutput   string         `gorm:"column:raw_output" json:"raw_output,omitempty"`
	StepCount   int            `gorm:"column:step_count" json:"step_count"`
	DurationMS  int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (DecomposeCall) TableName() string {
	return "decompose_call"
}
