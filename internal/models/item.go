package models

import (
	"encoding/json"
	"time"
)

// Item and sub-task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusDeferred   = "deferred"
)

// Item is one product line within a work order. An item is tracked
// either through per-stage Assignments (legacy mode) or through
// SubTasks (split mode); Mode returns which.
type Item struct {
	ID          string `gorm:"primaryKey;size:32"`
	OrderID     string `gorm:"size:32;index;not null"`
	Product     string `gorm:"size:128;not null"`
	Quantity    int    `gorm:"not null"`
	UnitPrice   float64
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Order       *WorkOrder    `gorm:"foreignKey:OrderID"`
	Assignments []Assignment  `gorm:"foreignKey:ItemID"`
	SubTasks    []SubTask     `gorm:"foreignKey:ItemID"`
	Pauses      []PausePeriod `gorm:"foreignKey:ItemID"`
}

// ItemMode is the tagged variant over the item's two tracking modes.
type ItemMode interface {
	isItemMode()
}

// LegacyMode tracks an item through one Assignment per pipeline stage.
type LegacyMode struct {
	Assignments []Assignment
}

// SplitMode tracks an item through independently-worked SubTasks.
type SplitMode struct {
	SubTasks []SubTask
}

func (LegacyMode) isItemMode() {}
func (SplitMode) isItemMode()  {}

// Mode resolves the item's tracking mode. SubTasks and Assignments must
// be preloaded; an item with any sub-tasks is in split mode.
func (it *Item) Mode() ItemMode {
	if len(it.SubTasks) > 0 {
		return SplitMode{SubTasks: it.SubTasks}
	}
	return LegacyMode{Assignments: it.Assignments}
}

// SubTask is an independently tracked partition of an item's quantity.
// The sub-task quantities of an item always sum to the item quantity.
type SubTask struct {
	ID          string `gorm:"primaryKey;size:32"`
	ItemID      string `gorm:"size:32;index;not null"`
	Quantity    int    `gorm:"not null"`
	Position    int    `gorm:"not null;default:0"` // creation order within the item
	CurrentStep string `gorm:"size:64"`
	Status      string `gorm:"size:16;default:pending;index"`
	WorkerID    string `gorm:"size:32;index"`
	HelperIDs   string `gorm:"type:json"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Item   *Item         `gorm:"foreignKey:ItemID"`
	Pauses []PausePeriod `gorm:"foreignKey:SubTaskID"`
}

// Helpers decodes the helper worker IDs.
func (s *SubTask) Helpers() []string {
	return decodeIDs(s.HelperIDs)
}

// SetHelpers encodes the helper worker IDs.
func (s *SubTask) SetHelpers(ids []string) error {
	enc, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	s.HelperIDs = enc
	return nil
}

// Assignment binds a worker and status to one (item, stage) pair in
// legacy mode. StepOrder is the stage's position in the order pipeline.
type Assignment struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ItemID      string `gorm:"size:32;index;not null"`
	Step        string `gorm:"size:64;not null"`
	StepOrder   int    `gorm:"not null"`
	WorkerID    string `gorm:"size:32;index"`
	HelperIDs   string `gorm:"type:json"`
	Status      string `gorm:"size:16;default:pending"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// Helpers decodes the helper worker IDs.
func (a *Assignment) Helpers() []string {
	return decodeIDs(a.HelperIDs)
}

// SetHelpers encodes the helper worker IDs.
func (a *Assignment) SetHelpers(ids []string) error {
	enc, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	a.HelperIDs = enc
	return nil
}

func decodeIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func encodeIDs(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
