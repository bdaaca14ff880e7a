// Package models defines the GORM entities for Benchline.
package models

import (
	"encoding/json"
	"time"
)

// Work order statuses.
const (
	OrderDraft      = "draft"
	OrderAssigned   = "assigned"
	OrderScheduled  = "scheduled"
	OrderInProgress = "in_progress"
	OrderDone       = "done"
	OrderCancelled  = "cancelled"
)

// WorkOrder is a batch of product items moving through production.
type WorkOrder struct {
	ID           string `gorm:"primaryKey;size:32"`
	Title        string `gorm:"not null"`
	Customer     string `gorm:"size:128"`
	Steps        string `gorm:"type:json"` // ordered pipeline stage names
	Status       string `gorm:"size:16;default:draft;index"`
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	IsScheduled  bool `gorm:"default:false;index"`
	DueDate      *time.Time
	TotalCost    float64 `gorm:"default:0"`
	TotalPrice   float64 `gorm:"default:0"`
	Profit       float64 `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items     []Item     `gorm:"foreignKey:OrderID"`
	Materials []Material `gorm:"foreignKey:OrderID"`
}

// StepList decodes the ordered pipeline stage names.
func (o *WorkOrder) StepList() []string {
	if o.Steps == "" {
		return nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(o.Steps), &steps); err != nil {
		return nil
	}
	return steps
}

// SetSteps encodes the ordered pipeline stage names.
func (o *WorkOrder) SetSteps(steps []string) error {
	data, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	o.Steps = string(data)
	return nil
}

// Material is a purchased input tracked against a work order. ReceivedAt
// is optional; materials without it never appear on item timelines.
type Material struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	OrderID    string `gorm:"size:32;index;not null"`
	Name       string `gorm:"size:128;not null"`
	Quantity   float64
	UnitCost   float64
	ReceivedAt *time.Time
	CreatedAt  time.Time
}

// DateOf truncates a timestamp to its UTC calendar day. All scheduling
// and timeline math runs on day granularity.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
