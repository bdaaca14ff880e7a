package models

import "time"

// PausePeriod marks an interval during which an item or sub-task is not
// being worked and accrues no labor. Exactly one of ItemID/SubTaskID is
// set. A nil EndedAt means the pause is still open; the state machine
// guarantees at most one open pause per item or sub-task.
type PausePeriod struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	ItemID    *string `gorm:"size:32;index"`
	SubTaskID *string `gorm:"size:32;index"`
	Reason    string  `gorm:"size:255"`
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
}

// Open reports whether the pause has not been resumed yet.
func (p *PausePeriod) Open() bool {
	return p.EndedAt == nil
}

// Covers reports whether the given calendar day falls inside the pause,
// boundaries inclusive. An open pause covers every day from its start.
func (p *PausePeriod) Covers(day time.Time) bool {
	d := DateOf(day)
	if d.Before(DateOf(p.StartedAt)) {
		return false
	}
	if p.EndedAt == nil {
		return true
	}
	return !d.After(DateOf(*p.EndedAt))
}
