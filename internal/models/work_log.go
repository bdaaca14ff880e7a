package models

import "time"

// WorkLog is the append-only fact that a worker performed a process on
// an item on a date for a daily rate. Corrections are appended as new
// rows for the same (worker, item, date) key; readers take the latest
// row per key. WorkLogs are the source of truth for labor cost and for
// "who actually worked this day".
type WorkLog struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OrderID   string  `gorm:"size:32;index"`
	ItemID    string  `gorm:"size:32;index;not null"`
	SubTaskID *string `gorm:"size:32;index"`
	WorkerID  string  `gorm:"size:32;index;not null"`
	Step      string  `gorm:"size:64"`
	Date      time.Time `gorm:"type:date;index;not null"`
	DailyRate float64   `gorm:"not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
}
