package models

import (
	"time"
)

// Event is hard-deleted, so it does not embed gorm.Model. Its wire form is
// handlers.EventResponse.
type Event struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	MaxCapacity int    `gorm:"not null"`
	Description string
	StartTime   time.Time  `gorm:"index"`
	EndTime     *time.Time `gorm:"index"`
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidWindow reports whether the schedule window is well formed: an end
// time, when set, must be strictly after the start time.
func (e *Event) ValidWindow() bool {
	return e.EndTime == nil || e.EndTime.After(e.StartTime)
}
