package models

import (
	"time"
)

type Registration struct {
	ID               uint      `gorm:"primaryKey"`
	StudentID        uint      `gorm:"not null;uniqueIndex:idx_student_event"`
	EventID          uint      `gorm:"not null;uniqueIndex:idx_student_event;index"`
	RegistrationDate time.Time `gorm:"not null;index"`
	Event            *Event    `gorm:"foreignKey:EventID"`
	Student          *User     `gorm:"foreignKey:StudentID"`
}
