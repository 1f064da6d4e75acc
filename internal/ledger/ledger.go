// Package ledger records student registrations for events and enforces the
// two write-time invariants: one registration per (student, event) and no
// more registrations for an event than its capacity.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
	ErrNotFound          = errors.New("registration not found")
	ErrNotOwner          = errors.New("registration belongs to another student")
	ErrMissingRange      = errors.New("start and end dates are required")
	ErrInvalidRange      = errors.New("start date is after end date")
)

// insertIfCapacity inserts the registration only while the event has fewer
// registrations than its capacity. Count and insert run as one statement, so
// no other writer can claim the last seat in between.
const insertIfCapacity = `
INSERT INTO registrations (student_id, event_id, registration_date)
SELECT ?, ?, ?
WHERE (SELECT COUNT(*) FROM registrations WHERE event_id = ?)
    < (SELECT max_capacity FROM events WHERE id = ?)`

type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Register records that studentID attends eventID and returns the new
// registration joined with its event and student.
func (l *Ledger) Register(ctx context.Context, studentID, eventID uint) (*models.Registration, error) {
	var registration models.Registration
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Select("id").First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("find event: %w", err)
		}

		var existing int64
		err := tx.Model(&models.Registration{}).
			Where("student_id = ? AND event_id = ?", studentID, eventID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		res := tx.Exec(insertIfCapacity, studentID, eventID, l.now().UTC(), eventID, eventID)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrEventFull
		}

		err = tx.Preload("Event").Preload("Student").
			Where("student_id = ? AND event_id = ?", studentID, eventID).
			First(&registration).Error
		if err != nil {
			return fmt.Errorf("load registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// Cancel deletes the registration when requesterID owns it. The deleted
// registration is returned with its event and student.
func (l *Ledger) Cancel(ctx context.Context, registrationID, requesterID uint) (*models.Registration, error) {
	var registration models.Registration
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Event").Preload("Student").First(&registration, registrationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find registration: %w", err)
		}

		if registration.StudentID != requesterID {
			return ErrNotOwner
		}

		if err := tx.Delete(&models.Registration{}, registration.ID).Error; err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("registration_date DESC, id DESC")
}

// ListByStudent returns the student's registrations, newest first, each with
// its event.
func (l *Ledger) ListByStudent(ctx context.Context, studentID uint) ([]models.Registration, error) {
	registrations := []models.Registration{}
	err := newestFirst(l.db.WithContext(ctx)).
		Preload("Event").
		Where("student_id = ?", studentID).
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// ListAll returns every registration, newest first, with event and student.
func (l *Ledger) ListAll(ctx context.Context) ([]models.Registration, error) {
	registrations := []models.Registration{}
	err := newestFirst(l.db.WithContext(ctx)).
		Preload("Event").
		Preload("Student").
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// SearchByDate returns the registrations made within [start, end] inclusive.
func (l *Ledger) SearchByDate(ctx context.Context, start, end time.Time) ([]models.Registration, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrMissingRange
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	registrations := []models.Registration{}
	err := newestFirst(l.db.WithContext(ctx)).
		Preload("Event").
		Preload("Student").
		Where("registration_date >= ? AND registration_date <= ?", start.UTC(), end.UTC()).
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	return registrations, nil
}

type Stats struct {
	TotalRegistrations           int64
	TotalEvents                  int64
	TotalStudents                int64
	AverageRegistrationsPerEvent float64
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Registration{}).Count(&stats.TotalRegistrations).Error; err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if err := tx.Model(&models.Event{}).Count(&stats.TotalEvents).Error; err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&stats.TotalStudents).Error; err != nil {
			return fmt.Errorf("count students: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalEvents > 0 {
		avg := float64(stats.TotalRegistrations) / float64(stats.TotalEvents)
		stats.AverageRegistrationsPerEvent = math.Round(avg*100) / 100
	}
	return &stats, nil
}
