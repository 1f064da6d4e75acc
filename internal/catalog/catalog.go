// Package catalog manages events: their schedule window, capacity and the
// live registration counts derived from the ledger.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrMissingName     = errors.New("event name is required")
	ErrInvalidCapacity = errors.New("max capacity must be a positive integer")
	ErrInvalidWindow   = errors.New("end date must be after start date")
	ErrMissingRange    = errors.New("start and end date are required")
)

type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

type EventInput struct {
	Name        string
	MaxCapacity int
	Description string
	StartTime   time.Time
	EndTime     *time.Time
	Location    string
}

// EventPatch holds the fields of an update; nil fields keep their value.
// ClearEndTime removes the end time and takes precedence over EndTime.
type EventPatch struct {
	Name         *string
	MaxCapacity  *int
	Description  *string
	StartTime    *time.Time
	EndTime      *time.Time
	ClearEndTime bool
	Location     *string
}

// EventSummary is an event with its registration count at read time.
type EventSummary struct {
	models.Event
	RegisteredCount int64
	AvailableSpots  int64
	IsFull          bool
}

func validate(e *models.Event) error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingName
	}
	if e.MaxCapacity < 1 {
		return ErrInvalidCapacity
	}
	if !e.ValidWindow() {
		return ErrInvalidWindow
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (c *Catalog) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	event := models.Event{
		Name:        strings.TrimSpace(in.Name),
		MaxCapacity: in.MaxCapacity,
		Description: in.Description,
		StartTime:   in.StartTime.UTC(),
		EndTime:     utcPtr(in.EndTime),
		Location:    in.Location,
	}
	if err := validate(&event); err != nil {
		return nil, err
	}
	if err := c.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*models.Event, error) {
	return get(c.db.WithContext(ctx), id)
}

func get(db *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	err := db.First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// List returns every event ordered by start time, earliest first.
func (c *Catalog) List(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	if err := c.db.WithContext(ctx).Order("start_time ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update applies patch and checks the schedule window of the merged event.
func (c *Catalog) Update(ctx context.Context, id uint, patch EventPatch) (*models.Event, error) {
	var event *models.Event
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = get(tx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			event.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.MaxCapacity != nil {
			event.MaxCapacity = *patch.MaxCapacity
		}
		if patch.Description != nil {
			event.Description = *patch.Description
		}
		if patch.StartTime != nil {
			event.StartTime = patch.StartTime.UTC()
		}
		switch {
		case patch.ClearEndTime:
			event.EndTime = nil
		case patch.EndTime != nil:
			event.EndTime = utcPtr(patch.EndTime)
		}
		if patch.Location != nil {
			event.Location = *patch.Location
		}

		if err := validate(event); err != nil {
			return err
		}
		if err := tx.Save(event).Error; err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes the event together with its registrations.
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, id); err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}
		if err := tx.Delete(&models.Event{}, id).Error; err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}

type registrationCount struct {
	EventID    uint
	Registered int64
}

// ListWithCounts returns every event with its current registration count.
// The counts are a projection at read time and may be stale by the time a
// caller acts on them.
func (c *Catalog) ListWithCounts(ctx context.Context) ([]EventSummary, error) {
	var (
		events []models.Event
		rows   []registrationCount
	)
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("start_time ASC, id ASC").Find(&events).Error; err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		err := tx.Model(&models.Registration{}).
			Select("event_id, COUNT(*) AS registered").
			Group("event_id").
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Registered
	}

	summaries := make([]EventSummary, 0, len(events))
	for _, e := range events {
		registered := counts[e.ID]
		summaries = append(summaries, EventSummary{
			Event:           e,
			RegisteredCount: registered,
			AvailableSpots:  int64(e.MaxCapacity) - registered,
			IsFull:          registered >= int64(e.MaxCapacity),
		})
	}
	return summaries, nil
}

// SearchByDate returns the events whose window overlaps [start, end]. Events
// without an end time never match.
func (c *Catalog) SearchByDate(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrMissingRange
	}
	events := []models.Event{}
	err := c.db.WithContext(ctx).
		Where("end_time IS NOT NULL AND end_time >= ? AND start_time <= ?", start.UTC(), end.UTC()).
		Order("start_time ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}
