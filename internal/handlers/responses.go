package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/catalog"
	"github.com/gdg-garage/event-registration-api/internal/ledger"
	"github.com/gdg-garage/event-registration-api/internal/models"
)

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func message(msg string) *MessageOutput {
	res := &MessageOutput{}
	res.Body.Message = msg
	return res
}

type EventResponse struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	MaxCapacity int        `json:"maxCapacity"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date" doc:"Start of the event"`
	EndDate     *time.Time `json:"endDate,omitempty" doc:"End of the event, when known"`
	Location    string     `json:"location"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toEventResponse(e models.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		MaxCapacity: e.MaxCapacity,
		Description: e.Description,
		Date:        e.StartTime,
		EndDate:     e.EndTime,
		Location:    e.Location,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEventResponses(events []models.Event) []EventResponse {
	res := make([]EventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, toEventResponse(e))
	}
	return res
}

type EventWithCountResponse struct {
	EventResponse
	RegisteredCount int64 `json:"registeredCount"`
	AvailableSpots  int64 `json:"availableSpots"`
	IsFull          bool  `json:"isFull"`
}

type StudentSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type RegistrationResponse struct {
	ID               uint            `json:"id"`
	StudentID        uint            `json:"studentId"`
	EventID          uint            `json:"eventId"`
	RegistrationDate time.Time       `json:"registrationDate"`
	Event            *EventResponse  `json:"event,omitempty"`
	Student          *StudentSummary `json:"student,omitempty"`
}

func toRegistrationResponse(r models.Registration) RegistrationResponse {
	res := RegistrationResponse{
		ID:               r.ID,
		StudentID:        r.StudentID,
		EventID:          r.EventID,
		RegistrationDate: r.RegistrationDate,
	}
	if r.Event != nil {
		event := toEventResponse(*r.Event)
		res.Event = &event
	}
	if r.Student != nil {
		res.Student = &StudentSummary{ID: r.Student.ID, Username: r.Student.Username}
	}
	return res
}

func toRegistrationResponses(registrations []models.Registration) []RegistrationResponse {
	res := make([]RegistrationResponse, 0, len(registrations))
	for _, r := range registrations {
		res = append(res, toRegistrationResponse(r))
	}
	return res
}

var errInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps and the shorter forms browsers send.
// Values without a zone are read as UTC.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidDate
}

// parseRange parses both bounds of a date search. ok is false when either
// bound is missing.
func parseRange(start, end string) (from, to time.Time, ok bool, err error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if from, err = parseDate(start); err != nil {
		return time.Time{}, time.Time{}, true, err
	}
	if to, err = parseDate(end); err != nil {
		return time.Time{}, time.Time{}, true, err
	}
	return from, to, true, nil
}

func internalError(op string, err error) error {
	slog.Error(op, "error", err)
	return huma.Error500InternalServerError(err.Error())
}

func eventError(op string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return huma.Error404NotFound("Event not found")
	case errors.Is(err, catalog.ErrInvalidWindow):
		return huma.Error400BadRequest("End date must be after start date.")
	case errors.Is(err, catalog.ErrInvalidCapacity):
		return huma.Error400BadRequest("Max capacity must be a positive integer.")
	case errors.Is(err, catalog.ErrMissingName):
		return huma.Error400BadRequest("Event name is required.")
	case errors.Is(err, catalog.ErrMissingRange):
		return huma.Error400BadRequest("Start and end date are required.")
	default:
		return internalError(op, err)
	}
}

func registrationError(op string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrEventNotFound):
		return huma.Error404NotFound("Event not found")
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return huma.Error400BadRequest("You have already registered for this event")
	case errors.Is(err, ledger.ErrEventFull):
		return huma.Error400BadRequest("Event is full")
	case errors.Is(err, ledger.ErrNotFound):
		return huma.Error404NotFound("Registration not found")
	case errors.Is(err, ledger.ErrNotOwner):
		return huma.Error403Forbidden("Not authorized to cancel this registration")
	case errors.Is(err, ledger.ErrMissingRange):
		return huma.Error400BadRequest("Start and end dates are required")
	case errors.Is(err, ledger.ErrInvalidRange):
		return huma.Error400BadRequest("Invalid date range")
	default:
		return internalError(op, err)
	}
}
