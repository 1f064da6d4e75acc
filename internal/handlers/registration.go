package handlers

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/ledger"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/notifier"
)

type RegistrationHandler struct {
	ledger   *ledger.Ledger
	notifier notifier.Notifier
}

func NewRegistrationHandler(ledger *ledger.Ledger, n notifier.Notifier) *RegistrationHandler {
	if n == nil {
		n = notifier.Nop{}
	}
	return &RegistrationHandler{ledger: ledger, notifier: n}
}

func identity(ctx context.Context) (*auth.Identity, error) {
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		return nil, huma.Error403Forbidden("No token provided")
	}
	return id, nil
}

type RegistrationRequest struct {
	Body struct {
		EventID uint `json:"eventId" minimum:"1" doc:"Event to register for"`
	}
}

type RegistrationOutput struct {
	Body RegistrationResponse
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationOutput, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	registration, err := h.ledger.Register(ctx, id.ID, input.Body.EventID)
	if err != nil {
		return nil, registrationError("register for event", err)
	}

	h.notify(registration, h.notifier.NotifyRegistration)

	return &RegistrationOutput{Body: toRegistrationResponse(*registration)}, nil
}

type CancelRegistrationRequest struct {
	ID uint `path:"id" doc:"Registration ID"`
}

func (h *RegistrationHandler) HandleCancel(ctx context.Context, input *CancelRegistrationRequest) (*MessageOutput, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	registration, err := h.ledger.Cancel(ctx, input.ID, id.ID)
	if err != nil {
		return nil, registrationError("cancel registration", err)
	}

	h.notify(registration, h.notifier.NotifyCancellation)

	return message("Registration cancelled successfully"), nil
}

// notify reports the change without failing the request; the registration is
// already committed.
func (h *RegistrationHandler) notify(r *models.Registration, send func(models.User, models.Event) error) {
	if r.Student == nil || r.Event == nil {
		return
	}
	if err := send(*r.Student, *r.Event); err != nil {
		slog.Warn("failed to send registration notification", "registration_id", r.ID, "error", err)
	}
}

type RegistrationListOutput struct {
	Body []RegistrationResponse
}

func (h *RegistrationHandler) HandleMyRegistrations(ctx context.Context, _ *struct{}) (*RegistrationListOutput, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	registrations, err := h.ledger.ListByStudent(ctx, id.ID)
	if err != nil {
		return nil, registrationError("list my registrations", err)
	}
	return &RegistrationListOutput{Body: toRegistrationResponses(registrations)}, nil
}

func (h *RegistrationHandler) HandleListAll(ctx context.Context, _ *struct{}) (*RegistrationListOutput, error) {
	registrations, err := h.ledger.ListAll(ctx)
	if err != nil {
		return nil, registrationError("list registrations", err)
	}
	return &RegistrationListOutput{Body: toRegistrationResponses(registrations)}, nil
}

func (h *RegistrationHandler) HandleSearchByDate(ctx context.Context, input *DateRangeRequest) (*RegistrationListOutput, error) {
	start, end, ok, err := parseRange(input.Start, input.End)
	if !ok {
		return nil, huma.Error400BadRequest("Start and end dates are required")
	}
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid date")
	}

	registrations, err := h.ledger.SearchByDate(ctx, start, end)
	if err != nil {
		return nil, registrationError("search registrations", err)
	}
	return &RegistrationListOutput{Body: toRegistrationResponses(registrations)}, nil
}

type StatsOutput struct {
	Body struct {
		TotalRegistrations           int64   `json:"totalRegistrations"`
		TotalEvents                  int64   `json:"totalEvents"`
		TotalStudents                int64   `json:"totalStudents"`
		AverageRegistrationsPerEvent float64 `json:"averageRegistrationsPerEvent" doc:"Registrations per event, rounded to two decimals"`
	}
}

func (h *RegistrationHandler) HandleStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := h.ledger.Stats(ctx)
	if err != nil {
		return nil, registrationError("registration stats", err)
	}

	res := &StatsOutput{}
	res.Body.TotalRegistrations = stats.TotalRegistrations
	res.Body.TotalEvents = stats.TotalEvents
	res.Body.TotalStudents = stats.TotalStudents
	res.Body.AverageRegistrationsPerEvent = stats.AverageRegistrationsPerEvent
	return res, nil
}
