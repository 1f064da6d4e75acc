package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/catalog"
)

type EventHandler struct {
	catalog *catalog.Catalog
}

func NewEventHandler(catalog *catalog.Catalog) *EventHandler {
	return &EventHandler{catalog: catalog}
}

type CreateEventRequest struct {
	Body struct {
		Name        string     `json:"name" minLength:"1" doc:"Name of the event"`
		MaxCapacity int        `json:"maxCapacity" minimum:"1" doc:"Maximum number of registrations"`
		Description string     `json:"description,omitempty" doc:"Free text description"`
		Date        time.Time  `json:"date" doc:"Start of the event"`
		EndDate     *time.Time `json:"endDate,omitempty" doc:"End of the event, must be after the start"`
		Location    string     `json:"location,omitempty" doc:"Where the event takes place"`
	}
}

type EventOutput struct {
	Body EventResponse
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *CreateEventRequest) (*EventOutput, error) {
	event, err := h.catalog.Create(ctx, catalog.EventInput{
		Name:        input.Body.Name,
		MaxCapacity: input.Body.MaxCapacity,
		Description: input.Body.Description,
		StartTime:   input.Body.Date,
		EndTime:     input.Body.EndDate,
		Location:    input.Body.Location,
	})
	if err != nil {
		return nil, eventError("create event", err)
	}
	return &EventOutput{Body: toEventResponse(*event)}, nil
}

type EventListOutput struct {
	Body []EventResponse
}

func (h *EventHandler) HandleList(ctx context.Context, _ *struct{}) (*EventListOutput, error) {
	events, err := h.catalog.List(ctx)
	if err != nil {
		return nil, eventError("list events", err)
	}
	return &EventListOutput{Body: toEventResponses(events)}, nil
}

type EventWithCountListOutput struct {
	Body []EventWithCountResponse
}

func (h *EventHandler) HandleListWithCount(ctx context.Context, _ *struct{}) (*EventWithCountListOutput, error) {
	summaries, err := h.catalog.ListWithCounts(ctx)
	if err != nil {
		return nil, eventError("list events with count", err)
	}

	res := &EventWithCountListOutput{Body: make([]EventWithCountResponse, 0, len(summaries))}
	for _, s := range summaries {
		res.Body = append(res.Body, EventWithCountResponse{
			EventResponse:   toEventResponse(s.Event),
			RegisteredCount: s.RegisteredCount,
			AvailableSpots:  s.AvailableSpots,
			IsFull:          s.IsFull,
		})
	}
	return res, nil
}

type EventIDRequest struct {
	ID uint `path:"id" doc:"Event ID"`
}

func (h *EventHandler) HandleGet(ctx context.Context, input *EventIDRequest) (*EventOutput, error) {
	event, err := h.catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, eventError("get event", err)
	}
	return &EventOutput{Body: toEventResponse(*event)}, nil
}

type UpdateEventRequest struct {
	ID   uint `path:"id" doc:"Event ID"`
	Body struct {
		Name        *string    `json:"name,omitempty" minLength:"1"`
		MaxCapacity *int       `json:"maxCapacity,omitempty" minimum:"1"`
		Description *string    `json:"description,omitempty"`
		Date        *time.Time `json:"date,omitempty"`
		EndDate     *time.Time `json:"endDate,omitempty" nullable:"true" doc:"New end of the event, null removes it"`
		Location    *string    `json:"location,omitempty"`
	}
	RawBody []byte
}

// sentNull reports whether the JSON object in raw sets key to null.
func sentNull(raw []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	v, ok := fields[key]
	return ok && string(bytes.TrimSpace(v)) == "null"
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *UpdateEventRequest) (*EventOutput, error) {
	event, err := h.catalog.Update(ctx, input.ID, catalog.EventPatch{
		Name:         input.Body.Name,
		MaxCapacity:  input.Body.MaxCapacity,
		Description:  input.Body.Description,
		StartTime:    input.Body.Date,
		EndTime:      input.Body.EndDate,
		ClearEndTime: sentNull(input.RawBody, "endDate"),
		Location:     input.Body.Location,
	})
	if err != nil {
		return nil, eventError("update event", err)
	}
	return &EventOutput{Body: toEventResponse(*event)}, nil
}

func (h *EventHandler) HandleDelete(ctx context.Context, input *EventIDRequest) (*MessageOutput, error) {
	if err := h.catalog.Delete(ctx, input.ID); err != nil {
		return nil, eventError("delete event", err)
	}
	return message("Event deleted successfully"), nil
}

type DateRangeRequest struct {
	Start string `query:"start" doc:"Start of the range (RFC 3339 or YYYY-MM-DD)"`
	End   string `query:"end" doc:"End of the range (RFC 3339 or YYYY-MM-DD)"`
}

func (h *EventHandler) HandleSearchByDate(ctx context.Context, input *DateRangeRequest) (*EventListOutput, error) {
	start, end, ok, err := parseRange(input.Start, input.End)
	if !ok {
		return nil, huma.Error400BadRequest("Start and end date are required.")
	}
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid date")
	}

	events, err := h.catalog.SearchByDate(ctx, start, end)
	if err != nil {
		return nil, eventError("search events", err)
	}
	return &EventListOutput{Body: toEventResponses(events)}, nil
}
