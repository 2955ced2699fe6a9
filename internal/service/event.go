package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/apperr"
	"campusevents/internal/audit"
	"campusevents/internal/auth"
	"campusevents/internal/model"

	"go.uber.org/zap"
)

// EventService orchestrates event catalog operations.
type EventService struct {
	events EventStore
	audit  audit.Recorder
	log    *zap.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, rec audit.Recorder, log *zap.Logger) *EventService {
	return &EventService{events: events, audit: rec, log: log}
}

// CreateEvent validates the request and persists the event. Only
// admins may create events; the capability check lives here so it
// holds regardless of how the request was routed.
func (s *EventService) CreateEvent(ctx context.Context, identity auth.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if !identity.IsAdmin() {
		return nil, apperr.ErrForbidden
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" {
		return nil, apperr.Validation("title", "is required")
	}
	if req.Location == "" {
		return nil, apperr.Validation("location", "is required")
	}
	if req.Capacity < 0 {
		return nil, apperr.Validation("capacity", "must not be negative")
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, apperr.Validation("start_time", "must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, apperr.Validation("end_time", "must be RFC 3339")
	}
	if !end.After(start) {
		return nil, apperr.Validation("end_time", "must be after start_time")
	}

	event, err := s.events.Create(ctx, &model.Event{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Location:    req.Location,
		Lat:         req.Lat,
		Lng:         req.Lng,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Capacity:    req.Capacity,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.audit.Record(ctx, model.ActionEventCreated, identity.UserID, map[string]any{
		"event_id": event.ID,
		"title":    event.Title,
	})
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperr.Validation("id", "is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
