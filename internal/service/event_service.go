package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

const bannerFolder = "banners"

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	ListUpcoming(ctx context.Context, societyID string, now time.Time) ([]models.Event, error)
	ListPast(ctx context.Context, societyID string, now time.Time) ([]models.Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type societyDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Society, error)
	FindByName(ctx context.Context, name string) (*models.Society, error)
}

// EventService publishes and lists society events.
type EventService struct {
	repo      eventRepository
	societies societyDirectory
	images    imageStore
	validator *validator.Validate
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewEventService constructs the service. Events older than retention are removed by Cleanup.
func NewEventService(repo eventRepository, societies societyDirectory, images imageStore, validate *validator.Validate, logger *zap.Logger, retention time.Duration) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{
		repo:      repo,
		societies: societies,
		images:    images,
		validator: validate,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Add publishes an event for the calling admin's society. The banner image is required.
func (s *EventService) Add(ctx context.Context, actor *models.JWTClaims, req models.CreateEventRequest, banner io.Reader) (*models.Event, error) {
	society, err := s.adminSociety(ctx, actor)
	if err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Venue = strings.TrimSpace(req.Venue)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid event payload")
	}
	date, ok := parseEventDate(req.Date)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, "date must be RFC 3339 or YYYY-MM-DD")
	}
	if banner == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "banner image is required")
	}

	url, err := saveUpload(s.images, bannerFolder, banner)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Banner:      url,
		Venue:       req.Venue,
		SocietyID:   society.ID,
		SocietyName: society.Name,
		CreatedBy:   &actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		_ = s.images.Delete(url)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.markHappened(event)
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("society_id", society.ID))
	return event, nil
}

// ForCurrentSociety lists the calling admin's upcoming and past events.
func (s *EventService) ForCurrentSociety(ctx context.Context, actor *models.JWTClaims) (*models.SocietyEvents, error) {
	society, err := s.adminSociety(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.societyEvents(ctx, society)
}

// BySocietyName lists a society's events together with its public details.
func (s *EventService) BySocietyName(ctx context.Context, name string) (*models.SocietyEvents, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "society name is required")
	}
	society, err := s.societies.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	return s.societyEvents(ctx, society)
}

// Upcoming lists every society's upcoming events, soonest first.
func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.ListUpcoming(ctx, "", s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming events")
	}
	return s.markAll(events), nil
}

// Past lists every society's past events, most recent first.
func (s *EventService) Past(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.ListPast(ctx, "", s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list past events")
	}
	return s.markAll(events), nil
}

// Cleanup deletes events that ended longer ago than the retention window.
func (s *EventService) Cleanup(ctx context.Context, actor *models.JWTClaims) (*dto.EventCleanupResult, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	cutoff := s.now().UTC().Add(-s.retention)
	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete old events")
	}
	s.logger.Info("old events deleted", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return &dto.EventCleanupResult{Deleted: deleted}, nil
}

func (s *EventService) societyEvents(ctx context.Context, society *models.Society) (*models.SocietyEvents, error) {
	now := s.now().UTC()
	upcoming, err := s.repo.ListUpcoming(ctx, society.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming events")
	}
	past, err := s.repo.ListPast(ctx, society.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list past events")
	}
	return &models.SocietyEvents{Society: *society, Upcoming: s.markAll(upcoming), Past: s.markAll(past)}, nil
}

func (s *EventService) adminSociety(ctx context.Context, actor *models.JWTClaims) (*models.Society, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin || actor.AdminOf == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only society admins can manage events")
	}
	society, err := s.societies.FindByID(ctx, actor.AdminOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	if !society.AdministeredBy(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the admin of this society")
	}
	return society, nil
}

func (s *EventService) markAll(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	for i := range events {
		s.markHappened(&events[i])
	}
	return events
}

func (s *EventService) markHappened(event *models.Event) {
	event.Happened = event.Date.Before(s.now())
}

// parseEventDate accepts a full timestamp or a bare calendar date (midnight UTC).
func parseEventDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
