package event

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scheduleshare/event-manager/internal/errdef"
	"github.com/scheduleshare/event-manager/pkg/model"
)

const (
	// defaultListLimit pages the accessible-events listing when the caller gives no limit.
	defaultListLimit = 100
	// exportListLimit caps the iCalendar export.
	exportListLimit = 1000
)

type eventRepository interface {
	create(ctx context.Context, e *model.Event, actorId uint, description string) error
	createBatch(ctx context.Context, events []*model.Event, actorId uint, description string) error
	update(ctx context.Context, e *model.Event, expectedVersion uint, actorId uint, description string) error
	delete(ctx context.Context, id uint) error
	findById(ctx context.Context, id uint) (*model.Event, error)
	findAccessible(ctx context.Context, userId uint, filter AccessFilter) ([]model.Event, error)
	findOverlapping(ctx context.Context, userId uint, start, end time.Time, excludeId uint) ([]model.Event, error)
	findVersion(ctx context.Context, eventId, version uint) (*model.EventVersion, error)
	findVersions(ctx context.Context, eventId uint) ([]model.EventVersion, error)
	upsertPermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error)
	updatePermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error)
	deletePermission(ctx context.Context, eventId, userId uint) error
	findPermissions(ctx context.Context, eventId uint) ([]model.EventPermission, error)
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

func NewService(eventRepository eventRepository, userService userService) *Service {
	return &Service{
		eventRepository,
		userService,
	}
}

type Service struct {
	eventRepository eventRepository
	userService     userService
}

// CreateEvent is the payload for creating an event.
type CreateEvent struct {
	Title             string
	Description       string
	Location          string
	StartTime         time.Time
	EndTime           time.Time
	IsRecurring       bool
	RecurrencePattern model.RecurrencePattern
	RecurrenceRule    model.RecurrenceRule
}

func (p CreateEvent) validate() error {
	if err := validateWindow(p.StartTime, p.EndTime); err != nil {
		return err
	}
	return validateRecurrence(p.RecurrencePattern, p.RecurrenceRule)
}

func (p CreateEvent) newEvent(ownerId uint) *model.Event {
	pattern := p.RecurrencePattern
	if pattern == "" {
		pattern = model.RecurrenceNone
	}

	return &model.Event{
		Title:             p.Title,
		Description:       p.Description,
		Location:          p.Location,
		StartTime:         p.StartTime,
		EndTime:           p.EndTime,
		IsRecurring:       p.IsRecurring,
		RecurrencePattern: pattern,
		RecurrenceRule:    p.RecurrenceRule,
		OwnerID:           ownerId,
	}
}

// Create validates the payload, rejects it if it collides with any event the owner can
// already see, and persists it at version 1.
func (s Service) Create(ctx context.Context, payload CreateEvent, ownerId uint) (*model.Event, error) {
	if err := payload.validate(); err != nil {
		return nil, err
	}

	conflicts, err := s.eventRepository.findOverlapping(ctx, ownerId, payload.StartTime, payload.EndTime, 0)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, errdef.NewConflict("event conflicts with %d existing event(s)", len(conflicts))
	}

	e := payload.newEvent(ownerId)
	if err := s.eventRepository.create(ctx, e, ownerId, "Initial creation"); err != nil {
		return nil, err
	}

	return e, nil
}

// CreateBatch persists the payloads all-or-nothing. A validation failure, an overlap
// inside the batch or a collision with a stored event rejects the entire batch.
func (s Service) CreateBatch(ctx context.Context, payloads []CreateEvent, ownerId uint) ([]*model.Event, error) {
	if len(payloads) == 0 {
		return nil, errdef.NewBadRequest("batch is empty")
	}

	for i, payload := range payloads {
		if err := payload.validate(); err != nil {
			return nil, errdef.NewBadRequest("event %d: %v", i, err)
		}
	}

	for i := range payloads {
		for j := range payloads[:i] {
			if payloads[i].StartTime.Before(payloads[j].EndTime) && payloads[i].EndTime.After(payloads[j].StartTime) {
				return nil, errdef.NewConflict("events %d and %d in the batch overlap", j, i)
			}
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	conflicted := make([]bool, len(payloads))
	for i, payload := range payloads {
		group.Go(func() error {
			conflicts, err := s.eventRepository.findOverlapping(groupCtx, ownerId, payload.StartTime, payload.EndTime, 0)
			if err != nil {
				return err
			}
			conflicted[i] = len(conflicts) > 0
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	conflictCount := 0
	for _, hasConflict := range conflicted {
		if hasConflict {
			conflictCount++
		}
	}
	if conflictCount > 0 {
		return nil, errdef.NewConflict("%d event(s) in the batch conflict with existing events", conflictCount)
	}

	events := make([]*model.Event, len(payloads))
	for i, payload := range payloads {
		events[i] = payload.newEvent(ownerId)
	}
	if err := s.eventRepository.createBatch(ctx, events, ownerId, "Initial creation (batch)"); err != nil {
		return nil, err
	}

	return events, nil
}

// UpdateEvent is a partial patch. Nil fields are left untouched.
type UpdateEvent struct {
	Title             *string
	Description       *string
	Location          *string
	StartTime         *time.Time
	EndTime           *time.Time
	IsRecurring       *bool
	RecurrencePattern *model.RecurrencePattern
	RecurrenceRule    model.RecurrenceRule
}

// Update applies the patch to the event, validates the merged state, re-runs the conflict
// check when the window moved and persists the result as a new version. The version the
// caller loaded acts as the compare-and-swap token against concurrent writers.
func (s Service) Update(ctx context.Context, e *model.Event, patch UpdateEvent, actorId uint) (*model.Event, error) {
	expectedVersion := e.Version

	merged := *e
	changes := applyPatch(&merged, patch)

	if err := validateWindow(merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}
	if err := validateRecurrence(merged.RecurrencePattern, merged.RecurrenceRule); err != nil {
		return nil, err
	}

	if !merged.StartTime.Equal(e.StartTime) || !merged.EndTime.Equal(e.EndTime) {
		conflicts, err := s.eventRepository.findOverlapping(ctx, actorId, merged.StartTime, merged.EndTime, e.ID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, errdef.NewConflict("updated event conflicts with %d existing event(s)", len(conflicts))
		}
	}

	description := "Event updated (no changes detected)"
	if len(changes) > 0 {
		description = strings.Join(changes, "; ")
	}

	if err := s.eventRepository.update(ctx, &merged, expectedVersion, actorId, description); err != nil {
		return nil, err
	}

	return &merged, nil
}

// applyPatch mutates e with the patch's non-nil fields and returns a human readable note
// per effective change, in a fixed field order.
func applyPatch(e *model.Event, patch UpdateEvent) []string {
	var changes []string

	if patch.Title != nil && *patch.Title != e.Title {
		changes = append(changes, fmt.Sprintf("Title changed from '%s' to '%s'", e.Title, *patch.Title))
		e.Title = *patch.Title
	}
	if patch.Description != nil && *patch.Description != e.Description {
		changes = append(changes, "Description updated")
		e.Description = *patch.Description
	}
	if patch.StartTime != nil && !patch.StartTime.Equal(e.StartTime) {
		changes = append(changes, fmt.Sprintf("Start time changed from '%s' to '%s'", e.StartTime.Format(time.RFC3339), patch.StartTime.Format(time.RFC3339)))
		e.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil && !patch.EndTime.Equal(e.EndTime) {
		changes = append(changes, fmt.Sprintf("End time changed from '%s' to '%s'", e.EndTime.Format(time.RFC3339), patch.EndTime.Format(time.RFC3339)))
		e.EndTime = *patch.EndTime
	}
	if patch.Location != nil && *patch.Location != e.Location {
		changes = append(changes, fmt.Sprintf("Location changed from '%s' to '%s'", e.Location, *patch.Location))
		e.Location = *patch.Location
	}
	if patch.IsRecurring != nil && *patch.IsRecurring != e.IsRecurring {
		changes = append(changes, fmt.Sprintf("Recurring status changed from '%t' to '%t'", e.IsRecurring, *patch.IsRecurring))
		e.IsRecurring = *patch.IsRecurring
	}
	if patch.RecurrencePattern != nil && *patch.RecurrencePattern != e.RecurrencePattern {
		changes = append(changes, fmt.Sprintf("Recurrence pattern changed from '%s' to '%s'", e.RecurrencePattern, *patch.RecurrencePattern))
		e.RecurrencePattern = *patch.RecurrencePattern

		// leaving the custom pattern invalidates any stored rule; drop it so the merged
		// state stays consistent
		if e.RecurrencePattern != model.RecurrenceCustom && e.RecurrenceRule != nil && patch.RecurrenceRule == nil {
			changes = append(changes, "Recurrence rule cleared")
			e.RecurrenceRule = nil
		}
	}
	if patch.RecurrenceRule != nil && !reflect.DeepEqual(map[string]any(patch.RecurrenceRule), map[string]any(e.RecurrenceRule)) {
		changes = append(changes, "Recurrence rule updated")
		e.RecurrenceRule = patch.RecurrenceRule
	}

	return changes
}

func (s Service) Delete(ctx context.Context, e *model.Event) error {
	return s.eventRepository.delete(ctx, e.ID)
}

func (s Service) FindById(ctx context.Context, id uint) (*model.Event, error) {
	return s.eventRepository.findById(ctx, id)
}

// FindAccessible lists the events the user owns or was granted access to, oldest start
// first.
func (s Service) FindAccessible(ctx context.Context, userId uint, filter AccessFilter) ([]model.Event, error) {
	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}
	return s.eventRepository.findAccessible(ctx, userId, filter)
}

// Share grants the user a role on the event, or changes the role if a grant already
// exists.
func (s Service) Share(ctx context.Context, e *model.Event, userId uint, role model.Role) (*model.EventPermission, error) {
	if _, err := s.userService.FindById(ctx, userId); err != nil {
		return nil, err
	}
	return s.eventRepository.upsertPermission(ctx, e.ID, userId, role)
}

func (s Service) UpdateGrant(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error) {
	return s.eventRepository.updatePermission(ctx, eventId, userId, role)
}

func (s Service) RevokeGrant(ctx context.Context, eventId, userId uint) error {
	return s.eventRepository.deletePermission(ctx, eventId, userId)
}

func (s Service) ListGrants(ctx context.Context, eventId uint) ([]model.EventPermission, error) {
	return s.eventRepository.findPermissions(ctx, eventId)
}

func (s Service) GetVersion(ctx context.Context, eventId, version uint) (*model.EventVersion, error) {
	return s.eventRepository.findVersion(ctx, eventId, version)
}

// ListVersions returns the event's change history, newest version first.
func (s Service) ListVersions(ctx context.Context, eventId uint) ([]model.EventVersion, error) {
	return s.eventRepository.findVersions(ctx, eventId)
}

// Diff compares two stored versions of the event field by field.
func (s Service) Diff(ctx context.Context, eventId, versionA, versionB uint) (Diff, error) {
	a, err := s.eventRepository.findVersion(ctx, eventId, versionA)
	if err != nil {
		return nil, err
	}
	b, err := s.eventRepository.findVersion(ctx, eventId, versionB)
	if err != nil {
		return nil, err
	}
	return diffSnapshots(a.Data, b.Data), nil
}

// Rollback restores the event's content fields from the target version's snapshot and
// records the restoration as a new version on top of the history. Version numbers never
// move backwards.
func (s Service) Rollback(ctx context.Context, e *model.Event, targetVersion uint, actorId uint) (*model.Event, error) {
	version, err := s.eventRepository.findVersion(ctx, e.ID, targetVersion)
	if err != nil {
		return nil, err
	}

	restored := *e
	restored.Title = version.Data.Title
	restored.Description = version.Data.Description
	restored.Location = version.Data.Location
	restored.StartTime = version.Data.StartTime
	restored.EndTime = version.Data.EndTime
	restored.IsRecurring = version.Data.IsRecurring
	restored.RecurrencePattern = version.Data.RecurrencePattern
	restored.RecurrenceRule = version.Data.RecurrenceRule
	restored.OwnerID = version.Data.OwnerID

	description := fmt.Sprintf("Rolled back to version %d", targetVersion)
	if err := s.eventRepository.update(ctx, &restored, e.Version, actorId, description); err != nil {
		return nil, err
	}

	return &restored, nil
}

// ICalendar renders the user's accessible events as an iCalendar document.
func (s Service) ICalendar(ctx context.Context, userId uint) (string, error) {
	events, err := s.eventRepository.findAccessible(ctx, userId, AccessFilter{Limit: exportListLimit})
	if err != nil {
		return "", err
	}
	return buildCalendar(events).Serialize(), nil
}
