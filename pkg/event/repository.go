package event

import (
	"context"
	"errors"
	"time"

	"github.com/scheduleshare/event-manager/internal/errdef"

	"github.com/scheduleshare/event-manager/pkg/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

// create persists the event at version 1 together with its initial snapshot. The two
// inserts commit atomically or not at all.
func (r repository) create(ctx context.Context, e *model.Event, actorId uint, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e.Version = 1
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		return tx.Create(newVersion(e, actorId, description)).Error
	})
}

func (r repository) createBatch(ctx context.Context, events []*model.Event, actorId uint, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range events {
			e.Version = 1
			if err := tx.Create(e).Error; err != nil {
				return err
			}
			if err := tx.Create(newVersion(e, actorId, description)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// update persists e and its new snapshot in one transaction. The event row is locked for
// the duration of the read-modify-write; a writer that lost the race between loading the
// event and reaching the lock is rejected with a concurrent modification error instead of
// breaking the (event, version) uniqueness invariant.
func (r repository) update(ctx context.Context, e *model.Event, expectedVersion uint, actorId uint, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, e.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errdef.NewNotFound("event not found by id: %d", e.ID)
		}
		if err != nil {
			return err
		}

		if current.Version != expectedVersion {
			return errdef.NewConcurrentModification("event %d was modified concurrently: version is %d, expected %d", e.ID, current.Version, expectedVersion)
		}

		e.Version = expectedVersion + 1
		if err := tx.Omit(clause.Associations).Save(e).Error; err != nil {
			return err
		}

		return tx.Create(newVersion(e, actorId, description)).Error
	})
}

func newVersion(e *model.Event, actorId uint, description string) *model.EventVersion {
	return &model.EventVersion{
		EventID:           e.ID,
		Version:           e.Version,
		Data:              e.Snapshot(),
		ChangedByID:       actorId,
		ChangeDescription: description,
	}
}

// delete removes the event. Snapshots and grants go with it via the foreign key cascade.
func (r repository) delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx).Delete(&model.Event{}, id)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected < 1 {
		return errdef.NewNotFound("event not found by id: %d", id)
	}
	return nil
}

func (r repository) findById(ctx context.Context, id uint) (*model.Event, error) {
	var e *model.Event
	err := r.db.
		WithContext(ctx).
		Preload("Permissions").
		First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("event not found by id: %d", id)
	}
	return e, err
}

// AccessFilter narrows and pages the accessible-events listing. Start and End select
// events overlapping the window; either may be nil.
type AccessFilter struct {
	Skip  int
	Limit int
	Start *time.Time
	End   *time.Time
}

// grantedEventIds is the subquery selecting the ids of events shared with the user.
func (r repository) grantedEventIds(userId uint) *gorm.DB {
	return r.db.
		Model(&model.EventPermission{}).
		Select("event_id").
		Where("user_id = ?", userId)
}

// findAccessible returns events the user owns or holds a grant on.
func (r repository) findAccessible(ctx context.Context, userId uint, filter AccessFilter) ([]model.Event, error) {
	query := r.db.
		WithContext(ctx).
		Where("owner_id = ? OR id IN (?)", userId, r.grantedEventIds(userId))

	if filter.Start != nil {
		query = query.Where("end_time >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("start_time <= ?", *filter.End)
	}

	var events []model.Event
	err := query.
		Order("start_time, id").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&events).Error
	return events, err
}

// findOverlapping returns the user's accessible events colliding with the half-open
// window [start, end). Touching endpoints do not collide. excludeId, when non-zero, skips
// the event being updated in place.
func (r repository) findOverlapping(ctx context.Context, userId uint, start, end time.Time, excludeId uint) ([]model.Event, error) {
	query := r.db.
		WithContext(ctx).
		Where("owner_id = ? OR id IN (?)", userId, r.grantedEventIds(userId)).
		Where("start_time < ? AND end_time > ?", end, start)

	if excludeId != 0 {
		query = query.Where("id <> ?", excludeId)
	}

	var events []model.Event
	err := query.Order("start_time, id").Find(&events).Error
	return events, err
}

func (r repository) findVersion(ctx context.Context, eventId, version uint) (*model.EventVersion, error) {
	var v *model.EventVersion
	err := r.db.
		WithContext(ctx).
		Where("event_id = ? AND version = ?", eventId, version).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("version %d not found for event %d", version, eventId)
	}
	return v, err
}

func (r repository) findVersions(ctx context.Context, eventId uint) ([]model.EventVersion, error) {
	var versions []model.EventVersion
	err := r.db.
		WithContext(ctx).
		Where("event_id = ?", eventId).
		Order("version desc").
		Find(&versions).Error
	return versions, err
}

// upsertPermission creates the grant or, when one already exists for (event, user),
// changes its role in place.
func (r repository) upsertPermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error) {
	var permission *model.EventPermission

	errTx := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("event_id = ? AND user_id = ?", eventId, userId).
			First(&permission).Error
		if err == nil {
			permission.Role = role
			return tx.Save(permission).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		permission = &model.EventPermission{
			EventID: eventId,
			UserID:  userId,
			Role:    role,
		}
		return tx.Create(permission).Error
	})

	return permission, errTx
}

func (r repository) updatePermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error) {
	var permission *model.EventPermission
	err := r.db.
		WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventId, userId).
		First(&permission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("permission not found for event %d and user %d", eventId, userId)
	}
	if err != nil {
		return nil, err
	}

	permission.Role = role
	err = r.db.WithContext(ctx).Save(permission).Error
	return permission, err
}

func (r repository) deletePermission(ctx context.Context, eventId, userId uint) error {
	db := r.db.
		WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventId, userId).
		Delete(&model.EventPermission{})
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected < 1 {
		return errdef.NewNotFound("permission not found for event %d and user %d", eventId, userId)
	}
	return nil
}

func (r repository) findPermissions(ctx context.Context, eventId uint) ([]model.EventPermission, error) {
	var permissions []model.EventPermission
	err := r.db.
		WithContext(ctx).
		Where("event_id = ?", eventId).
		Order("user_id").
		Find(&permissions).Error
	return permissions, err
}
