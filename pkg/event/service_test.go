package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scheduleshare/event-manager/internal/errdef"
	"github.com/scheduleshare/event-manager/pkg/model"
)

func TestService_Create(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	repository := &mockEventRepository{}
	repository.
		On("findOverlapping", mock.Anything, uint(1), start, end, uint(0)).
		Return([]model.Event{}, nil)
	repository.
		On("create", mock.Anything, mock.AnythingOfType("*model.Event"), uint(1), "Initial creation").
		Return(nil)
	service := NewService(repository, &mockUserService{})

	e, err := service.Create(context.Background(), CreateEvent{
		Title:     "Standup",
		StartTime: start,
		EndTime:   end,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, "Standup", e.Title)
	assert.Equal(t, uint(1), e.OwnerID)
	assert.Equal(t, model.RecurrenceNone, e.RecurrencePattern)
	repository.AssertExpectations(t)
}

func TestService_Create_Conflict(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	repository := &mockEventRepository{}
	repository.
		On("findOverlapping", mock.Anything, uint(1), start, end, uint(0)).
		Return([]model.Event{{ID: 7, Title: "Planning"}}, nil)
	service := NewService(repository, &mockUserService{})

	_, err := service.Create(context.Background(), CreateEvent{
		Title:     "Standup",
		StartTime: start,
		EndTime:   end,
	}, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsConflict(err))
	repository.AssertNotCalled(t, "create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repository.AssertExpectations(t)
}

func TestService_Create_InvalidWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repository := &mockEventRepository{}
	service := NewService(repository, &mockUserService{})

	_, err := service.Create(context.Background(), CreateEvent{
		Title:     "Standup",
		StartTime: start,
		EndTime:   start,
	}, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
	repository.AssertNotCalled(t, "findOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func eventFixture() *model.Event {
	return &model.Event{
		ID:                10,
		Title:             "Standup",
		Description:       "Daily sync",
		Location:          "Room 1",
		StartTime:         time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:           time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		RecurrencePattern: model.RecurrenceNone,
		OwnerID:           1,
		Version:           3,
	}
}

func TestService_Update_RecordsChangeDescriptions(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	expectedDescription := "Title changed from 'Standup' to 'Planning'; Location changed from 'Room 1' to 'Room 2'"
	repository.
		On("update", mock.Anything, mock.AnythingOfType("*model.Event"), uint(3), uint(1), expectedDescription).
		Return(nil)
	service := NewService(repository, &mockUserService{})

	title := "Planning"
	location := "Room 2"
	updated, err := service.Update(context.Background(), e, UpdateEvent{Title: &title, Location: &location}, 1)

	require.NoError(t, err)
	assert.Equal(t, "Planning", updated.Title)
	assert.Equal(t, "Room 2", updated.Location)
	repository.AssertNotCalled(t, "findOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repository.AssertExpectations(t)
}

func TestService_Update_NoEffectiveChanges(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	repository.
		On("update", mock.Anything, mock.AnythingOfType("*model.Event"), uint(3), uint(1), "Event updated (no changes detected)").
		Return(nil)
	service := NewService(repository, &mockUserService{})

	title := "Standup"
	_, err := service.Update(context.Background(), e, UpdateEvent{Title: &title}, 1)

	require.NoError(t, err)
	repository.AssertExpectations(t)
}

func TestService_Update_MovedWindowChecksConflicts(t *testing.T) {
	e := eventFixture()
	newStart := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(30 * time.Minute)
	repository := &mockEventRepository{}
	repository.
		On("findOverlapping", mock.Anything, uint(1), newStart, newEnd, uint(10)).
		Return([]model.Event{{ID: 11}}, nil)
	service := NewService(repository, &mockUserService{})

	_, err := service.Update(context.Background(), e, UpdateEvent{StartTime: &newStart, EndTime: &newEnd}, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsConflict(err))
	repository.AssertNotCalled(t, "update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repository.AssertExpectations(t)
}

func TestService_Update_ConcurrentModification(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	repository.
		On("update", mock.Anything, mock.AnythingOfType("*model.Event"), uint(3), uint(1), mock.AnythingOfType("string")).
		Return(errdef.NewConcurrentModification("event 10 was modified concurrently: version is 4, expected 3"))
	service := NewService(repository, &mockUserService{})

	title := "Planning"
	_, err := service.Update(context.Background(), e, UpdateEvent{Title: &title}, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsConcurrentModification(err))
	repository.AssertExpectations(t)
}

func TestService_Update_ClearsRuleWhenLeavingCustomPattern(t *testing.T) {
	e := eventFixture()
	e.IsRecurring = true
	e.RecurrencePattern = model.RecurrenceCustom
	e.RecurrenceRule = model.RecurrenceRule{"rrule": "FREQ=WEEKLY"}
	repository := &mockEventRepository{}
	expectedDescription := "Recurrence pattern changed from 'custom' to 'weekly'; Recurrence rule cleared"
	repository.
		On("update", mock.Anything, mock.AnythingOfType("*model.Event"), uint(3), uint(1), expectedDescription).
		Return(nil)
	service := NewService(repository, &mockUserService{})

	pattern := model.RecurrenceWeekly
	updated, err := service.Update(context.Background(), e, UpdateEvent{RecurrencePattern: &pattern}, 1)

	require.NoError(t, err)
	assert.Equal(t, model.RecurrenceWeekly, updated.RecurrencePattern)
	assert.Nil(t, updated.RecurrenceRule)
	repository.AssertExpectations(t)
}

func TestService_Rollback(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	repository.
		On("findVersion", mock.Anything, uint(10), uint(1)).
		Return(&model.EventVersion{
			EventID: 10,
			Version: 1,
			Data: model.EventSnapshot{
				ID:                10,
				Title:             "Standup (original)",
				Description:       "First draft",
				StartTime:         time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
				EndTime:           time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC),
				Location:          "Room 9",
				RecurrencePattern: model.RecurrenceNone,
				OwnerID:           1,
				Version:           1,
			},
		}, nil)
	repository.
		On("update", mock.Anything, mock.AnythingOfType("*model.Event"), uint(3), uint(2), "Rolled back to version 1").
		Return(nil)
	service := NewService(repository, &mockUserService{})

	restored, err := service.Rollback(context.Background(), e, 1, 2)

	require.NoError(t, err)
	assert.Equal(t, "Standup (original)", restored.Title)
	assert.Equal(t, "First draft", restored.Description)
	assert.Equal(t, "Room 9", restored.Location)
	assert.Equal(t, uint(10), restored.ID)
	repository.AssertExpectations(t)
}

func TestService_Rollback_UnknownVersion(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	repository.
		On("findVersion", mock.Anything, uint(10), uint(9)).
		Return(nil, errdef.NewNotFound("version 9 not found for event 10"))
	service := NewService(repository, &mockUserService{})

	_, err := service.Rollback(context.Background(), e, 9, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsNotFound(err))
	repository.AssertNotCalled(t, "update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repository.AssertExpectations(t)
}

func TestService_Share(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	permission := &model.EventPermission{EventID: 10, UserID: 2, Role: model.RoleEditor}
	repository.
		On("upsertPermission", mock.Anything, uint(10), uint(2), model.RoleEditor).
		Return(permission, nil)
	userService := &mockUserService{}
	userService.
		On("FindById", mock.Anything, uint(2)).
		Return(&model.User{ID: 2}, nil)
	service := NewService(repository, userService)

	created, err := service.Share(context.Background(), e, 2, model.RoleEditor)

	require.NoError(t, err)
	assert.Equal(t, permission, created)
	repository.AssertExpectations(t)
	userService.AssertExpectations(t)
}

func TestService_Share_UnknownUser(t *testing.T) {
	e := eventFixture()
	repository := &mockEventRepository{}
	userService := &mockUserService{}
	userService.
		On("FindById", mock.Anything, uint(99)).
		Return(nil, errdef.NewNotFound("user not found by id: 99"))
	service := NewService(repository, userService)

	_, err := service.Share(context.Background(), e, 99, model.RoleViewer)

	require.Error(t, err)
	assert.True(t, errdef.IsNotFound(err))
	repository.AssertNotCalled(t, "upsertPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	userService.AssertExpectations(t)
}

func TestService_CreateBatch(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	payloads := []CreateEvent{
		{Title: "First", StartTime: start, EndTime: start.Add(time.Hour)},
		{Title: "Second", StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour)},
	}
	repository := &mockEventRepository{}
	repository.
		On("findOverlapping", mock.Anything, uint(1), mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), uint(0)).
		Return([]model.Event{}, nil).
		Twice()
	repository.
		On("createBatch", mock.Anything, mock.AnythingOfType("[]*model.Event"), uint(1), "Initial creation (batch)").
		Return(nil)
	service := NewService(repository, &mockUserService{})

	events, err := service.CreateBatch(context.Background(), payloads, 1)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "First", events[0].Title)
	assert.Equal(t, "Second", events[1].Title)
	repository.AssertExpectations(t)
}

func TestService_CreateBatch_IntraBatchOverlap(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	payloads := []CreateEvent{
		{Title: "First", StartTime: start, EndTime: start.Add(time.Hour)},
		{Title: "Second", StartTime: start.Add(30 * time.Minute), EndTime: start.Add(90 * time.Minute)},
	}
	repository := &mockEventRepository{}
	service := NewService(repository, &mockUserService{})

	_, err := service.CreateBatch(context.Background(), payloads, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsConflict(err))
	repository.AssertNotCalled(t, "createBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CreateBatch_StoredConflict(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	payloads := []CreateEvent{
		{Title: "First", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	repository := &mockEventRepository{}
	repository.
		On("findOverlapping", mock.Anything, uint(1), start, start.Add(time.Hour), uint(0)).
		Return([]model.Event{{ID: 4}}, nil)
	service := NewService(repository, &mockUserService{})

	_, err := service.CreateBatch(context.Background(), payloads, 1)

	require.Error(t, err)
	assert.True(t, errdef.IsConflict(err))
	repository.AssertNotCalled(t, "createBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repository.AssertExpectations(t)
}

func TestService_ICalendar(t *testing.T) {
	repository := &mockEventRepository{}
	repository.
		On("findAccessible", mock.Anything, uint(1), AccessFilter{Limit: exportListLimit}).
		Return([]model.Event{
			{
				ID:                1,
				Title:             "Standup",
				Location:          "Room 1",
				StartTime:         time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
				EndTime:           time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
				IsRecurring:       true,
				RecurrencePattern: model.RecurrenceDaily,
			},
		}, nil)
	service := NewService(repository, &mockUserService{})

	document, err := service.ICalendar(context.Background(), 1)

	require.NoError(t, err)
	assert.Contains(t, document, "BEGIN:VCALENDAR")
	assert.Contains(t, document, "SUMMARY:Standup")
	assert.Contains(t, document, "LOCATION:Room 1")
	assert.Contains(t, document, "RRULE:FREQ=DAILY")
	repository.AssertExpectations(t)
}

type mockEventRepository struct{ mock.Mock }

func (m *mockEventRepository) create(ctx context.Context, e *model.Event, actorId uint, description string) error {
	called := m.Called(ctx, e, actorId, description)
	return called.Error(0)
}

func (m *mockEventRepository) createBatch(ctx context.Context, events []*model.Event, actorId uint, description string) error {
	called := m.Called(ctx, events, actorId, description)
	return called.Error(0)
}

func (m *mockEventRepository) update(ctx context.Context, e *model.Event, expectedVersion uint, actorId uint, description string) error {
	called := m.Called(ctx, e, expectedVersion, actorId, description)
	return called.Error(0)
}

func (m *mockEventRepository) delete(ctx context.Context, id uint) error {
	called := m.Called(ctx, id)
	return called.Error(0)
}

func (m *mockEventRepository) findById(ctx context.Context, id uint) (*model.Event, error) {
	called := m.Called(ctx, id)
	e, _ := called.Get(0).(*model.Event)
	return e, called.Error(1)
}

func (m *mockEventRepository) findAccessible(ctx context.Context, userId uint, filter AccessFilter) ([]model.Event, error) {
	called := m.Called(ctx, userId, filter)
	events, _ := called.Get(0).([]model.Event)
	return events, called.Error(1)
}

func (m *mockEventRepository) findOverlapping(ctx context.Context, userId uint, start, end time.Time, excludeId uint) ([]model.Event, error) {
	called := m.Called(ctx, userId, start, end, excludeId)
	events, _ := called.Get(0).([]model.Event)
	return events, called.Error(1)
}

func (m *mockEventRepository) findVersion(ctx context.Context, eventId, version uint) (*model.EventVersion, error) {
	called := m.Called(ctx, eventId, version)
	v, _ := called.Get(0).(*model.EventVersion)
	return v, called.Error(1)
}

func (m *mockEventRepository) findVersions(ctx context.Context, eventId uint) ([]model.EventVersion, error) {
	called := m.Called(ctx, eventId)
	versions, _ := called.Get(0).([]model.EventVersion)
	return versions, called.Error(1)
}

func (m *mockEventRepository) upsertPermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error) {
	called := m.Called(ctx, eventId, userId, role)
	permission, _ := called.Get(0).(*model.EventPermission)
	return permission, called.Error(1)
}

func (m *mockEventRepository) updatePermission(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error) {
	called := m.Called(ctx, eventId, userId, role)
	permission, _ := called.Get(0).(*model.EventPermission)
	return permission, called.Error(1)
}

func (m *mockEventRepository) deletePermission(ctx context.Context, eventId, userId uint) error {
	called := m.Called(ctx, eventId, userId)
	return called.Error(0)
}

func (m *mockEventRepository) findPermissions(ctx context.Context, eventId uint) ([]model.EventPermission, error) {
	called := m.Called(ctx, eventId)
	permissions, _ := called.Get(0).([]model.EventPermission)
	return permissions, called.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) FindById(ctx context.Context, id uint) (*model.User, error) {
	called := m.Called(ctx, id)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}
