package event

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scheduleshare/event-manager/internal/errdef"
	"github.com/scheduleshare/event-manager/internal/handler"
	"github.com/scheduleshare/event-manager/pkg/model"
)

func NewHandler(eventService eventService) Handler {
	return Handler{eventService}
}

type Handler struct {
	eventService eventService
}

type eventService interface {
	Create(ctx context.Context, payload CreateEvent, ownerId uint) (*model.Event, error)
	CreateBatch(ctx context.Context, payloads []CreateEvent, ownerId uint) ([]*model.Event, error)
	FindById(ctx context.Context, id uint) (*model.Event, error)
	FindAccessible(ctx context.Context, userId uint, filter AccessFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event, patch UpdateEvent, actorId uint) (*model.Event, error)
	Delete(ctx context.Context, e *model.Event) error
	Share(ctx context.Context, e *model.Event, userId uint, role model.Role) (*model.EventPermission, error)
	UpdateGrant(ctx context.Context, eventId, userId uint, role model.Role) (*model.EventPermission, error)
	RevokeGrant(ctx context.Context, eventId, userId uint) error
	ListGrants(ctx context.Context, eventId uint) ([]model.EventPermission, error)
	GetVersion(ctx context.Context, eventId, version uint) (*model.EventVersion, error)
	ListVersions(ctx context.Context, eventId uint) ([]model.EventVersion, error)
	Diff(ctx context.Context, eventId, versionA, versionB uint) (Diff, error)
	Rollback(ctx context.Context, e *model.Event, targetVersion uint, actorId uint) (*model.Event, error)
	ICalendar(ctx context.Context, userId uint) (string, error)
}

type CreateEventRequest struct {
	Title             string                  `json:"title" binding:"required,lte=255"`
	Description       string                  `json:"description" binding:"lte=2000"`
	Location          string                  `json:"location" binding:"lte=255"`
	StartTime         time.Time               `json:"startTime" binding:"required"`
	EndTime           time.Time               `json:"endTime" binding:"required"`
	IsRecurring       bool                    `json:"isRecurring"`
	RecurrencePattern model.RecurrencePattern `json:"recurrencePattern" binding:"omitempty,oneOf=none daily weekly monthly yearly custom"`
	RecurrenceRule    model.RecurrenceRule    `json:"recurrenceRule"`
}

func (r CreateEventRequest) payload() CreateEvent {
	return CreateEvent{
		Title:             r.Title,
		Description:       r.Description,
		Location:          r.Location,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
		RecurrenceRule:    r.RecurrenceRule,
	}
}

// Create event
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /events createEvent
	//
	// Create event
	//
	// Create an event owned by the current user. Creation is rejected when the event
	// overlaps an event the user can already see.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Event
	//   400: Error
	//   401: Error
	//   409: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request CreateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	e, err := h.eventService.Create(c.Request.Context(), request.payload(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

type BatchCreateRequest struct {
	Events []CreateEventRequest `json:"events" binding:"required,gte=1,dive"`
}

// BatchCreate events
func (h Handler) BatchCreate(c *gin.Context) {
	// swagger:route POST /events/batch batchCreateEvents
	//
	// Create events in batch
	//
	// Create several events atomically. The whole batch is rejected if any event fails
	// validation, overlaps another event in the batch, or conflicts with a stored event.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: []Event
	//   400: Error
	//   401: Error
	//   409: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request BatchCreateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	payloads := make([]CreateEvent, len(request.Events))
	for i, eventRequest := range request.Events {
		payloads[i] = eventRequest.payload()
	}

	events, err := h.eventService.CreateBatch(c.Request.Context(), payloads, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, events)
}

// List events
func (h Handler) List(c *gin.Context) {
	// swagger:route GET /events listEvents
	//
	// List events
	//
	// List the events the current user owns or has been granted access to. start_date and
	// end_date narrow the listing to events overlapping the window.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Event
	//   400: Error
	//   401: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filter, err := parseAccessFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	events, err := h.eventService.FindAccessible(c.Request.Context(), user.ID, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func parseAccessFilter(c *gin.Context) (AccessFilter, error) {
	var query struct {
		Skip  int `form:"skip" binding:"gte=0"`
		Limit int `form:"limit" binding:"gte=0,lte=1000"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return AccessFilter{}, errdef.NewBadRequest("error binding query parameters: %v", err)
	}

	filter := AccessFilter{Skip: query.Skip, Limit: query.Limit}

	for name, target := range map[string]**time.Time{
		"start_date": &filter.Start,
		"end_date":   &filter.End,
	} {
		value := c.Query(name)
		if value == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return AccessFilter{}, errdef.NewBadRequest("error parsing %q: %v", name, err)
		}
		*target = &parsed
	}

	return filter, nil
}

// EventDetailResponse is an event together with the role it resolves to for the caller.
// swagger:model
type EventDetailResponse struct {
	*model.Event
	// UserRole is the caller's effective role on the event, "owner" for the structural
	// owner.
	UserRole model.Role `json:"userRole"`
}

// FindById event
func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /events/{id} findEventById
	//
	// Event details
	//
	// Return the event with its share grants. Requires at least view access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: EventDetailResponse
	//   401: Error
	//   403: Error
	//   404: Error
	e, user, ok := h.eventWithAccess(c, Authorization.CanView)
	if !ok {
		return
	}

	role, _ := Resolve(user.ID, e).EffectiveRole()

	c.JSON(http.StatusOK, EventDetailResponse{Event: e, UserRole: role})
}

type UpdateEventRequest struct {
	Title             *string                  `json:"title" binding:"omitempty,lte=255"`
	Description       *string                  `json:"description" binding:"omitempty,lte=2000"`
	Location          *string                  `json:"location" binding:"omitempty,lte=255"`
	StartTime         *time.Time               `json:"startTime"`
	EndTime           *time.Time               `json:"endTime"`
	IsRecurring       *bool                    `json:"isRecurring"`
	RecurrencePattern *model.RecurrencePattern `json:"recurrencePattern" binding:"omitempty,oneOf=none daily weekly monthly yearly custom"`
	RecurrenceRule    model.RecurrenceRule     `json:"recurrenceRule"`
}

// Update event
func (h Handler) Update(c *gin.Context) {
	// swagger:route PUT /events/{id} updateEvent
	//
	// Update event
	//
	// Partially update the event. Only the provided fields change. The update is recorded
	// as a new version. Requires edit access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Event
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	//   415: Error
	e, user, ok := h.eventWithAccess(c, Authorization.CanEdit)
	if !ok {
		return
	}

	var request UpdateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	patch := UpdateEvent{
		Title:             request.Title,
		Description:       request.Description,
		Location:          request.Location,
		StartTime:         request.StartTime,
		EndTime:           request.EndTime,
		IsRecurring:       request.IsRecurring,
		RecurrencePattern: request.RecurrencePattern,
		RecurrenceRule:    request.RecurrenceRule,
	}

	updated, err := h.eventService.Update(c.Request.Context(), e, patch, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete event
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /events/{id} deleteEvent
	//
	// Delete event
	//
	// Delete the event along with its versions and share grants. Only the owner can
	// delete; a share grant labelled "owner" is not sufficient.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   204:
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanDelete)
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), e); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ICalendar export
func (h Handler) ICalendar(c *gin.Context) {
	// swagger:route GET /events/ical exportICalendar
	//
	// Export events as iCalendar
	//
	// Export the current user's accessible events as an iCalendar (.ics) document.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200:
	//   401: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	document, err := h.eventService.ICalendar(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(document))
}

type ShareRequest struct {
	UserID uint       `json:"userId" binding:"required"`
	Role   model.Role `json:"role" binding:"required,oneOf=owner editor viewer"`
}

// Share event
func (h Handler) Share(c *gin.Context) {
	// swagger:route POST /events/{id}/share shareEvent
	//
	// Share event
	//
	// Grant a user a role on the event, or change the role of an existing grant. Only the
	// owner can share.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: EventPermission
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanManage)
	if !ok {
		return
	}

	var request ShareRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	permission, err := h.eventService.Share(c.Request.Context(), e, request.UserID, request.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, permission)
}

// ListPermissions of event
func (h Handler) ListPermissions(c *gin.Context) {
	// swagger:route GET /events/{id}/permissions listEventPermissions
	//
	// List event permissions
	//
	// List the event's share grants. Only the owner can inspect them.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []EventPermission
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanManage)
	if !ok {
		return
	}

	permissions, err := h.eventService.ListGrants(c.Request.Context(), e.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, permissions)
}

type UpdatePermissionRequest struct {
	Role model.Role `json:"role" binding:"required,oneOf=owner editor viewer"`
}

// UpdatePermission of event
func (h Handler) UpdatePermission(c *gin.Context) {
	// swagger:route PUT /events/{id}/permissions/{userId} updateEventPermission
	//
	// Update event permission
	//
	// Change the role of an existing share grant. Only the owner can do this.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: EventPermission
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanManage)
	if !ok {
		return
	}

	userId, ok := handler.GetPathParameter(c, "userId")
	if !ok {
		return
	}

	var request UpdatePermissionRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	permission, err := h.eventService.UpdateGrant(c.Request.Context(), e.ID, userId, request.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, permission)
}

// RevokePermission of event
func (h Handler) RevokePermission(c *gin.Context) {
	// swagger:route DELETE /events/{id}/permissions/{userId} revokeEventPermission
	//
	// Revoke event permission
	//
	// Remove a share grant. Only the owner can do this.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   204:
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanManage)
	if !ok {
		return
	}

	userId, ok := handler.GetPathParameter(c, "userId")
	if !ok {
		return
	}

	if err := h.eventService.RevokeGrant(c.Request.Context(), e.ID, userId); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Changelog of event
func (h Handler) Changelog(c *gin.Context) {
	// swagger:route GET /events/{id}/changelog eventChangelog
	//
	// Event changelog
	//
	// List the event's versions, newest first, with change descriptions. Requires at
	// least view access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []EventVersion
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanView)
	if !ok {
		return
	}

	versions, err := h.eventService.ListVersions(c.Request.Context(), e.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, versions)
}

// GetVersion of event
func (h Handler) GetVersion(c *gin.Context) {
	// swagger:route GET /events/{id}/history/{version} eventVersion
	//
	// Event version
	//
	// Return one historical version of the event. Requires at least view access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: EventVersion
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanView)
	if !ok {
		return
	}

	versionNumber, ok := handler.GetPathParameter(c, "version")
	if !ok {
		return
	}

	version, err := h.eventService.GetVersion(c.Request.Context(), e.ID, versionNumber)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, version)
}

type DiffResponse struct {
	Version1 uint `json:"version1"`
	Version2 uint `json:"version2"`
	Diff     Diff `json:"differences"`
}

// Diff event versions
func (h Handler) Diff(c *gin.Context) {
	// swagger:route GET /events/{id}/diff/{version1}/{version2} diffEventVersions
	//
	// Compare event versions
	//
	// Compare two historical versions field by field. Requires at least view access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: DiffResponse
	//   401: Error
	//   403: Error
	//   404: Error
	e, _, ok := h.eventWithAccess(c, Authorization.CanView)
	if !ok {
		return
	}

	versionA, ok := handler.GetPathParameter(c, "version1")
	if !ok {
		return
	}
	versionB, ok := handler.GetPathParameter(c, "version2")
	if !ok {
		return
	}

	diff, err := h.eventService.Diff(c.Request.Context(), e.ID, versionA, versionB)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, DiffResponse{Version1: versionA, Version2: versionB, Diff: diff})
}

// Rollback event
func (h Handler) Rollback(c *gin.Context) {
	// swagger:route POST /events/{id}/rollback/{version} rollbackEvent
	//
	// Roll back event
	//
	// Restore the event's content from a historical version. The restoration is recorded
	// as a new version on top of the history. Requires edit access.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Event
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	e, user, ok := h.eventWithAccess(c, Authorization.CanEdit)
	if !ok {
		return
	}

	versionNumber, ok := handler.GetPathParameter(c, "version")
	if !ok {
		return
	}

	restored, err := h.eventService.Rollback(c.Request.Context(), e, versionNumber, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, restored)
}

// eventWithAccess loads the event on the :id path parameter and checks the current user's
// access against the required capability. An unknown event reports not found before any
// access decision so the response never leaks the event's existence.
func (h Handler) eventWithAccess(c *gin.Context, capability func(Authorization) bool) (*model.Event, *model.User, bool) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return nil, nil, false
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return nil, nil, false
	}

	e, err := h.eventService.FindById(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return nil, nil, false
	}

	if !capability(Resolve(user.ID, e)) {
		_ = c.Error(errdef.NewForbidden("not enough permissions for event %d", id))
		return nil, nil, false
	}

	return e, user, true
}
