package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RecurrencePattern enumerates the supported event recurrence patterns. Patterns other than
// RecurrenceCustom are self-describing; custom patterns carry an RFC 5545 RRULE in the
// event's recurrence rule.
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
	RecurrenceCustom  RecurrencePattern = "custom"
)

// RecurrenceRule is the free-form rule payload for custom recurrence patterns, stored as
// jsonb. Custom rules carry the RRULE under the "rrule" key.
type RecurrenceRule map[string]any

func (r RecurrenceRule) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *RecurrenceRule) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported recurrence rule type %T", value)
	}
	return json.Unmarshal(bytes, r)
}

// RRule returns the RFC 5545 RRULE carried by a custom recurrence rule.
func (r RecurrenceRule) RRule() (string, bool) {
	rule, ok := r["rrule"].(string)
	return rule, ok && rule != ""
}

// Role enumerates the roles a share grant can carry. The ordering is owner > editor >
// viewer for capability purposes, but a grant labelled RoleOwner never confers the
// structural owner's delete/manage rights, only Event.OwnerID does.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{RoleViewer: 1, RoleEditor: 2, RoleOwner: 3}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return roleRank[r] != 0
}

// AtLeast reports whether r implies the capabilities of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Event domain object defining a collaboratively owned calendar event
// swagger:model
type Event struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	Title             string            `gorm:"index;not null" json:"title"`
	Description       string            `json:"description"`
	Location          string            `json:"location"`
	StartTime         time.Time         `gorm:"index;not null" json:"startTime"`
	EndTime           time.Time         `gorm:"index;not null" json:"endTime"`
	IsRecurring       bool              `gorm:"not null;default:false" json:"isRecurring"`
	RecurrencePattern RecurrencePattern `gorm:"type:varchar(16);not null;default:'none'" json:"recurrencePattern"`
	RecurrenceRule    RecurrenceRule    `gorm:"type:jsonb" json:"recurrenceRule,omitempty"`
	OwnerID           uint              `gorm:"index;not null" json:"ownerId"`
	Version           uint              `gorm:"not null;default:1" json:"version"`
	Permissions       []EventPermission `gorm:"constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	Versions          []EventVersion    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Overlaps reports whether the half-open window [start, end) collides with the event's
// window. Touching endpoints do not overlap.
func (e *Event) Overlaps(start, end time.Time) bool {
	return start.Before(e.EndTime) && end.After(e.StartTime)
}

// Snapshot copies the event's current state into an immutable version payload.
func (e *Event) Snapshot() EventSnapshot {
	return EventSnapshot{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		StartTime:         e.StartTime,
		EndTime:           e.EndTime,
		Location:          e.Location,
		IsRecurring:       e.IsRecurring,
		RecurrencePattern: e.RecurrencePattern,
		RecurrenceRule:    e.RecurrenceRule,
		OwnerID:           e.OwnerID,
		Version:           e.Version,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// EventPermission grants a user a role on an event the user does not structurally own.
// At most one grant exists per (event, user) pair.
// swagger:model
type EventPermission struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	EventID   uint      `gorm:"uniqueIndex:idx_event_permissions_event_user;not null" json:"eventId"`
	UserID    uint      `gorm:"uniqueIndex:idx_event_permissions_event_user;not null" json:"userId"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
}

// EventVersion is an immutable full-state snapshot of an event, written in the same
// transaction as the mutation it records. Version numbers are unique per event.
// swagger:model
type EventVersion struct {
	ID                uint          `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time     `json:"createdAt"`
	EventID           uint          `gorm:"uniqueIndex:idx_event_versions_event_version;not null" json:"eventId"`
	Version           uint          `gorm:"uniqueIndex:idx_event_versions_event_version;not null" json:"version"`
	Data              EventSnapshot `gorm:"type:jsonb;not null" json:"data"`
	ChangedByID       uint          `gorm:"not null" json:"changedById"`
	ChangeDescription string        `json:"changeDescription"`
}

// EventSnapshot is the typed schema of a version payload. Relational fields are
// serialized as plain values so snapshots survive the referenced rows.
type EventSnapshot struct {
	ID                uint              `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	Location          string            `json:"location"`
	IsRecurring       bool              `json:"is_recurring"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern"`
	RecurrenceRule    RecurrenceRule    `json:"recurrence_rule,omitempty"`
	OwnerID           uint              `json:"owner_id"`
	Version           uint              `json:"version"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (s EventSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *EventSnapshot) Scan(value any) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported snapshot type %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Fields returns the comparable snapshot fields keyed by their serialized names.
// Identity and timestamp metadata (id, created_at, updated_at) are excluded; those are
// properties of the row, not of the recorded state.
func (s EventSnapshot) Fields() map[string]any {
	return map[string]any{
		"title":              s.Title,
		"description":        s.Description,
		"start_time":         s.StartTime,
		"end_time":           s.EndTime,
		"location":           s.Location,
		"is_recurring":       s.IsRecurring,
		"recurrence_pattern": s.RecurrencePattern,
		"recurrence_rule":    s.RecurrenceRule,
		"owner_id":           s.OwnerID,
		"version":            s.Version,
	}
}
