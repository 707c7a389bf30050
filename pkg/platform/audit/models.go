package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit entries by their primary purpose.
// The relay publishes the category as a record header so consumers can route
// compliance and security entries to different retention tiers.
type EventCategory string

const (
	// CategoryCompliance covers changes to who is linked to what. These
	// entries reconstruct link history and must never be sampled.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers confidence-floor violations and privilege
	// related snapshots.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers everything else.
	CategoryOperations EventCategory = "operations"
)

// ActionType names the state change an entry records.
type ActionType string

const (
	ActionLinkCreated     ActionType = "link_created"
	ActionLinkUpdated     ActionType = "link_updated"
	ActionLinkRemoved     ActionType = "link_removed"
	ActionPrimaryChanged  ActionType = "primary_changed"
	ActionSecurityFinding ActionType = "security_finding"
	ActionRoleArchived    ActionType = "role_archived"
	ActionRoleRestored    ActionType = "role_restored"
)

var actionCategories = map[ActionType]EventCategory{
	ActionLinkCreated:     CategoryCompliance,
	ActionLinkUpdated:     CategoryCompliance,
	ActionLinkRemoved:     CategoryCompliance,
	ActionPrimaryChanged:  CategoryCompliance,
	ActionSecurityFinding: CategorySecurity,
	ActionRoleArchived:    CategorySecurity,
	ActionRoleRestored:    CategorySecurity,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a ActionType) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// ActorType identifies what kind of caller caused a change.
type ActorType string

const (
	ActorHuman        ActorType = "human"
	ActorSystem       ActorType = "system"
	ActorScheduledJob ActorType = "scheduled_job"
	ActorWebhook      ActorType = "webhook"
)

// Severity levels for audit entries.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Target types used by the link engine.
const (
	TargetDiscordUser = "discord_user"
)

// Entry is one immutable, append-only audit record.
//
// Entries for the same target form a hash chain: PrevHash is the Hash of the
// previous entry for (TargetType, TargetID), and Hash covers PrevHash plus
// every content field. Seq is assigned by the store and is not hashed.
type Entry struct {
	ID              uuid.UUID       `json:"id"`
	Seq             int64           `json:"seq"`
	ActionType      ActionType      `json:"action_type"`
	ActorType       ActorType       `json:"actor_type"`
	ActorID         string          `json:"actor_id"`
	TargetType      string          `json:"target_type"`
	TargetID        string          `json:"target_id"`
	BeforeState     json.RawMessage `json:"before_state,omitempty"`
	AfterState      json.RawMessage `json:"after_state,omitempty"`
	Severity        Severity        `json:"severity"`
	SecurityFinding bool            `json:"security_finding"`
	RequestID       string          `json:"request_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	PrevHash        []byte          `json:"prev_hash,omitempty"`
	Hash            []byte          `json:"hash"`
}

// ChainKey groups entries that share a hash chain.
func (e *Entry) ChainKey() string {
	return e.TargetType + ":" + e.TargetID
}

// Query filters audit entries. Zero-valued fields do not filter.
type Query struct {
	ActorID    string
	TargetType string
	TargetID   string
	Action     ActionType
	Since      time.Time
	Until      time.Time
	Limit      int
}

// Matches applies the query to a single entry. Used by in-memory stores.
func (q Query) Matches(e *Entry) bool {
	if q.ActorID != "" && e.ActorID != q.ActorID {
		return false
	}
	if q.TargetType != "" && e.TargetType != q.TargetType {
		return false
	}
	if q.TargetID != "" && e.TargetID != q.TargetID {
		return false
	}
	if q.Action != "" && e.ActionType != q.Action {
		return false
	}
	if !q.Since.IsZero() && e.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !e.CreatedAt.Before(q.Until) {
		return false
	}
	return true
}

// MustState marshals a snapshot for BeforeState/AfterState. Snapshots are
// plain structs owned by this module, so a marshal failure is a programming error.
func MustState(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic("audit: marshal state: " + err.Error())
	}
	return b
}

// Clone returns a deep copy so stores never hand out their own records.
func (e *Entry) Clone() *Entry {
	c := *e
	c.BeforeState = append(json.RawMessage(nil), e.BeforeState...)
	c.AfterState = append(json.RawMessage(nil), e.AfterState...)
	c.PrevHash = append([]byte(nil), e.PrevHash...)
	c.Hash = append([]byte(nil), e.Hash...)
	return &c
}

// OutboxMessage is an audit entry awaiting publication to the event bus.
type OutboxMessage struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Category      EventCategory
	Payload       []byte
	CreatedAt     time.Time
}
