package models

import "time"

// NotificationType is the closed set of social events that produce a notification
type NotificationType string

const (
	TypeJourneyLiked      NotificationType = "journey_liked"
	TypeDetailLiked       NotificationType = "detail_liked"
	TypeJourneyCommented  NotificationType = "journey_commented"
	TypeJourneyBookmarked NotificationType = "journey_bookmarked"
	TypeCommentReplied    NotificationType = "comment_replied"
	TypeCommentLiked      NotificationType = "comment_liked"
	TypeNewFollower       NotificationType = "new_follower"
)

// TargetKind names the collection a notification target resolves in
type TargetKind string

const (
	TargetJourneys       TargetKind = "journeys"
	TargetJourneyDetails TargetKind = "journey_details"
	TargetComments       TargetKind = "comments"
	TargetUsers          TargetKind = "users"
)

// Target is a tagged reference to the object a notification is about.
// Kind selects the collection ID resolves against.
type Target struct {
	Kind TargetKind `gorm:"column:target_kind;size:30;not null" json:"target_kind"`
	ID   string     `gorm:"column:target_id;not null" json:"target_id"`
}

func JourneyTarget(id string) Target       { return Target{Kind: TargetJourneys, ID: id} }
func JourneyDetailTarget(id string) Target { return Target{Kind: TargetJourneyDetails, ID: id} }
func CommentTarget(id string) Target       { return Target{Kind: TargetComments, ID: id} }
func UserTarget(id string) Target          { return Target{Kind: TargetUsers, ID: id} }

// allowedTargets constrains which target kinds are valid for each type
// (e.g. a new_follower points at a user, never a journey).
var allowedTargets = map[NotificationType][]TargetKind{
	TypeJourneyLiked:      {TargetJourneys},
	TypeDetailLiked:       {TargetJourneyDetails, TargetJourneys},
	TypeJourneyCommented:  {TargetJourneys},
	TypeJourneyBookmarked: {TargetJourneys, TargetJourneyDetails},
	TypeCommentReplied:    {TargetComments},
	TypeCommentLiked:      {TargetComments},
	TypeNewFollower:       {TargetUsers},
}

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	_, ok := allowedTargets[t]
	return ok
}

// AllowsTarget reports whether kind is a legal target kind for t
func (t NotificationType) AllowsTarget(kind TargetKind) bool {
	for _, k := range allowedTargets[t] {
		if k == kind {
			return true
		}
	}
	return false
}

// Notification represents a durable notification record (PostgreSQL).
// Immutable after creation except for IsRead and deletion.
type Notification struct {
	ID          string           `gorm:"primaryKey" json:"id"`
	RecipientID string           `gorm:"not null;index:idx_notifications_recipient_read_created,priority:1" json:"recipient_id"`
	SenderID    string           `gorm:"not null" json:"sender_id"`
	Type        NotificationType `gorm:"size:30;not null" json:"type"`
	Target      Target           `gorm:"embedded" json:"target"`
	Message     string           `gorm:"not null" json:"message"`
	IsRead      bool             `gorm:"default:false;index:idx_notifications_recipient_read_created,priority:2" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index;index:idx_notifications_recipient_read_created,priority:3,sort:desc" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
