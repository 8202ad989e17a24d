package model

import (
	"strings"
	"time"
)

// PairKeySeparator joins the two ids of a pair key. User ids never contain
// it, so a key names exactly one pair.
const PairKeySeparator = "_"

// PairKey returns the canonical key of an unordered pair of users:
// the two ids sorted and joined with PairKeySeparator.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + PairKeySeparator + b
}

// ValidUID reports whether uid can take part in pair keys.
func ValidUID(uid string) bool {
	return strings.TrimSpace(uid) != "" && !strings.Contains(uid, PairKeySeparator)
}

// SortedPair returns a and b in ascending order.
func SortedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ConnectionStatus is the stored state of a connection record.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
)

// Connection is the single record kept for a pair of users.
type Connection struct {
	ID           string           `json:"id" db:"id"`
	Participants [2]string        `json:"participants"`
	Status       ConnectionStatus `json:"status" db:"status"`
	RequestedBy  string           `json:"requested_by" db:"requested_by"`
	CreateAt     time.Time        `json:"create_at" db:"create_at"`
	UpdateAt     time.Time        `json:"update_at" db:"update_at"`
}

// NewConnectionRequest builds the pending record for from asking to.
func NewConnectionRequest(from, to string) *Connection {
	return &Connection{
		ID:           PairKey(from, to),
		Participants: SortedPair(from, to),
		Status:       ConnectionPending,
		RequestedBy:  from,
	}
}

// HasParticipant reports whether uid is one of the two participants.
func (c *Connection) HasParticipant(uid string) bool {
	return c.Participants[0] == uid || c.Participants[1] == uid
}

// Other returns the participant that is not uid.
func (c *Connection) Other(uid string) string {
	if c.Participants[0] == uid {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// RelationStatus is the status of a connection as seen by one participant.
type RelationStatus string

const (
	RelationNone      RelationStatus = "none"
	RelationSent      RelationStatus = "sent"
	RelationIncoming  RelationStatus = "incoming"
	RelationConnected RelationStatus = "connected"
)

// StatusFor derives the viewer-relative status. A nil record means none.
func (c *Connection) StatusFor(viewer string) RelationStatus {
	if c == nil || !c.HasParticipant(viewer) {
		return RelationNone
	}
	switch {
	case c.Status == ConnectionAccepted:
		return RelationConnected
	case c.RequestedBy == viewer:
		return RelationSent
	default:
		return RelationIncoming
	}
}

// ConnectionView is a connection record annotated for one viewer.
type ConnectionView struct {
	*Connection
	OtherUID       string         `json:"other_uid"`
	RelationStatus RelationStatus `json:"relation"`
}

// ViewsFor annotates every record the viewer takes part in.
func ViewsFor(conns []*Connection, viewer string) []ConnectionView {
	views := make([]ConnectionView, 0, len(conns))
	for _, c := range conns {
		if !c.HasParticipant(viewer) {
			continue
		}
		views = append(views, ConnectionView{
			Connection:     c,
			OtherUID:       c.Other(viewer),
			RelationStatus: c.StatusFor(viewer),
		})
	}
	return views
}

// StatusMap maps every counterpart of viewer to the derived status. Users
// without a record are absent and read as RelationNone.
func StatusMap(conns []*Connection, viewer string) map[string]RelationStatus {
	m := make(map[string]RelationStatus, len(conns))
	for _, c := range conns {
		if !c.HasParticipant(viewer) {
			continue
		}
		m[c.Other(viewer)] = c.StatusFor(viewer)
	}
	return m
}
