package models

import "time"

// EventType names a push payload.
type EventType string

const (
	EventMessage            EventType = "message"
	EventRecall             EventType = "recall"
	EventMessageDeleted     EventType = "message_deleted"
	EventParticipantJoined  EventType = "participant_joined"
	EventParticipantLeft    EventType = "participant_left"
	EventParticipantRemoved EventType = "participant_removed"
	EventParticipantUpdated EventType = "participant_updated"
	EventGroupInvitation    EventType = "group_invitation"
	EventJoinRequest        EventType = "join_request"
	EventJoinRequestHandled EventType = "join_request_handled"
	EventRemovedFromGroup   EventType = "removed_from_conversation"
	EventProfileUpdated     EventType = "profile_updated"
)

// Event is pushed over websocket connections and the AMQP exchange.
type Event struct {
	Type             EventType    `json:"type"`
	ConversationID   int64        `json:"conversation_id,omitempty"`
	ConversationName string       `json:"conversation_name,omitempty"`
	Message          *MessageView `json:"message,omitempty"`
	MessageID        int64        `json:"message_id,omitempty"`
	UserID           int64        `json:"user_id,omitempty"`
	ActorID          int64        `json:"actor_id,omitempty"`
	ActorName        string       `json:"actor_name,omitempty"`
	Role             Role         `json:"role,omitempty"`
	Action           string       `json:"action,omitempty"`
	Profile          *User        `json:"profile,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
}
