package domain

import "time"

type SessionID string
type UserID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SessionState gates the turn pipeline: a session accepts new input only
// while idle.
type SessionState string

const (
	StateIdle              SessionState = "idle"
	StateInitializing      SessionState = "initializing"
	StateSending           SessionState = "sending"
	StateGeneratingProfile SessionState = "generating-profile"
)

type Timestamp = time.Time

// Turn is one message of the interview, tagged by who said it.
// Turns are immutable once appended; their order is the conversational
// order and is exactly the context sent to the model.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserContext carries the identity of the person being interviewed, so the
// model can personalize the conversation and the persister can key records.
type UserContext struct {
	Name   string
	Email  string
	UserID UserID
}
