package domain

import "time"

// Status represents the lifecycle state of a parking token.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Event represents an action that triggers a token state transition.
type Event string

const (
	// EventExit closes an active token when the vehicle leaves.
	EventExit Event = "exit"
)

// Transition defines a valid state change: an event moves a token from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the token lifecycle.
// Closed is terminal. This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventExit, Src: StatusActive, Dst: StatusClosed},
}

// Token records a slot assignment made at park time. EntryTime is set
// at creation and immutable; ExitTime is zero until the vehicle exits
// and is set exactly once.
type Token struct {
	ID           string
	SlotID       string
	Registration string
	Status       Status
	EntryTime    time.Time
	ExitTime     time.Time
}

// NewToken issues an active token for a freshly allocated slot.
func NewToken(id, slotID, registration string) Token {
	return Token{
		ID:           id,
		SlotID:       slotID,
		Registration: registration,
		Status:       StatusActive,
		EntryTime:    time.Now().UTC(),
	}
}
