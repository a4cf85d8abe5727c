package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTokenNotFound   = errors.New("token not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
)

// InvalidRegistrationError is returned when a vehicle registration
// fails validation at construction time.
type InvalidRegistrationError struct {
	Registration string
	Reason       string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration %q: %s", e.Registration, e.Reason)
}

// DuplicateSlotError is returned when a slot id already exists on a floor.
type DuplicateSlotError struct {
	FloorID string
	SlotID  string
}

func (e *DuplicateSlotError) Error() string {
	return fmt.Sprintf("slot %q already exists on floor %q", e.SlotID, e.FloorID)
}

// NoSlotAvailableError is returned when no floor has a free slot
// compatible with the requested vehicle class.
type NoSlotAvailableError struct {
	Class VehicleClass
}

func (e *NoSlotAvailableError) Error() string {
	return fmt.Sprintf("no available slot for vehicle class %q", e.Class)
}

// AlreadyParkedError is returned when a park is attempted for a
// registration that currently occupies a slot.
type AlreadyParkedError struct {
	Registration string
}

func (e *AlreadyParkedError) Error() string {
	return fmt.Sprintf("vehicle %q is already parked", e.Registration)
}

// TokenAlreadyUsedError is returned when an exit is attempted with a
// token that has already been closed.
type TokenAlreadyUsedError struct {
	TokenID string
}

func (e *TokenAlreadyUsedError) Error() string {
	return fmt.Sprintf("token %q has already been used to exit", e.TokenID)
}

// TransitionError is returned when a token lifecycle event is not
// allowed from the current state.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// InvalidIntervalError is returned when a fee is requested for an exit
// time earlier than the entry time.
type InvalidIntervalError struct {
	Entry string
	Exit  string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("exit time %s precedes entry time %s", e.Exit, e.Entry)
}

// ConsistencyError indicates a violated core invariant, such as a token
// referencing a slot id absent from the registry. It is a programming
// bug, not a user-correctable condition.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "consistency violation: " + e.Detail
}
