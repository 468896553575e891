package repository

import "errors"

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a live registration already exists for the
	// (event, subscriber) pair, or another uniqueness rule was violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict indicates a concurrent writer won the race on a
	// conditional write. Safe to retry with fresh state.
	ErrConflict = errors.New("write conflict")
	// ErrInvariant indicates stored state violates a capacity or ordering
	// invariant. Fatal; never corrected by guessing.
	ErrInvariant = errors.New("invariant violation")
	// ErrCapacityBelowAttendees indicates an attempt to lower an event's
	// capacity under its current confirmed count.
	ErrCapacityBelowAttendees = errors.New("capacity below current attendees")
)
