package events

import "errors"

var (
	ErrNotFound               = errors.New("event not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidCapacity        = errors.New("capacity must be positive")
	ErrInvalidStatus          = errors.New("invalid event status")
	ErrCapacityBelowAttendees = errors.New("capacity cannot drop below current attendees")
)
