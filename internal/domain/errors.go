package domain

import "errors"

var (
	// ErrNoWorkAvailable is returned when a batch is requested but no
	// unprocessed articles are eligible for submission.
	ErrNoWorkAvailable = errors.New("no unprocessed articles available")

	// ErrTickInProgress is returned when a poll tick overlaps an in-flight
	// tick; the new tick is skipped entirely.
	ErrTickInProgress = errors.New("tick already in progress")

	// ErrTriggerRunning is returned when a manual run would overlap an
	// in-flight instance of the same trigger.
	ErrTriggerRunning = errors.New("trigger is already running")

	// ErrUnknownTrigger is returned for a manual run of an unregistered
	// trigger name.
	ErrUnknownTrigger = errors.New("unknown trigger")
)
