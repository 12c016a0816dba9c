package models

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps store read/write I/O failures. A cycle that
	// hits it aborts without partial state mutation and retries on the next
	// tick.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateOccurrence is returned by a conditional log append when an
	// entry for the same (reminder, occurrence) already exists. It is benign:
	// dedup working as intended.
	ErrDuplicateOccurrence = errors.New("occurrence already logged")

	// ErrChannelTransient marks a send failure worth retrying on a later
	// cycle.
	ErrChannelTransient = errors.New("channel transient error")

	// ErrChannelPermanent marks a send failure that will not recover on its
	// own (user blocked the bot, chat gone). The reminder is deactivated.
	ErrChannelPermanent = errors.New("channel permanent error")
)
