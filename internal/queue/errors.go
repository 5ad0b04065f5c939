package queue

import "errors"

// ErrBusy is returned when a session already has a submission in flight.
var ErrBusy = errors.New("queue: submission already in progress")
