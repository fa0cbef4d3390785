package executor

import "errors"

var (
	// ErrSessionExists is returned when starting a session id that is
	// already known.
	ErrSessionExists = errors.New("executor: session already exists")

	// ErrSessionNotFound is returned when signalling or waiting on an
	// unknown session.
	ErrSessionNotFound = errors.New("executor: session not found")

	// ErrSessionDone is returned when signalling a finished session.
	ErrSessionDone = errors.New("executor: session already finished")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("executor: closed")

	// ErrNoFactory is returned when Start is called without a factory.
	ErrNoFactory = errors.New("executor: flow factory is required")

	// ErrInvalidSessionID is returned for an empty session id.
	ErrInvalidSessionID = errors.New("executor: session id is required")
)
