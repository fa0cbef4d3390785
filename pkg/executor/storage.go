package executor

import (
	"time"

	"github.com/google/uuid"
)

// FlowType names the kind of flow a session runs.
type FlowType string

const (
	FlowDevice  FlowType = "device"
	FlowVehicle FlowType = "vehicle"
)

// Status is the lifecycle status of a session.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the session has finished.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// Checkpoint is the persisted progress of a session.
type Checkpoint struct {
	SessionID string
	Flow      FlowType
	State     string
	Status    Status
	Message   string
	Error     string
	Started   time.Time
	Updated   time.Time
}

// Storage persists checkpoints.
type Storage interface {
	SaveCheckpoint(cp Checkpoint) error
	LoadCheckpoint(sessionID string) (Checkpoint, error)
	ListCheckpoints() ([]Checkpoint, error)
	DeleteCheckpoint(sessionID string) error
}

// NewSessionID returns a random session id.
func NewSessionID() string {
	return uuid.NewString()
}
