package scheduler

// State is a job execution lifecycle state.
type State string

const (
	StateStart      State = "start"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
	StateError      State = "error"
)

// Status is one job status transition, broadcast to observers.
type Status struct {
	JobName string `json:"jobName"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Notifier receives job status transitions.
type Notifier interface {
	Notify(Status)
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(Status)

func (f NotifierFunc) Notify(s Status) { f(s) }
