package job

// State is the coarse lifecycle position of a job.
type State string

const (
	StateUnknown  State = "unknown"
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// Terminal reports whether no transition can leave the state.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateFailed
}

// Status is what an observer sees for a job. The set of implementations is
// closed: Unknown, Queued, Running, Finished and Failed.
type Status interface {
	State() State
	isStatus()
}

// Unknown is reported when nothing is recorded for a job id.
type Unknown struct{}

// Queued jobs were accepted and wait for a worker.
type Queued struct{}

// Running jobs report the fraction of steps done, in [0, 1].
type Running struct {
	Progress float64
}

// Finished jobs carry the computed value formatted with the requested digits.
type Finished struct {
	Result string
}

// Failed jobs carry a human readable cause. Cancelled distinguishes a
// cooperative stop from an execution fault.
type Failed struct {
	Error     string
	Cancelled bool
}

func (Unknown) State() State  { return StateUnknown }
func (Queued) State() State   { return StateQueued }
func (Running) State() State  { return StateRunning }
func (Finished) State() State { return StateFinished }
func (Failed) State() State   { return StateFailed }

func (Unknown) isStatus()  {}
func (Queued) isStatus()   {}
func (Running) isStatus()  {}
func (Finished) isStatus() {}
func (Failed) isStatus()   {}
