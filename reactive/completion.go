package reactive

import "github.com/kbukum/rxkit/errors"

// Completion is the terminal signal of a run: either finished or failed.
type Completion struct {
	err error
}

// Finished is the successful completion.
var Finished = Completion{}

// Failed returns a completion carrying err. A nil err is a protocol violation.
func Failed(err error) Completion {
	if err == nil {
		panic(errors.ProtocolViolation("failed completion without an error"))
	}
	return Completion{err: err}
}

// Err returns the failure, or nil when the run finished.
func (c Completion) Err() error { return c.err }

// IsFinished reports whether the run completed without failure.
func (c Completion) IsFinished() bool { return c.err == nil }

func (c Completion) String() string {
	if c.err == nil {
		return "finished"
	}
	return "failure(" + c.err.Error() + ")"
}
