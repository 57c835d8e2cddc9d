package process

import (
	"errors"
	"fmt"
)

// ErrInvalidPID reports a PID that would target init, the caller's own
// process group or every process.
var ErrInvalidPID = errors.New("invalid browser pid")

// KillTree force-kills the process pid and its descendants. A process that
// already exited is reported as an error; callers tearing down a browser
// usually only log it.
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if err := killTree(pid); err != nil {
		return fmt.Errorf("killing browser %d: %w", pid, err)
	}
	return nil
}
