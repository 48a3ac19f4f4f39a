package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind classifies a failed execution.
type Kind int

const (
	// KindIO means the script could not be written or the process could not
	// be started.
	KindIO Kind = iota + 1
	// KindTimeout means the tool's wall-clock limit elapsed.
	KindTimeout
	// KindNonZeroExit means the process ran and exited unsuccessfully.
	KindNonZeroExit
	// KindOutputTooLarge means stdout exceeded the output limit.
	KindOutputTooLarge
	// KindCanceled means the caller's context ended first.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindNonZeroExit:
		return "non-zero exit"
	case KindOutputTooLarge:
		return "output too large"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is returned by Runner.Run for every failed execution.
type Error struct {
	Kind Kind
	Tool string
	// ExitCode is set for KindNonZeroExit; -1 when the process was killed by
	// a signal.
	ExitCode int
	// Stderr holds the captured error stream for KindNonZeroExit.
	Stderr string
	// Timeout is set for KindTimeout.
	Timeout time.Duration
	// Limit is set for KindOutputTooLarge.
	Limit int64
	Err   error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("tool %q", e.Tool)

	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: timed out after %s", prefix, e.Timeout)
	case KindNonZeroExit:
		msg := fmt.Sprintf("%s: exited with code %d", prefix, e.ExitCode)
		if s := strings.TrimSpace(e.Stderr); s != "" {
			msg += ": " + s
		}
		return msg
	case KindOutputTooLarge:
		return fmt.Sprintf("%s: output exceeded %s", prefix, humanize.IBytes(uint64(e.Limit))) //nolint:gosec // limit is positive
	case KindCanceled:
		return fmt.Sprintf("%s: canceled: %v", prefix, e.Err)
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
