// Package debugflow runs and reads back connection tests: it starts a test run and
// watches the authentication popup, recovers the session id of a run in a new
// context, and fetches and classifies its result.
package debugflow

import (
	"github.com/lukaszraczylo/idptest/internal/debugapi"
)

// StepStatus is the state of one test step.
type StepStatus string

const (
	StatusIdle    StepStatus = "idle"
	StatusPending StepStatus = "pending"
	StatusSuccess StepStatus = "success"
	StatusError   StepStatus = "error"
)

// Terminal reports whether the status is a final outcome.
func (s StepStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// ParseStepStatus maps a backend-reported step status. Anything other than
// "success" or "pending", including an empty value, is an error.
func ParseStepStatus(reported string) StepStatus {
	switch reported {
	case "success":
		return StatusSuccess
	case "pending":
		return StatusPending
	default:
		return StatusError
	}
}

// Statuses holds the three steps of a test.
type Statuses struct {
	Connection     StepStatus `json:"connection"`
	Authentication StepStatus `json:"authentication"`
	ClaimsMapping  StepStatus `json:"claimsMapping"`
}

// IdleStatuses is the state before any run.
func IdleStatuses() Statuses {
	return uniform(StatusIdle)
}

// PendingStatuses is the state of a run that has just started.
func PendingStatuses() Statuses {
	return uniform(StatusPending)
}

// ErrorStatuses is the state of a run whose initiation failed.
func ErrorStatuses() Statuses {
	return uniform(StatusError)
}

func uniform(s StepStatus) Statuses {
	return Statuses{Connection: s, Authentication: s, ClaimsMapping: s}
}

// AnyPending reports whether a step is still running.
func (s Statuses) AnyPending() bool {
	return s.Connection == StatusPending ||
		s.Authentication == StatusPending ||
		s.ClaimsMapping == StatusPending
}

// advance applies next without letting a finished step fall back to pending.
func (s Statuses) advance(next Statuses) Statuses {
	return Statuses{
		Connection:     forward(s.Connection, next.Connection),
		Authentication: forward(s.Authentication, next.Authentication),
		ClaimsMapping:  forward(s.ClaimsMapping, next.ClaimsMapping),
	}
}

func forward(current, next StepStatus) StepStatus {
	if current.Terminal() && (next == StatusPending || next == StatusIdle) {
		return current
	}
	return next
}

// DeriveStatuses projects result metadata onto the three steps.
func DeriveStatuses(m debugapi.Metadata) Statuses {
	return Statuses{
		Connection:     ParseStepStatus(m.Step(debugapi.MetaStepConnection)),
		Authentication: ParseStepStatus(m.Step(debugapi.MetaStepAuthentication)),
		ClaimsMapping:  ParseStepStatus(m.Step(debugapi.MetaStepClaimMapping)),
	}
}
