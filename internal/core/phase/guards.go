package phase

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Detection is what a completion predicate observed on disk and in the database.
type Detection struct {
	Complete bool
	Missing  []string // Human-readable items that keep the phase incomplete
}

// StartContext provides what is needed to decide whether a phase may run.
type StartContext struct {
	PhaseID     string
	Predecessor string    // Empty for the first phase
	PredState   Detection // Detection of the predecessor; ignored without one
}

// CanStartPhase evaluates the ordering rule.
// Rule: a phase runs only after its predecessor's completion predicate holds.
func CanStartPhase(ctx StartContext) GuardResult {
	if ctx.Predecessor == "" || ctx.PredState.Complete {
		return GuardResult{Allowed: true}
	}
	reason := fmt.Sprintf("phase %s requires phase %s to be complete", ctx.PhaseID, ctx.Predecessor)
	if len(ctx.PredState.Missing) > 0 {
		reason += " (missing: " + strings.Join(ctx.PredState.Missing, ", ") + ")"
	}
	return GuardResult{Allowed: false, Reason: reason}
}

// AlreadyComplete reports whether a phase can be marked completed without
// applying any step.
func AlreadyComplete(d Detection) bool {
	return d.Complete
}

// CheckPostcondition evaluates the predicate re-run after a phase's steps.
// Rule: a phase that ran every step but still does not satisfy its
// predicate has failed.
func CheckPostcondition(phaseID string, d Detection) GuardResult {
	if d.Complete {
		return GuardResult{Allowed: true}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("phase %s finished its steps but is still incomplete (missing: %s)", phaseID, strings.Join(d.Missing, ", ")),
	}
}
