// Package prereq holds the pure evaluation rules for external tool checks.
package prereq

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"

	apperrors "github.com/example/stackup/internal/errors"
)

// Requirement names a tool that must be available, optionally at a minimum version.
type Requirement struct {
	Tool       string
	MinVersion string
	Args       []string // Probe arguments; empty means try --version then -version
}

// Status is the verdict for one requirement.
type Status string

const (
	StatusFound         Status = "found"
	StatusNotFound      Status = "not-found"
	StatusVersionTooLow Status = "version-too-low"
)

// Entry is the check outcome for one requirement.
type Entry struct {
	Requirement Requirement
	Status      Status
	Version     string // Detected version, if any
	Path        string // Resolved executable path, if found
	Detail      string
}

// OK reports whether the requirement is satisfied.
func (e Entry) OK() bool { return e.Status == StatusFound }

// Report is the result of checking a list of requirements.
type Report struct {
	Entries []Entry
}

// OK reports whether every requirement is satisfied.
func (r Report) OK() bool {
	for _, e := range r.Entries {
		if !e.OK() {
			return false
		}
	}
	return true
}

// Failed returns the entries that are not satisfied.
func (r Report) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if !e.OK() {
			failed = append(failed, e)
		}
	}
	return failed
}

var versionRe = regexp.MustCompile(`\d+(?:\.\d+)+|\d+`)

// ParseVersion extracts the first dotted version number from probe output.
// "Python 3.12.1" yields "3.12.1"; "ffmpeg version n6.1" yields "6.1".
func ParseVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if v := versionRe.FindString(line); v != "" {
			return v
		}
	}
	return ""
}

// Evaluate turns raw probe observations into an Entry.
// found is whether the executable resolved; output is its combined version output.
func Evaluate(req Requirement, found bool, path, output string) Entry {
	e := Entry{Requirement: req, Path: path}
	if !found {
		e.Status = StatusNotFound
		e.Detail = fmt.Sprintf("%s not found on PATH", req.Tool)
		return e
	}

	e.Version = ParseVersion(output)
	if req.MinVersion == "" {
		e.Status = StatusFound
		return e
	}

	need, err := version.NewVersion(req.MinVersion)
	if err != nil {
		e.Status = StatusVersionTooLow
		e.Detail = fmt.Sprintf("invalid minimum version %q", req.MinVersion)
		return e
	}
	got, err := version.NewVersion(e.Version)
	if err != nil {
		e.Status = StatusVersionTooLow
		e.Detail = fmt.Sprintf("could not determine %s version (need >= %s)", req.Tool, req.MinVersion)
		return e
	}
	if got.LessThan(need) {
		e.Status = StatusVersionTooLow
		e.Detail = fmt.Sprintf("%s %s is older than required %s", req.Tool, got, need)
		return e
	}
	e.Status = StatusFound
	return e
}

// Summary renders failed entries as one line, e.g. "psql: not found; python3: 3.8 < 3.10".
func (r Report) Summary() string {
	parts := make([]string, 0, len(r.Entries))
	for _, e := range r.Failed() {
		parts = append(parts, e.Requirement.Tool+": "+e.Detail)
	}
	return strings.Join(parts, "; ")
}

// Err returns a PREREQUISITE_MISSING error naming every failed tool, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return apperrors.New(apperrors.CodePrerequisiteMissing, "prerequisites not met: "+r.Summary()).
		WithMeta("failed", len(r.Failed()))
}
