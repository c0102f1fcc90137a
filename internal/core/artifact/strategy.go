// Package artifact contains the pure merge rules for generated files.
// This is part of the Functional Core - no I/O, only pure functions.
package artifact

import "fmt"

// Strategy decides how rendered template output is reconciled with the file
// already on disk. The set of strategies is closed.
type Strategy interface {
	// StrategyName returns a short identifier used in logs and the journal.
	StrategyName() string
	sealed()
}

// CreateIfAbsent writes the file only when it does not exist.
type CreateIfAbsent struct{}

// OverwriteAlways replaces the file unconditionally.
type OverwriteAlways struct{}

// AppendUniqueLine ensures Line is present in the file. When the file is
// appended to and Marker is not yet present, Marker is written first.
// A missing file is created from the rendered template before the check.
type AppendUniqueLine struct {
	Marker string
	Line   string
}

// InsertIntoListBlock ensures Entry is an element of the named list block,
// delimited by lines ending in "stackup:<Block>:begin" and "stackup:<Block>:end".
type InsertIntoListBlock struct {
	Block string
	Entry string
}

func (CreateIfAbsent) StrategyName() string      { return "create-if-absent" }
func (OverwriteAlways) StrategyName() string     { return "overwrite-always" }
func (AppendUniqueLine) StrategyName() string    { return "append-unique-line" }
func (InsertIntoListBlock) StrategyName() string { return "insert-into-list-block" }

func (CreateIfAbsent) sealed()      {}
func (OverwriteAlways) sealed()     {}
func (AppendUniqueLine) sealed()    {}
func (InsertIntoListBlock) sealed() {}

// Artifact is one generated file: a project-relative path, the template it
// is rendered from and the strategy that merges it.
type Artifact struct {
	Path     string
	Template string
	Strategy Strategy
}

func (a Artifact) String() string {
	return fmt.Sprintf("%s (%s)", a.Path, a.Strategy.StrategyName())
}

// Result is the observable outcome of applying an artifact.
type Result string

const (
	Written       Result = "written"
	SkippedExists Result = "skipped-exists"
	Appended      Result = "appended"
	Unchanged     Result = "unchanged"
)

// Changed reports whether the result implies a write to disk.
func (r Result) Changed() bool {
	return r == Written || r == Appended
}
