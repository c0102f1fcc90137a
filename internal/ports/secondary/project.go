package secondary

import (
	"context"
	"os"
)

// ProjectFS is the secondary port for the generated project tree. Paths are
// slash-separated and relative to the project root; implementations reject
// paths that escape it.
type ProjectFS interface {
	// Root returns the absolute project root.
	Root() string

	// ReadFile returns the file content and whether it exists.
	ReadFile(ctx context.Context, rel string) ([]byte, bool, error)

	// WriteFile atomically replaces the file, creating parent directories.
	WriteFile(ctx context.Context, rel string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and its parents. Existing directories are fine.
	MkdirAll(ctx context.Context, rel string) error
}

// EnvStore is the secondary port for the project's dotenv file.
type EnvStore interface {
	// Path returns the backing file path.
	Path() string

	// Get returns the value for key and whether it is present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set upserts values in one atomic write, preserving unrelated lines.
	Set(ctx context.Context, values []EnvVar) error
}

// EnvVar is one key/value pair destined for the env store.
type EnvVar struct {
	Key   string
	Value string
}

// CmdResult holds the result of a command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ToolRunner locates and runs external tools for read-only probes.
type ToolRunner interface {
	// LookPath resolves name on PATH.
	LookPath(name string) (string, error)

	// Run executes a command. A non-zero exit is reported in CmdResult, not
	// as an error; errors are reserved for failures to execute at all.
	Run(ctx context.Context, name string, args []string) (CmdResult, error)
}
