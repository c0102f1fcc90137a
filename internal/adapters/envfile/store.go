// Package envfile implements the env store on top of a dotenv file.
package envfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/example/stackup/internal/adapters/filesystem"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/ports/secondary"
)

var keyLineRe = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_.]*)\s*=`)

// Store is a dotenv file. Writes rewrite the whole file atomically and keep
// comments, ordering and unrelated keys intact.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by path. The file need not exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeArtifactIO, "read "+s.path)
	}
	return string(data), nil
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.read()
	if err != nil {
		return "", false, err
	}
	values, err := godotenv.Unmarshal(content)
	if err != nil {
		return "", false, apperrors.Wrap(err, apperrors.CodeArtifactIO, "parse "+s.path)
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set upserts values in one atomic write.
func (s *Store) Set(ctx context.Context, values []secondary.EnvVar) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.read()
	if err != nil {
		return err
	}
	updated, err := Upsert(content, values)
	if err != nil {
		return err
	}
	if updated == content {
		return nil
	}
	if err := filesystem.WriteFileAtomic(s.path, []byte(updated), 0600); err != nil {
		return apperrors.Wrap(err, apperrors.CodeArtifactIO, "write "+s.path)
	}
	return nil
}

// Upsert returns content with each key set to its value. Every existing
// assignment of a key is replaced in place; new keys are appended in order.
func Upsert(content string, values []secondary.EnvVar) (string, error) {
	pending := make(map[string]string, len(values))
	order := make([]string, 0, len(values))
	for _, kv := range values {
		if !keyLineRe.MatchString(kv.Key + "=") {
			return "", apperrors.Newf(apperrors.CodeInternal, "invalid env key %q", kv.Key)
		}
		quoted, err := Quote(kv.Value)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeArtifactIO, "encode "+kv.Key)
		}
		if _, dup := pending[kv.Key]; !dup {
			order = append(order, kv.Key)
		}
		pending[kv.Key] = quoted
	}

	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}
	replaced := make(map[string]bool, len(pending))
	for i, line := range lines {
		m := keyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if v, ok := pending[m[1]]; ok {
			lines[i] = m[1] + "=" + v
			replaced[m[1]] = true
		}
	}
	for _, k := range order {
		if !replaced[k] {
			lines = append(lines, k+"="+pending[k])
		}
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Quote renders v so that godotenv reads it back unchanged. It tries single
// quotes, then escaped double quotes, then the bare value, and fails when
// none of them round-trips.
func Quote(v string) (string, error) {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "\n", `\n`, "\r", `\r`)
	for _, enc := range []string{"'" + v + "'", `"` + r.Replace(v) + `"`, v} {
		got, err := godotenv.Unmarshal("K=" + enc)
		if err == nil && len(got) == 1 && got["K"] == v {
			return enc, nil
		}
	}
	return "", errors.New("value cannot be represented in a dotenv file")
}

// Ensure Store implements the interface
var _ secondary.EnvStore = (*Store)(nil)
