package artifact

import (
	"strings"

	apperrors "github.com/example/stackup/internal/errors"
)

// MarkerPrefix namespaces every list-block marker the generator emits.
const MarkerPrefix = "stackup:"

// Current is the state of the target file before applying an artifact.
type Current struct {
	Exists  bool
	Content []byte
}

// Outcome is the pure result of a merge. When Write is true, Content is the
// complete new file body.
type Outcome struct {
	Result  Result
	Content []byte
	Write   bool
}

// Merge computes what applying strategy s to the current file would do,
// given the rendered template output. It never touches the filesystem.
func Merge(s Strategy, cur Current, rendered []byte) (Outcome, error) {
	switch st := s.(type) {
	case CreateIfAbsent:
		if cur.Exists {
			return Outcome{Result: SkippedExists}, nil
		}
		return Outcome{Result: Written, Content: rendered, Write: true}, nil

	case OverwriteAlways:
		return Outcome{Result: Written, Content: rendered, Write: true}, nil

	case AppendUniqueLine:
		return mergeLine(st, cur, rendered)

	case InsertIntoListBlock:
		if !cur.Exists {
			return Outcome{}, apperrors.Newf(apperrors.CodeArtifactConflict,
				"list block %q: target file does not exist", st.Block)
		}
		updated, changed, err := InsertEntry(string(cur.Content), st.Block, st.Entry)
		if err != nil {
			return Outcome{}, err
		}
		if !changed {
			return Outcome{Result: Unchanged}, nil
		}
		return Outcome{Result: Appended, Content: []byte(updated), Write: true}, nil

	default:
		return Outcome{}, apperrors.Newf(apperrors.CodeInternal, "unknown strategy %T", s)
	}
}

func mergeLine(st AppendUniqueLine, cur Current, rendered []byte) (Outcome, error) {
	if strings.TrimSpace(st.Line) == "" {
		return Outcome{}, apperrors.New(apperrors.CodeInternal, "append-unique-line with empty line")
	}

	base, result := string(cur.Content), Appended
	if !cur.Exists {
		base, result = string(rendered), Written
	}

	if HasLine(base, st.Line) {
		if !cur.Exists {
			return Outcome{Result: Written, Content: []byte(base), Write: true}, nil
		}
		return Outcome{Result: Unchanged}, nil
	}

	var b strings.Builder
	b.WriteString(base)
	if base != "" && !strings.HasSuffix(base, "\n") {
		b.WriteByte('\n')
	}
	if st.Marker != "" && !HasLine(base, st.Marker) {
		b.WriteString(strings.TrimSpace(st.Marker))
		b.WriteByte('\n')
	}
	b.WriteString(strings.TrimSpace(st.Line))
	b.WriteByte('\n')

	return Outcome{Result: result, Content: []byte(b.String()), Write: true}, nil
}

// HasLine reports whether any line of content equals line, ignoring
// surrounding whitespace.
func HasLine(content, line string) bool {
	want := strings.TrimSpace(line)
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == want {
			return true
		}
	}
	return false
}

// BeginMarker and EndMarker return the suffixes that delimit a list block.
func BeginMarker(block string) string { return MarkerPrefix + block + ":begin" }
func EndMarker(block string) string   { return MarkerPrefix + block + ":end" }

// locateBlock returns the line indexes of the begin and end markers.
func locateBlock(lines []string, block string) (int, int, error) {
	begin, end := -1, -1
	for i, l := range lines {
		t := markerText(l)
		switch {
		case strings.HasSuffix(t, BeginMarker(block)):
			if begin != -1 {
				return 0, 0, conflict(block, "begin marker appears more than once")
			}
			begin = i
		case strings.HasSuffix(t, EndMarker(block)):
			if end != -1 {
				return 0, 0, conflict(block, "end marker appears more than once")
			}
			end = i
		}
	}
	switch {
	case begin == -1 && end == -1:
		return 0, 0, conflict(block, "markers not found")
	case begin == -1:
		return 0, 0, conflict(block, "begin marker not found")
	case end == -1:
		return 0, 0, conflict(block, "end marker not found")
	case end < begin:
		return 0, 0, conflict(block, "end marker precedes begin marker")
	}
	return begin, end, nil
}

// commentClosers may follow a marker so it can live in HTML or template files.
var commentClosers = []string{"-->", "#}", "*/"}

func markerText(line string) string {
	t := strings.TrimSpace(line)
	for _, c := range commentClosers {
		if strings.HasSuffix(t, c) {
			return strings.TrimSpace(strings.TrimSuffix(t, c))
		}
	}
	return t
}

func conflict(block, reason string) error {
	return apperrors.Newf(apperrors.CodeArtifactConflict, "list block %q: %s", block, reason).
		WithMeta("block", block)
}

// BlockEntries returns the trimmed, non-blank lines between the markers of block.
func BlockEntries(content, block string) ([]string, error) {
	lines := strings.Split(content, "\n")
	begin, end, err := locateBlock(lines, block)
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, l := range lines[begin+1 : end] {
		if t := strings.TrimSpace(l); t != "" {
			entries = append(entries, t)
		}
	}
	return entries, nil
}

// HasEntry reports whether entry is already an element of block.
func HasEntry(content, block, entry string) (bool, error) {
	entries, err := BlockEntries(content, block)
	if err != nil {
		return false, err
	}
	want := strings.TrimSpace(entry)
	for _, e := range entries {
		if e == want {
			return true, nil
		}
	}
	return false, nil
}

// InsertEntry adds entry as the last element of block, indented like the
// existing elements. It reports whether content changed.
func InsertEntry(content, block, entry string) (string, bool, error) {
	want := strings.TrimSpace(entry)
	if want == "" {
		return "", false, apperrors.Newf(apperrors.CodeInternal, "list block %q: empty entry", block)
	}
	lines := strings.Split(content, "\n")
	begin, end, err := locateBlock(lines, block)
	if err != nil {
		return "", false, err
	}

	indent := leadingSpace(lines[end])
	for i := begin + 1; i < end; i++ {
		t := strings.TrimSpace(lines[i])
		if t == want {
			return content, false, nil
		}
		if t != "" {
			indent = leadingSpace(lines[i])
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:end]...)
	out = append(out, indent+want)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n"), true, nil
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
