// Package templates holds the embedded file templates for generated projects.
//
// Templates use [[ ]] delimiters so that Django's own {{ }} and {% %} syntax
// passes through untouched.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
	"unicode"
)

//go:embed django
var djangoTemplates embed.FS

const (
	root      = "django/"
	extension = ".tmpl"
)

var (
	parseOnce sync.Once
	parsed    map[string]*template.Template
	parseErr  error
)

// Render executes the template with the given id (its path below django/
// without the .tmpl extension, e.g. "project/settings.py").
func Render(id string, data any) ([]byte, error) {
	set, err := all()
	if err != nil {
		return nil, err
	}
	tmpl, ok := set[id]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", id)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// Exists reports whether a template id is known.
func Exists(id string) bool {
	set, err := all()
	if err != nil {
		return false
	}
	_, ok := set[id]
	return ok
}

func all() (map[string]*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = parseAll()
	})
	return parsed, parseErr
}

func parseAll() (map[string]*template.Template, error) {
	set := map[string]*template.Template{}
	err := fs.WalkDir(djangoTemplates, "django", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, extension) {
			return err
		}
		content, err := djangoTemplates.ReadFile(path)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, root), extension)
		tmpl, err := template.New(id).
			Delims("[[", "]]").
			Funcs(Funcs()).
			Option("missingkey=error").
			Parse(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		set[id] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Funcs returns the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"toLower": strings.ToLower,
		"toUpper": strings.ToUpper,
		"pascal":  ToPascalCase,
		"snake":   ToSnakeCase,
		"join":    strings.Join,
		"pyStr":   PyString,
	}
}

// PyString quotes s as a double-quoted Python string literal.
func PyString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// ToPascalCase converts a string to PascalCase, e.g. "video_library" to "VideoLibrary".
func ToPascalCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		word = strings.ToLower(word)
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, "")
}

// ToSnakeCase converts a string to snake_case.
func ToSnakeCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

// splitWords handles camelCase, PascalCase, snake_case and kebab-case.
func splitWords(s string) []string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)

	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			prev := rune(s[i-1])
			if !unicode.IsSpace(prev) && !unicode.IsUpper(prev) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}
