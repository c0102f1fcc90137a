package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/example/stackup/internal/errors"
)

var (
	pyIdentRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pgIdentRe   = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)
	routeRe     = regexp.MustCompile(`^[a-z0-9][a-z0-9_/-]*/$`)
	semverishRe = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// Names that would shadow a framework package or collide with directories
// and apps the generator creates itself.
var reservedModuleNames = map[string]bool{
	"django": true, "test": true, "tests": true, "site": true,
	"static": true, "media": true, "templates": true, "accounts": true,
}

var reservedRoleNames = map[string]bool{
	"postgres": true, "public": true, "template0": true, "template1": true,
	"all": true, "user": true, "current_user": true, "session_user": true,
	"current_role": true, "none": true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	must(v.RegisterValidation("pyident", func(fl validator.FieldLevel) bool {
		return IsModuleName(fl.Field().String())
	}))
	must(v.RegisterValidation("pgident", func(fl validator.FieldLevel) bool {
		return IsRoleName(fl.Field().String())
	}))
	must(v.RegisterValidation("pgname", func(fl validator.FieldLevel) bool {
		return pgIdentRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("route", func(fl validator.FieldLevel) bool {
		return routeRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("semverish", func(fl validator.FieldLevel) bool {
		return semverishRe.MatchString(fl.Field().String())
	}))
	v.RegisterStructValidation(projectLevel, ProjectConfig{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsModuleName reports whether s can name a Python package generated by stackup.
func IsModuleName(s string) bool {
	return pyIdentRe.MatchString(s) && !pythonKeywords[s] && !reservedModuleNames[strings.ToLower(s)]
}

// IsRoleName reports whether s is a safe unquoted PostgreSQL identifier for
// a role or database we create.
func IsRoleName(s string) bool {
	return pgIdentRe.MatchString(s) && !reservedRoleNames[s] && !strings.HasPrefix(s, "pg_")
}

func projectLevel(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(ProjectConfig)

	seen := map[string]bool{cfg.ProjectName: true, cfg.ModuleName: true}
	// admin/ and accounts/ are mounted by the generated project itself.
	routes := map[string]bool{"admin/": true, "accounts/": true}
	for i, f := range cfg.Features {
		if seen[f.Name] {
			sl.ReportError(f.Name, fmt.Sprintf("features[%d].name", i), "Name", "unique", "")
		}
		seen[f.Name] = true
		if routes[f.Route] {
			sl.ReportError(f.Route, fmt.Sprintf("features[%d].route", i), "Route", "unique", "")
		}
		routes[f.Route] = true
	}
	if cfg.Database.Mode == ModeLocal && cfg.Database.Superuser == cfg.Database.User {
		sl.ReportError(cfg.Database.User, "database.user", "User", "nesuperuser", "")
	}
}

// Validate checks cfg and returns a CONFIG_INVALID error listing every
// offending field.
func Validate(cfg ProjectConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperrors.New(apperrors.CodeConfigInvalid, strings.Join(msgs, "; ")).
		WithMeta("fields", len(msgs))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "ProjectConfig.")
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "pyident":
		return fmt.Sprintf("%s: %q is not a usable Python module name", field, fe.Value())
	case "pgident", "pgname":
		return fmt.Sprintf("%s: %q is not a usable PostgreSQL identifier", field, fe.Value())
	case "route":
		return fmt.Sprintf("%s: %q must be a relative URL prefix ending in /", field, fe.Value())
	case "semverish":
		return fmt.Sprintf("%s: %q is not a dotted version", field, fe.Value())
	case "nefield":
		return fmt.Sprintf("%s: must differ from %s", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s: %q is already taken", field, fe.Value())
	case "nesuperuser":
		return field + ": must differ from database.superuser"
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}
