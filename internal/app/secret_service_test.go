package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/example/stackup/internal/errors"
)

func fixedGen(v string) func() (string, error) {
	return func() (string, error) { return v, nil }
}

func TestSecretService_Ensure(t *testing.T) {
	long := strings.Repeat("a", 50)
	fresh := strings.Repeat("b", 50)

	tests := []struct {
		name      string
		existing  map[string]string
		force     bool
		wantValue string
		wantGen   bool
	}{
		{"absent", nil, false, fresh, true},
		{"kept", map[string]string{"SECRET_KEY": long}, false, long, false},
		{"placeholder replaced", map[string]string{"SECRET_KEY": "change-me"}, false, fresh, true},
		{"angle placeholder replaced", map[string]string{"SECRET_KEY": "<your secret>"}, false, fresh, true},
		{"empty replaced", map[string]string{"SECRET_KEY": ""}, false, fresh, true},
		{"forced", map[string]string{"SECRET_KEY": long}, true, fresh, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockEnvStore()
			for k, v := range tt.existing {
				store.values[k] = v
			}
			rec, err := NewSecretService(store).Ensure(context.Background(), "SECRET_KEY", fixedGen(fresh), tt.force)
			if err != nil {
				t.Fatalf("Ensure() error = %v", err)
			}
			if rec.Value != tt.wantValue || rec.Generated != tt.wantGen {
				t.Errorf("Ensure() = %+v, want value %q generated %v", rec, tt.wantValue, tt.wantGen)
			}
			if store.values["SECRET_KEY"] != tt.wantValue {
				t.Errorf("stored = %q", store.values["SECRET_KEY"])
			}
			if rec.StorePath != "/project/.env" {
				t.Errorf("StorePath = %q", rec.StorePath)
			}
			if !tt.wantGen && store.sets != 0 {
				t.Errorf("store written %d times for a kept secret", store.sets)
			}
		})
	}
}

func TestSecretService_RejectsWeakOrFailedGeneration(t *testing.T) {
	store := newMockEnvStore()
	svc := NewSecretService(store)

	if _, err := svc.Ensure(context.Background(), "SECRET_KEY", fixedGen("short"), false); err == nil {
		t.Error("expected error for a short generated secret")
	}
	failing := func() (string, error) { return "", errors.New("entropy exhausted") }
	if _, err := svc.Ensure(context.Background(), "SECRET_KEY", failing, false); !apperrors.IsCode(err, apperrors.CodeInternal) {
		t.Errorf("Ensure() error = %v, want INTERNAL", err)
	}
	if store.sets != 0 {
		t.Error("nothing may be stored when generation fails")
	}
	if _, err := svc.Ensure(context.Background(), "", nil, false); !apperrors.IsCode(err, apperrors.CodeUsage) {
		t.Errorf("Ensure(\"\") error = %v, want USAGE", err)
	}
}

func TestSecretService_DefaultGenerator(t *testing.T) {
	store := newMockEnvStore()
	rec, err := NewSecretService(store).Ensure(context.Background(), "SECRET_KEY", nil, false)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if len(rec.Value) != 50 {
		t.Errorf("len = %d, want 50", len(rec.Value))
	}
}
