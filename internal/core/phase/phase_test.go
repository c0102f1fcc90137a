package phase

import (
	"reflect"
	"testing"
	"time"
)

func TestTransition(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name         string
		from, to     Status
		wantErr      bool
		wantFinished bool
	}{
		{"start", StatusNotStarted, StatusRunning, false, false},
		{"skip already complete", StatusNotStarted, StatusCompleted, false, true},
		{"finish", StatusRunning, StatusCompleted, false, true},
		{"fail", StatusRunning, StatusFailed, false, true},
		{"no fail before running", StatusNotStarted, StatusFailed, true, false},
		{"no backward", StatusCompleted, StatusRunning, true, false},
		{"no restart after failure", StatusFailed, StatusRunning, true, false},
		{"no self loop", StatusRunning, StatusRunning, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.to, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.NewStatus != tt.to {
				t.Errorf("Transition() NewStatus = %v, want %v", got.NewStatus, tt.to)
			}
			if (got.FinishedAt != nil) != tt.wantFinished {
				t.Errorf("Transition() FinishedAt = %v, wantFinished %v", got.FinishedAt, tt.wantFinished)
			}
			if got.FinishedAt != nil && !got.FinishedAt.Equal(now) {
				t.Errorf("Transition() FinishedAt = %v, want %v", got.FinishedAt, now)
			}
		})
	}
}

func TestCanStartPhase(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StartContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "first phase has no predecessor",
			ctx:         StartContext{PhaseID: "bootstrap"},
			wantAllowed: true,
		},
		{
			name:        "predecessor complete",
			ctx:         StartContext{PhaseID: "auth", Predecessor: "bootstrap", PredState: Detection{Complete: true}},
			wantAllowed: true,
		},
		{
			name: "predecessor incomplete",
			ctx: StartContext{
				PhaseID:     "auth",
				Predecessor: "bootstrap",
				PredState:   Detection{Missing: []string{"manage.py", "SECRET_KEY"}},
			},
			wantAllowed: false,
			wantReason:  "phase auth requires phase bootstrap to be complete (missing: manage.py, SECRET_KEY)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanStartPhase(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanStartPhase() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("CanStartPhase() Reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if err := result.Error(); tt.wantAllowed != (err == nil) {
				t.Errorf("Error() = %v, wantAllowed %v", err, tt.wantAllowed)
			}
		})
	}
}

func TestCheckPostcondition(t *testing.T) {
	if r := CheckPostcondition("bootstrap", Detection{Complete: true}); !r.Allowed {
		t.Errorf("CheckPostcondition() Allowed = false for complete detection")
	}
	r := CheckPostcondition("bootstrap", Detection{Missing: []string{"demo/settings.py"}})
	if r.Allowed {
		t.Fatal("CheckPostcondition() Allowed = true for incomplete detection")
	}
	want := "phase bootstrap finished its steps but is still incomplete (missing: demo/settings.py)"
	if r.Reason != want {
		t.Errorf("CheckPostcondition() Reason = %q, want %q", r.Reason, want)
	}
}

func TestPlanSteps(t *testing.T) {
	tests := []struct {
		name string
		in   PlanInput
		want []StepKind
	}{
		{
			name: "bootstrap",
			in:   PlanInput{Secrets: 1, Provision: true, Directories: 3, Artifacts: 12, Registrations: 1},
			want: []StepKind{StepSecrets, StepProvision, StepDirectories, StepArtifacts, StepRegistrations, StepVerify},
		},
		{
			name: "module only",
			in:   PlanInput{Artifacts: 4, Registrations: 1},
			want: []StepKind{StepArtifacts, StepRegistrations, StepVerify},
		},
		{
			name: "empty",
			want: []StepKind{StepVerify},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanSteps(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanSteps() = %v, want %v", got, tt.want)
			}
		})
	}
}
