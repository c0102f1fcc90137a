package phase

// StepKind names one stage of a phase. Stages always execute in the order
// returned by PlanSteps.
type StepKind string

const (
	StepSecrets       StepKind = "secrets"
	StepProvision     StepKind = "provision"
	StepDirectories   StepKind = "directories"
	StepArtifacts     StepKind = "artifacts"
	StepRegistrations StepKind = "registrations"
	StepVerify        StepKind = "verify"
)

// PlanInput summarises a phase definition for planning.
type PlanInput struct {
	Secrets       int
	Provision     bool
	Directories   int
	Artifacts     int
	Registrations int
}

// PlanSteps returns the ordered stages to run for a phase. Empty stages are
// omitted; verification is always last.
func PlanSteps(in PlanInput) []StepKind {
	var steps []StepKind
	if in.Secrets > 0 {
		steps = append(steps, StepSecrets)
	}
	if in.Provision {
		steps = append(steps, StepProvision)
	}
	if in.Directories > 0 {
		steps = append(steps, StepDirectories)
	}
	if in.Artifacts > 0 {
		steps = append(steps, StepArtifacts)
	}
	if in.Registrations > 0 {
		steps = append(steps, StepRegistrations)
	}
	return append(steps, StepVerify)
}
