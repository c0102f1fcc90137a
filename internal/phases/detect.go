package phases

import (
	"context"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/core/phase"
)

// Detect evaluates the completion predicate of p against the project tree,
// the env store and, for bootstrap, the database. It only reads.
//
// A phase is complete when every artifact it would apply is already
// satisfied, every registration is present and any phase-specific checks
// hold. Broken list-block markers count as missing, not as an error.
func (p Phase) Detect(ctx context.Context, cfg config.ProjectConfig, env Env) (phase.Detection, error) {
	var arts []artifact.Artifact
	for _, pl := range p.Artifacts(cfg) {
		arts = append(arts, pl.Artifact)
	}
	for _, reg := range p.Registrations(cfg) {
		arts = append(arts, RegistrationArtifacts(cfg, reg)...)
	}

	var missing []string
	for _, a := range arts {
		ok, err := satisfied(ctx, env, a)
		if err != nil {
			return phase.Detection{}, err
		}
		if !ok {
			missing = append(missing, describeMissing(a))
		}
	}

	if p.extra != nil {
		more, err := p.extra(ctx, cfg, env)
		if err != nil {
			return phase.Detection{}, err
		}
		missing = append(missing, more...)
	}

	return phase.Detection{Complete: len(missing) == 0, Missing: missing}, nil
}

func satisfied(ctx context.Context, env Env, a artifact.Artifact) (bool, error) {
	content, exists, err := env.FS.ReadFile(ctx, a.Path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	switch st := a.Strategy.(type) {
	case artifact.AppendUniqueLine:
		return artifact.HasLine(string(content), st.Line), nil
	case artifact.InsertIntoListBlock:
		ok, err := artifact.HasEntry(string(content), st.Block, st.Entry)
		if err != nil {
			return false, nil
		}
		return ok, nil
	default:
		return true, nil
	}
}

func describeMissing(a artifact.Artifact) string {
	switch st := a.Strategy.(type) {
	case artifact.AppendUniqueLine:
		return a.Path + ": " + st.Line
	case artifact.InsertIntoListBlock:
		return a.Path + " [" + st.Block + "]: " + st.Entry
	default:
		return a.Path
	}
}
