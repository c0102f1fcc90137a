package secondary

import "context"

// ProvisionStatus summarises what provisioning did.
type ProvisionStatus string

const (
	ProvisionCreated         ProvisionStatus = "created"
	ProvisionAlreadyExists   ProvisionStatus = "already-exists"
	ProvisionValidatedRemote ProvisionStatus = "validated-remote"
)

// ConnParams are the resolved connection parameters handed to the env store
// and to templates.
type ConnParams struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     int
	SSLMode  string
}

// ProvisionResult is the outcome of provisioning or inspecting a database.
type ProvisionResult struct {
	Status            ProvisionStatus
	RoleCreated       bool
	DatabaseCreated   bool
	PrivilegesGranted bool
	Conn              ConnParams
}

// DatabaseProvisioner is the secondary port for obtaining the backing database.
// Exactly one implementation is selected per run.
type DatabaseProvisioner interface {
	// Mode returns "local" or "remote".
	Mode() string

	// Provision makes the database usable, creating what is missing when
	// the implementation is allowed to.
	Provision(ctx context.Context) (ProvisionResult, error)

	// Inspect reports whether the database is already usable without
	// changing anything.
	Inspect(ctx context.Context) (ProvisionResult, bool, error)
}
