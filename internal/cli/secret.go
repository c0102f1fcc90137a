package cli

import (
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stackup/internal/adapters/cli"
	"github.com/example/stackup/internal/wire"
)

// SecretCmd returns the secret command
func SecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets in the project's .env file",
	}
	cmd.AddCommand(secretEnsureCmd())
	return cmd
}

func secretEnsureCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ensure <KEY>",
		Short: "Generate a secret unless a usable one is already set",
		Long: `Generate a random secret for KEY and store it in .env.

An existing value is kept unless it is empty or a placeholder such as
"change-me". Use --force to rotate it.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cliadapter.NewSecretAdapter(wire.SecretService(), os.Stdout).Ensure(cmd.Context(), args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing value")
	return cmd
}
