package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/idpolicy/internal/policy/app"
	"github.com/aussiebroadwan/idpolicy/internal/policy/config"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a registry file without serving it",
		Long: "Validate a registry file against the schema and the cross-reference rules " +
			"registration applies. Without an argument the default registry location is checked.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.DefaultRegistryFile()
			if len(args) == 1 {
				path = args[0]
			}

			reg, err := config.Load(path)
			if err != nil {
				return err
			}
			snap, err := registry.Build(reg.Clients, reg.ApiResources, reg.IdentityResources)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			for _, c := range snap.Collisions() {
				fmt.Fprintf(out, "warning: scope %q is both an identity resource and a scope of api resource %q; the identity resource wins\n",
					c.Scope, c.ApiResource)
			}
			fmt.Fprintf(out, "%s: ok (%d clients, %d api resources, %d identity resources)\n",
				path, len(reg.Clients), len(reg.ApiResources), len(reg.IdentityResources))
			return nil
		},
	}
}
