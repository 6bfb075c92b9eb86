package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/idpolicy/internal/policy/app"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "idpolicy",
		Short:         "OAuth2/OpenID Connect client registry and authorization decision service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newHashSecretCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var registryFile string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve authorization decisions over HTTP",
		Long: "Serve authorization decisions over HTTP. Settings come from IDPOLICY_* and " +
			"the usual ENV, LOG_LEVEL, LOG_FORMAT and PORT environment variables; flags override them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			if cmd.Flags().Changed("registry") {
				cfg.RegistryFile = registryFile
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVar(&registryFile, "registry", "", "registry file (overrides IDPOLICY_REGISTRY_FILE)")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (overrides PORT)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the idpolicy version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "idpolicy %s\n", app.BuildVersion)
			return err
		},
	}
}
