package setup

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	litecfg "github.com/food-health-score-server/internal/config"
)

// NewCommand builds the "setup" command of the lite server.
func NewCommand(out io.Writer) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:           "setup",
		Short:         "Register the server with a desktop MCP client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "client-config", "", "Client config file (default Claude Desktop location)")
	cmd.PersistentFlags().StringVarP(&opts.DataDir, "data-dir", "d", "", "Data directory for the percentile database and exports")

	register := &cobra.Command{
		Use:   "client",
		Short: "Add the server to the client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DataDir != "" {
				if err := (&litecfg.LiteConfig{DataDir: opts.DataDir}).EnsureDataDir(); err != nil {
					return fmt.Errorf("failed to create data directory: %w", err)
				}
			}
			path, err := Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Registered %s in %s\n", ServerName, path)
			fmt.Fprintln(out, "Restart the client to load the new configuration.")
			return nil
		},
	}
	register.Flags().StringVarP(&opts.BinaryPath, "binary", "b", "", "Server binary (default: PATH lookup, then this executable)")
	register.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level passed to the server")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the registration and data directory status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := GetStatus(opts)
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(s)
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Exit non-zero unless the server is registered with an existing binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := GetStatus(opts)
			if !s.Healthy() {
				for _, issue := range s.Issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				return fmt.Errorf("setup is incomplete")
			}
			fmt.Fprintln(out, "✓ Configuration is valid")
			return nil
		},
	}

	cmd.AddCommand(register, status, validate)
	return cmd
}
