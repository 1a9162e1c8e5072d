package main

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/restops/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.Redacted().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to restops.yaml (env RESTOPS_CONFIG)")
}

// loadConfig reads --config, falling back to defaults when no file is named.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := flagOrEnv(cmd, "config", "RESTOPS_CONFIG", "")
	if path == "" {
		return config.Parse(cmd.Context(), nil)
	}
	return config.Load(path)
}
