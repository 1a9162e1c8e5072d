package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/restops/observe"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "restops",
		Short:         "Cached REST endpoints with CORS and input sanitization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env RESTOPS_LOG_LEVEL)")

	root.AddCommand(newServeCmd(), newCacheCmd(), newConfigCmd())
	return root
}

// flagOrEnv returns the flag value, then the environment value, then def.
func flagOrEnv(cmd *cobra.Command, flag, env, def string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return def
}

func newLogger(cmd *cobra.Command, def string) observe.Logger {
	return observe.NewLoggerWithWriter(flagOrEnv(cmd, "log-level", "RESTOPS_LOG_LEVEL", def), cmd.ErrOrStderr())
}
