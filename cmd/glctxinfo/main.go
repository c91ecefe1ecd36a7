// Command glctxinfo inspects glcontext drivers, profiles, and the
// texture sharing paths.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/glcontext"
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glctxinfo",
	Short: "Inspect rendering context drivers and profiles",
	Long: `glctxinfo inspects the glcontext driver registry, probes context
creation end to end, and manages capability profile files.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			glcontext.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}
