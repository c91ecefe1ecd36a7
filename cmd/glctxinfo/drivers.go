package main

import (
	"fmt"

	"github.com/gogpu/glcontext"
	"github.com/spf13/cobra"
)

// driversCmd represents the drivers command
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List registered context drivers",
	Long: `List every driver in the registry with its selection priority and
availability on this system. Contexts pick the available driver with the
highest priority unless one is requested by name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := glcontext.Drivers()
		if len(names) == 0 {
			fmt.Println("no drivers registered")
			return nil
		}

		for _, name := range names {
			entry, ok := glcontext.GetDriver(name)
			if !ok {
				continue
			}
			status := "unavailable"
			if entry.Available() {
				status = "available"
			}
			fmt.Printf("%-12s priority %3d  %s\n", entry.Name, entry.Priority, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
}
