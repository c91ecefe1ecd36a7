package main

import (
	"fmt"

	"github.com/gogpu/glcontext"
	"github.com/spf13/cobra"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage capability profile files",
}

// profileInitCmd represents the profile init command
var profileInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a capability profile file",
	Long: `Write a built-in capability profile as a TOML file that can be edited
and passed to probe --profile or loaded with LoadProfile.

Example:
  glctxinfo profile init es2.toml
  glctxinfo profile init --base 2d flat.toml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("base")

		var p glcontext.Profile
		switch base {
		case "es2":
			p = glcontext.ES2Profile()
		case "2d":
			p = glcontext.Profile2D()
		default:
			return fmt.Errorf("unknown base profile %q (use es2 or 2d)", base)
		}

		if err := p.Save(args[0]); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		fmt.Printf("wrote %s profile to %s\n", p.Name, args[0])
		return nil
	},
}

// profileShowCmd represents the profile show command
var profileShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Load and validate a capability profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := glcontext.LoadProfile(args[0])
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		fmt.Printf("name:          %s\n", p.Name)
		fmt.Printf("texture size:  %d\n", p.MaxTextureSize)
		fmt.Printf("texture units: %d\n", p.MaxTextureUnits)
		fmt.Printf("cube maps:     %v\n", p.CubeMaps)
		fmt.Printf("mip levels:    %d\n", p.MaxLevels())
		return nil
	},
}

func init() {
	profileInitCmd.Flags().String("base", "es2", "base profile (es2 or 2d)")
	profileCmd.AddCommand(profileInitCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
