package main

import (
	"fmt"

	"github.com/gogpu/glcontext"
	"github.com/gogpu/glcontext/pixbuf"
	"github.com/gogpu/glcontext/surface"
	"github.com/spf13/cobra"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Create a context and exercise the texture and sharing paths",
	Long: `Create a context, upload a texture with a full mip chain, bind a
pbuffer surface, and snapshot a shared image, reporting each step.

Example:
  glctxinfo probe
  glctxinfo probe --driver software --size 256 --format bgra8
  glctxinfo probe --profile flat.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		driverName, _ := cmd.Flags().GetString("driver")
		profilePath, _ := cmd.Flags().GetString("profile")
		size, _ := cmd.Flags().GetInt("size")
		formatName, _ := cmd.Flags().GetString("format")

		format, ok := pixbuf.ParseFormat(formatName)
		if !ok {
			return fmt.Errorf("unknown pixel format %q", formatName)
		}

		profile := glcontext.ES2Profile()
		if profilePath != "" {
			p, err := glcontext.LoadProfile(profilePath)
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			profile = p
		}

		opts := []glcontext.Option{glcontext.WithProfile(profile)}
		if driverName != "" {
			opts = append(opts, glcontext.WithDriverName(driverName))
		}

		ctx, err := glcontext.New(opts...)
		if err != nil {
			return fmt.Errorf("failed to create context: %w", err)
		}
		defer ctx.Destroy()

		fmt.Printf("context:  id %d\n", ctx.ID())
		fmt.Printf("driver:   %s\n", ctx.Driver().Name())
		fmt.Printf("profile:  %s (texture %d, units %d, cube maps %v)\n",
			profile.Name, profile.MaxTextureSize, profile.MaxTextureUnits,
			profile.CubeMaps)

		if err := ctx.CreateTexture(glcontext.Target2D, 1); err != nil {
			return fmt.Errorf("failed to create texture: %w", err)
		}

		pix := make([]byte, format.ImageBytes(size, size))
		for i := range pix {
			pix[i] = byte(i)
		}
		if err := ctx.TexImage(glcontext.Target2D, 1, 0, format, size, size, pix); err != nil {
			return fmt.Errorf("failed to upload texture: %w", err)
		}
		if err := ctx.GenerateMipmaps(glcontext.Target2D, 1); err != nil {
			return fmt.Errorf("failed to generate mipmaps: %w", err)
		}

		levels := 0
		for ctx.ValidateSharedImage(glcontext.Target2D, 1, levels) == glcontext.Success {
			levels++
		}
		fmt.Printf("texture:  %dx%d %s, %d levels\n", size, size, format, levels)

		pb, err := surface.NewPbuffer(size, size, format)
		if err != nil {
			return fmt.Errorf("failed to create pbuffer: %w", err)
		}
		defer pb.Close()

		if err := pb.Fill(32, 64, 96, 255); err != nil {
			return fmt.Errorf("failed to fill pbuffer: %w", err)
		}
		if err := ctx.BindTexImage(pb); err != nil {
			return fmt.Errorf("failed to bind pbuffer: %w", err)
		}
		if err := ctx.ReleaseTexImage(pb); err != nil {
			return fmt.Errorf("failed to release pbuffer: %w", err)
		}
		fmt.Printf("pbuffer:  %dx%d bound and released\n", pb.Width(), pb.Height())

		img, err := ctx.CreateSharedImage(glcontext.Target2D, 1, 0)
		if err != nil {
			return fmt.Errorf("failed to create shared image: %w", err)
		}
		fmt.Printf("snapshot: image %d, %d bytes, refcount %d\n",
			img.ID(), img.ByteSize(), img.RefCount())
		if err := img.Release(); err != nil {
			return fmt.Errorf("failed to release shared image: %w", err)
		}

		fmt.Printf("group:    %s\n", ctx.ShareGroup().Stats())
		return nil
	},
}

func init() {
	probeCmd.Flags().StringP("driver", "d", "", "driver name (default: best available)")
	probeCmd.Flags().StringP("profile", "p", "", "capability profile TOML file")
	probeCmd.Flags().IntP("size", "s", 64, "probe texture size")
	probeCmd.Flags().StringP("format", "f", "rgba8", "pixel format (r8, rgb8, rgba8, bgra8)")
	rootCmd.AddCommand(probeCmd)
}
