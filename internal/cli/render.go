package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"facial-editor/internal/scene"
	"facial-editor/internal/session"
	"facial-editor/pkg/errors"
)

type renderOpts struct {
	output  string
	confirm bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [scene" + scene.Ext + "]",
		Short: "Render a saved scene to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFromContext(cmd.Context())
			return runRender(cmd, e, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image (default: scene name with .png)")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "confirm a pending preview instead of failing")
	return cmd
}

func runRender(cmd *cobra.Command, e *env, path string, opts renderOpts) error {
	f, err := scene.Load(path)
	if err != nil {
		return err
	}
	canvas, err := f.LoadCanvas(path)
	if err != nil {
		return err
	}

	copts, err := ControllerOptions(e.cfg, e.logger)
	if err != nil {
		return err
	}
	c := session.NewController(copts)
	if fr := c.Restore(f.Placement(canvas), nil); fr.Err != nil {
		return fr.Err
	}
	if opts.confirm && f.Preview != nil {
		if fr := c.Confirm(); fr.Err != nil {
			return fr.Err
		}
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	fr := c.Save(out)
	if fr.Err != nil {
		if errors.Is(fr.Err, errors.ErrCodeUnconfirmedPreview) {
			return fmt.Errorf("%s has an unconfirmed preview (use --confirm to keep it): %w", path, fr.Err)
		}
		return fr.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), fr.Status)
	return nil
}
