package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"facial-editor/internal/placement"
	"facial-editor/internal/raster"
	"facial-editor/internal/scene"
	"facial-editor/internal/session"
	"facial-editor/internal/transform"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

type placeOpts struct {
	places   []string
	output   string
	scene    string
	scale    float64
	rotation float64
	opacity  float64
}

// placeSpec is one --place argument: category/name@x,y.
type placeSpec struct {
	Ref placement.AssetRef
	At  geometry.PointInt
}

func parsePlaceSpec(s string) (placeSpec, error) {
	feature, pos, ok := strings.Cut(s, "@")
	if !ok {
		return placeSpec{}, errors.New(errors.ErrCodeInvalidInput, "placement %q: want category/name@x,y", s)
	}
	category, name, ok := strings.Cut(feature, "/")
	if !ok || category == "" || name == "" {
		return placeSpec{}, errors.New(errors.ErrCodeInvalidInput, "placement %q: feature must be category/name", s)
	}
	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return placeSpec{}, errors.New(errors.ErrCodeInvalidInput, "placement %q: position must be x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return placeSpec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "placement %q: bad x", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return placeSpec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "placement %q: bad y", s)
	}
	return placeSpec{
		Ref: placement.AssetRef{Category: category, Name: name},
		At:  geometry.PointInt{X: x, Y: y},
	}, nil
}

func newPlaceCmd() *cobra.Command {
	opts := placeOpts{scale: 1, opacity: 1}

	cmd := &cobra.Command{
		Use:   "place [photo]",
		Short: "Place catalog features on a photo and save the result",
		Example: `  facetool place face.jpg --place "beard/Full Beard@250,300" -o bearded.png
  facetool place face.jpg --place "hat/Top Hat@200,80" --scale 1.2 --rotation -10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFromContext(cmd.Context())
			return runPlace(cmd, e, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.places, "place", "p", nil, "feature to place as category/name@x,y (repeatable)")
	f.StringVarP(&opts.output, "output", "o", "", "output image (default: <photo>-edited.png)")
	f.StringVar(&opts.scene, "scene", "", "also write the placements as a scene file")
	f.Float64Var(&opts.scale, "scale", 1, "scale applied to every placed feature")
	f.Float64Var(&opts.rotation, "rotation", 0, "rotation in degrees, counter-clockwise")
	f.Float64Var(&opts.opacity, "opacity", 1, "opacity in [0, 1]")
	cmd.MarkFlagRequired("place")
	return cmd
}

func runPlace(cmd *cobra.Command, e *env, photo string, opts placeOpts) error {
	specs := make([]placeSpec, 0, len(opts.places))
	for _, p := range opts.places {
		s, err := parsePlaceSpec(p)
		if err != nil {
			return err
		}
		specs = append(specs, s)
	}

	canvas, err := raster.Load(photo)
	if err != nil {
		return err
	}
	copts, err := ControllerOptions(e.cfg, e.logger)
	if err != nil {
		return err
	}
	c := session.NewController(copts)

	steps := []func() session.Frame{func() session.Frame { return c.SetCanvas(canvas) }}
	for _, s := range specs {
		steps = append(steps,
			func() session.Frame { return c.Select(s.Ref.Category, s.Ref.Name) },
			func() session.Frame { return c.Adjust(transform.FieldScale, opts.scale) },
			func() session.Frame { return c.Adjust(transform.FieldRotation, opts.rotation) },
			func() session.Frame { return c.Adjust(transform.FieldOpacity, opts.opacity) },
			func() session.Frame { return c.Click(s.At) },
			c.Confirm,
		)
	}
	for _, step := range steps {
		f := step()
		if f.Err != nil {
			return f.Err
		}
		e.logger.Debug(f.Status)
	}

	out := opts.output
	if out == "" {
		out = defaultOutput(photo)
	}
	f := c.Save(out)
	if f.Err != nil {
		return f.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), f.Status)

	if opts.scene != "" {
		sf := scene.New(photo)
		sf.SetCanvas(opts.scene, photo)
		sf.Capture(c.Snapshot())
		if err := sf.Save(opts.scene); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Scene saved to "+opts.scene)
	}
	return nil
}

func defaultOutput(photo string) string {
	ext := filepath.Ext(photo)
	if ext == "" {
		ext = ".png"
	}
	return strings.TrimSuffix(photo, filepath.Ext(photo)) + "-edited" + ext
}
