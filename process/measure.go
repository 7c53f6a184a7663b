package process

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"svgalign/state"
)

// Measure is the "measure" command action. It prints width of every argument
// as alignment would see it, one per line, tab separated from the text.
func Measure(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("measure")

	size := cmd.Float("size")
	if size <= 0 {
		return fmt.Errorf("font size must be positive, got %v", size)
	}
	if cmd.Args().Len() == 0 {
		return errors.New("nothing to measure")
	}

	if err := env.LoadFont(); err != nil {
		return err
	}
	log.Debug("Measuring", zap.String("font", env.Face.Family()),
		zap.Float32("scale_correction", env.Face.ScaleCorrection()), zap.Float64("size", size))

	for _, text := range cmd.Args().Slice() {
		width, err := env.Face.Measure(text, float32(size))
		if err != nil {
			return fmt.Errorf("unable to measure %q: %w", text, err)
		}
		if _, err := fmt.Fprintf(stdout, "%s\t%s\n", strconv.FormatFloat(float64(width), 'f', -1, 32), text); err != nil {
			return err
		}
	}
	return nil
}
