package process

import (
	"context"
	"strconv"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
)

func runMeasure(ctx context.Context, args ...string) error {
	cmd := &cli.Command{
		Name:   "measure",
		Action: Measure,
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "size", Value: 16},
		},
	}
	return cmd.Run(ctx, append([]string{"measure"}, args...))
}

func TestMeasure(t *testing.T) {
	ctx, env, _ := testEnv(t)
	out := captureStdout(t)

	if err := runMeasure(ctx, "--size", "20", "", "ii", "WW"); err != nil {
		t.Fatalf("Measure() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
	}

	widths := make([]float64, len(lines))
	for i, line := range lines {
		w, _, ok := strings.Cut(line, "\t")
		if !ok {
			t.Fatalf("line %q has no tab", line)
		}
		v, err := strconv.ParseFloat(w, 32)
		if err != nil {
			t.Fatalf("width %q is not a number: %v", w, err)
		}
		widths[i] = v
	}
	if widths[0] != 0 {
		t.Errorf("empty string width = %v, want 0", widths[0])
	}
	if !(widths[1] < widths[2]) {
		t.Errorf("width(ii) = %v should be less than width(WW) = %v", widths[1], widths[2])
	}

	want, err := env.Face.Measure("WW", 20)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if float32(widths[2]) != want {
		t.Errorf("printed width = %v, want %v", widths[2], want)
	}
}

func TestMeasure_Errors(t *testing.T) {
	ctx, _, _ := testEnv(t)
	captureStdout(t)

	if err := runMeasure(ctx, "--size", "0", "x"); err == nil {
		t.Error("Expected error for zero size")
	}
	if err := runMeasure(ctx); err == nil {
		t.Error("Expected error for nothing to measure")
	}
}
