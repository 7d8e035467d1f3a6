package plot

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"wattsup-logger/internal/protocol"

	"github.com/spf13/afero"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Image size of saved charts.
const (
	imageWidth  = 8 * vg.Inch
	imageHeight = 5 * vg.Inch
)

// ImageFormat returns the image format for path's extension, or "" when
// the path does not name an image.
func ImageFormat(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "png", "svg", "pdf", "jpg", "jpeg", "tif", "tiff", "eps":
		return ext
	default:
		return ""
	}
}

// EnergyImagePath names the energy chart saved next to the power chart.
func EnergyImagePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-energy" + ext
}

// WriteImage renders c's series as a line plot in the given format.
func WriteImage(w io.Writer, c Chart, xs, ys []float64, format string) error {
	n := len(ys)
	if len(xs) < n {
		n = len(xs)
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}

	p := gplot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Time (minutes)"
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())
	if n > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build %s plot: %w", c.Title, err)
		}
		p.Add(line)
	}

	wt, err := p.WriterTo(imageWidth, imageHeight, format)
	if err != nil {
		return fmt.Errorf("failed to render %s plot: %w", c.Title, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveImages writes the power chart to path and the cumulative energy
// chart (in kJ) to EnergyImagePath(path), in the format path's extension
// names.
func SaveImages(fs afero.Fs, path string, samples []protocol.Sample) error {
	format := ImageFormat(path)
	if format == "" {
		return fmt.Errorf("%s: not an image file name", path)
	}
	xs := Minutes(samples)

	if err := saveImage(fs, path, PowerChart(), xs, Power(samples), format); err != nil {
		return err
	}
	return saveImage(fs, EnergyImagePath(path), EnergyChart(), xs, kilojoules(Energy(samples)), format)
}

func saveImage(fs afero.Fs, path string, c Chart, xs, ys []float64, format string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteImage(f, c, xs, ys, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
