// wattsup-plot draws power and cumulative energy charts from a finished
// wattsup-logger sample log.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"wattsup-logger/internal/plot"
	"wattsup-logger/internal/version"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultLog = "log.out"

var (
	width  int
	height int
)

var rootCmd = &cobra.Command{
	Use:   "wattsup-plot [log file] [output file]",
	Short: "Chart power and energy from a wattsup-logger log",
	Long: `wattsup-plot reads a sample log (timestamp, index, W, V, A per line) and
draws power and cumulative energy against elapsed minutes. The charts go to
stdout as text. An output file named .png, .svg or .pdf receives the power
chart as an image, with the energy chart next to it as <name>-energy.<ext>;
any other output file receives the text charts.`,
	Args:         cobra.MaximumNArgs(2),
	Version:      version.Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logFile := defaultLog
		if len(args) > 0 {
			logFile = args[0]
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No input file specified: using %s\n", logFile)
		}
		var outFile string
		if len(args) > 1 {
			outFile = args[1]
		}
		return run(afero.NewOsFs(), cmd.OutOrStdout(), logFile, outFile)
	},
}

func init() {
	rootCmd.SetVersionTemplate(version.Info("wattsup-plot") + "\n")
	rootCmd.Flags().IntVar(&width, "width", plot.DefaultWidth, "chart width in characters")
	rootCmd.Flags().IntVar(&height, "height", plot.DefaultHeight, "chart height in lines")
}

func run(fs afero.Fs, stdout io.Writer, logFile, outFile string) error {
	exists, err := afero.Exists(fs, logFile)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s does not exist", logFile)
	}

	samples, err := plot.ReadLog(fs, logFile)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := plot.Report(&buf, samples, width, height); err != nil {
		return err
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return err
	}
	switch {
	case outFile == "":
	case plot.ImageFormat(outFile) != "":
		if err := plot.SaveImages(fs, outFile, samples); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Plots saved as %s and %s\n", outFile, plot.EnergyImagePath(outFile))
	default:
		if err := afero.WriteFile(fs, outFile, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outFile, err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
