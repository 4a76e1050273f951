package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	opengtap "github.com/devchoca/OpenGTAP"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	SparseThreshold float64
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "convert <in> <out>",
		Short:         "Convert between header array formats",
		Long:          "Convert a .har/.sl4 or .harx file to .har/.sl4, .harx, .xlsx or .parquet, chosen by the output extension. .xlsx and .parquet are output formats only.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().Float64Var(&opts.SparseThreshold, "sparse-threshold", -1,
		"stored-value density below which RE arrays are written sparse")

	return cmd
}

func runConvert(opts *ConvertOptions, cmd *cobra.Command, inPath, outPath string) error {
	threshold := opts.config.SparseThreshold
	if opts.SparseThreshold >= 0 {
		threshold = opts.SparseThreshold
	}
	opts.logger.Debug("converting",
		zap.String("in", inPath),
		zap.String("out", outPath),
		zap.Float64("sparse_threshold", threshold))

	if err := opengtap.Convert(inPath, outPath, opengtap.WithSparseThreshold(threshold)); err != nil {
		return err
	}
	opts.logger.Debug("conversion complete")
	return nil
}
