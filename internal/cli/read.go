package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	opengtap "github.com/devchoca/OpenGTAP"
)

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "read <file>",
		Short:         "Read a header array file and list its arrays",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, cmd, args[0])
		},
	}
}

func runRead(opts *RootOptions, cmd *cobra.Command, path string) error {
	opts.logger.Debug("reading file", zap.String("path", path))

	file, err := opengtap.ReadFile(path)
	if err != nil {
		return err
	}
	opts.logger.Debug("file read", zap.Int("arrays", file.Len()))

	out := cmd.OutOrStdout()
	for _, arr := range file.Arrays() {
		dims := arr.Dimensions()
		extents := make([]string, 0, len(dims))
		for _, d := range dims {
			if d != 1 {
				extents = append(extents, fmt.Sprint(d))
			}
		}
		if len(extents) == 0 {
			extents = append(extents, "1")
		}
		fmt.Fprintf(out, "%s  %s  %-12s %s\n",
			arr.Header(), arr.Type().Code(), strings.Join(extents, "x"), arr.Description())
	}

	if opts.Verbose {
		if opengtap.Validate(file, out) {
			fmt.Fprintln(out, "all sets consistent")
		}
	}
	return nil
}
