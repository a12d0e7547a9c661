package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series"
	"github.com/mintvault/series-ledger/modules/series/constants"
	"github.com/spf13/cobra"
)

var versions = map[string]string{
	"":       constants.Version,
	"series": series.Version,
}

type versionCmdOptions struct {
	Module string
}

func NewVersionCommand() *cobra.Command {
	opts := &versionCmdOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show series-ledger version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Module, "module", "", `Show version of a specific module. E.g. "series"`)

	return cmd
}

func versionHandler(opts *versionCmdOptions, _ *cobra.Command, _ []string) error {
	version, ok := versions[opts.Module]
	if !ok {
		return errors.Wrap(errs.Unsupported, "Invalid module name")
	}
	fmt.Println(version)
	return nil
}
