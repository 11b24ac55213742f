package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInspectCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Initialize the chain and print the transform of every stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := loadChain(cmd.Context(), opts.configPath, opts.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := lc.Close(context.Background()); err != nil {
					opts.logger.Warn("closing chain", zap.Error(err))
				}
			}()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tMODULE\tTRANSFORM\tINIT\tVERSION\tEXPORTS")
			for i, s := range lc.chain.Stages() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
					s.Name, lc.cfg.Modules[i].Path, s.Transform, s.HasInit, s.Version, strings.Join(s.Exports, ","))
			}
			return w.Flush()
		},
	}
}
