package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nekihlep/water-norm/console"
	"github.com/nekihlep/water-norm/service"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "water-norm",
		Short:        "Daily water norm calculator",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runConsole(ctx, cmd)
		},
	}

	cmd.AddCommand(newServeCmd())
	return cmd
}

func runConsole(ctx context.Context, cmd *cobra.Command) error {
	calc := service.NewWaterNormService(nil)
	return console.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), calc)
}
