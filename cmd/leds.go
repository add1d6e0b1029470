package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/gridlight/internal/config"
	"github.com/smazurov/gridlight/internal/indicator"
	"github.com/spf13/cobra"
)

const ledStep = time.Second

// CreateLEDsCmd creates the leds self-test command.
func CreateLEDsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leds",
		Short: "Cycle the indicator LEDs once",
		Long: `Lights red, yellow and green in turn for one second each through the configured GPIO ` +
			`backend, then switches everything off and releases the pins. Ctrl-C stops early.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runLEDs(ctx, NewIndicator(opts, nil), ledStep, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				stop()
				os.Exit(1)
			}
		}),
	}
}

func runLEDs(ctx context.Context, ctrl *indicator.Controller, step time.Duration, out io.Writer) error {
	if err := ctrl.Setup(); err != nil {
		_ = ctrl.Close()
		return fmt.Errorf("indicator setup: %w", err)
	}
	defer ctrl.Close()

	for _, state := range []indicator.State{indicator.StateRed, indicator.StateYellow, indicator.StateGreen} {
		ctrl.Show(state)
		fmt.Fprintf(out, "%s on\n", state)

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "interrupted")
			return nil
		case <-time.After(step):
		}
	}

	ctrl.AllOff()
	fmt.Fprintln(out, "all off")
	return nil
}
