package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/gridlight/internal/config"
	"github.com/smazurov/gridlight/internal/logging"
	"github.com/smazurov/gridlight/internal/signal"
	"github.com/spf13/cobra"
)

// CreateCheckCmd creates the check command.
func CreateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fetch and classify the grid signal once",
		Long: `Performs a single fetch of the configured signal endpoint, prints the classified status ` +
			`and exits. No GPIO is touched. Exits 1 when the fetch fails or the status is error.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			fetcher, err := NewFetcher(opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(1)
			}

			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			classifier := signal.NewClassifier(logging.GetLogger("signal"))
			if code := runCheck(ctx, fetcher, classifier, cmd.OutOrStdout()); code != 0 {
				stop()
				os.Exit(code)
			}
		}),
	}
}

func runCheck(ctx context.Context, fetcher *signal.Fetcher, classifier *signal.Classifier, out io.Writer) int {
	fmt.Fprintf(out, "URL:    %s\n", fetcher.URL())

	payload, err := fetcher.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(out, "Status: %s\n", signal.StatusError)
		fmt.Fprintf(out, "Error:  %v\n", err)
		return 1
	}

	status := classifier.Classify(payload)
	fmt.Fprintf(out, "Status: %s\n", status)

	value, latestErr := payload.Latest()
	switch {
	case latestErr != nil:
		fmt.Fprintf(out, "Error:  %v\n", latestErr)
	case status == signal.StatusError:
		fmt.Fprintf(out, "Signal: %d\n", value)
		fmt.Fprintf(out, "Error:  %v\n", fmt.Errorf("%w: %d", signal.ErrSignalUnknown, value))
	default:
		fmt.Fprintf(out, "Signal: %d\n", value)
	}

	if status == signal.StatusError {
		return 1
	}
	return 0
}
