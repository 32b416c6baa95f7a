package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/carecrate/internal/report"
)

func newReportCommand(opts *RootOptions) *cobra.Command {
	var (
		from  string
		to    string
		email bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize visits and waste over a date range",
		Long: `Summarize visits and waste in [from, to). Bounds accept a date
(2006-01-02), an RFC 3339 time, or Unix milliseconds. Without bounds the
last 7 days, today included, are reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			start, end, err := report.Window(from, to, time.Now(), cfg.FeedLocation)
			if err != nil {
				return err
			}
			summary, err := report.Summarize(ctx, store, start, end, cfg.FeedLocation)
			if err != nil {
				return err
			}

			if email {
				mailer, err := report.NewMailer(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
				if err != nil {
					return err
				}
				if err := mailer.Send(ctx, cfg.ReportRecipients, summary); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report mailed to %v\n", cfg.ReportRecipients)
			}
			return opts.emit(cmd.OutOrStdout(), summary, summary.Text())
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start of the range (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end of the range (exclusive)")
	cmd.Flags().BoolVar(&email, "email", false, "also mail the report to REPORT_RECIPIENTS")
	return cmd
}
