package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/pantry"
)

func newWasteCommand(opts *RootOptions) *cobra.Command {
	var (
		since int64
		order string
	)
	cmd := &cobra.Command{
		Use:   "waste",
		Short: "List waste recorded at or after a timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := pantry.NewService(store).FetchWaste(ctx, models.WasteQuery{
				Since: since,
				Order: models.SortOrder(order),
			})
			if err != nil {
				return err
			}

			var b strings.Builder
			for _, w := range records {
				meta := "{}"
				if len(w.Metadata) > 0 {
					raw, err := json.Marshal(w.Metadata)
					if err != nil {
						return fmt.Errorf("encode metadata for %d: %w", w.TimeOfWaste, err)
					}
					meta = string(raw)
				}
				fmt.Fprintf(&b, "%d\t%s\t%s\n", w.TimeOfWaste, time.UnixMilli(w.TimeOfWaste).UTC().Format(time.RFC3339), meta)
			}
			fmt.Fprintf(&b, "%d record(s)\n", len(records))
			return opts.emit(cmd.OutOrStdout(), records, b.String())
		},
	}
	cmd.Flags().Int64Var(&since, "since", 0, "lower bound in Unix milliseconds (inclusive)")
	cmd.Flags().StringVar(&order, "order", "", "sort order (asc|desc); empty keeps store order")
	return cmd
}
