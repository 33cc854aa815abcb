package hours

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/availability/application/queries"
)

var (
	nextFrom    string
	nextHorizon int
)

var nextCmd = &cobra.Command{
	Use:   "next <shop-id>",
	Short: "Find when a shop next opens",
	Long: `Find the start of the next opening window after a time (default now),
skipping closures. Only the first window of each day is considered.

Examples:
  groomly hours next 550e8400-... --from 2025-06-01T12:00 --horizon 60`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, err := cli.ParseID("shop ID", args[0])
		if err != nil {
			return err
		}
		from, err := cli.ParseTime(nextFrom, app.Location)
		if err != nil {
			return err
		}

		res, err := app.AvailabilityHandler.NextOpening(cmd.Context(), queries.NextOpeningQuery{
			ShopID:      shopID,
			From:        from,
			HorizonDays: nextHorizon,
		})
		if err != nil {
			return fmt.Errorf("failed to find next opening: %w", err)
		}

		out := cmd.OutOrStdout()
		if !res.Found {
			fmt.Fprintf(out, "No opening within %d days\n", res.HorizonDays)
			return nil
		}
		fmt.Fprintf(out, "Next opening: %s\n", res.At.Format("Mon 2006-01-02 15:04 MST"))
		return nil
	},
}

func init() {
	nextCmd.Flags().StringVar(&nextFrom, "from", "", "search after this time (default now)")
	nextCmd.Flags().IntVar(&nextHorizon, "horizon", 0, "days to search (default from config)")
}
