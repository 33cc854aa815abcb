package hours

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/availability/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show <shop-id>",
	Short: "Show a shop's opening hours and closures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, err := cli.ParseID("shop ID", args[0])
		if err != nil {
			return err
		}

		hours, err := app.AvailabilityHandler.GetShopHours(cmd.Context(), queries.GetShopHoursQuery{ShopID: shopID})
		if err != nil {
			return fmt.Errorf("failed to load hours: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Opening hours (%s)\n", hours.Timezone)
		fmt.Fprintln(out, cli.Separator)
		for _, w := range hours.Windows {
			fmt.Fprintf(out, "  %-9s %s-%s  (%d min)\n", w.Day, w.Start, w.End, w.DurationMinutes)
		}
		if len(hours.Closures) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Closed on:")
			for _, c := range hours.Closures {
				if c.Reason == "" {
					fmt.Fprintf(out, "  %s\n", c.Date)
					continue
				}
				fmt.Fprintf(out, "  %s  %s\n", c.Date, c.Reason)
			}
		}
		return nil
	},
}
