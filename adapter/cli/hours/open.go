package hours

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/availability/application/queries"
)

var openAt string

var openCmd = &cobra.Command{
	Use:   "open <shop-id>",
	Short: "Check whether a shop is open at a time",
	Long: `Check whether a shop is open at a time (default now).

Examples:
  groomly hours open 550e8400-... --at 2025-06-02T10:30`,
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
		at, err := cli.ParseTime(openAt, app.Location)
		if err != nil {
			return err
		}

		res, err := app.AvailabilityHandler.IsOpen(cmd.Context(), queries.IsOpenQuery{ShopID: shopID, At: at})
		if err != nil {
			return fmt.Errorf("failed to check hours: %w", err)
		}

		out := cmd.OutOrStdout()
		switch {
		case res.Open:
			fmt.Fprintf(out, "Open at %s\n", res.LocalTime.Format("Mon 2006-01-02 15:04 MST"))
		case res.ClosedDay:
			fmt.Fprintf(out, "Closed on %s (closure)\n", res.LocalTime.Format("2006-01-02"))
		default:
			fmt.Fprintf(out, "Closed at %s\n", res.LocalTime.Format("Mon 2006-01-02 15:04 MST"))
		}
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openAt, "at", "", "time to check (default now)")
}
