package appt

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	"github.com/felixgeelhaar/groomly/internal/booking/domain"
)

var (
	listFrom   string
	listDays   int
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list <shop-id>",
	Short: "List a shop's appointments",
	Long: `List appointments starting within a number of days from a date.

Examples:
  groomly appt list 550e... --from 2025-06-02 --days 7
  groomly appt list 550e... --status confirmed`,
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, err := cli.ParseID("shop ID", args[0])
		if err != nil {
			return err
		}
		from, err := cli.ParseTime(listFrom, app.Location)
		if err != nil {
			return err
		}
		if listFrom == "" {
			y, m, d := from.Date()
			from = time.Date(y, m, d, 0, 0, 0, 0, app.Location)
		}
		if listDays <= 0 {
			listDays = 1
		}

		appts, err := app.AppointmentsHandler.List(cmd.Context(), queries.ListAppointmentsQuery{
			ShopID: shopID,
			From:   from,
			To:     from.AddDate(0, 0, listDays),
			Status: domain.Status(strings.ToUpper(strings.TrimSpace(listStatus))),
		})
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(appts) == 0 {
			fmt.Fprintln(out, "No appointments.")
			return nil
		}
		fmt.Fprintf(out, "%d appointment(s)\n", len(appts))
		fmt.Fprintln(out, cli.Separator)
		for _, a := range appts {
			fmt.Fprintf(out, "  %s  %s  %-11s  %s  %s\n",
				cli.FormatTime(a.Start, app.Location), a.End.In(app.Location).Format("15:04"),
				a.Status, a.Service, a.ID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "first day (default today)")
	listCmd.Flags().IntVar(&listDays, "days", 1, "number of days to list")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only this status")
}
