package appt

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show <appointment-id>",
	Short: "Show one appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := cli.ParseID("appointment ID", args[0])
		if err != nil {
			return err
		}

		a, err := app.AppointmentsHandler.Get(cmd.Context(), queries.GetAppointmentQuery{AppointmentID: id})
		if err != nil {
			return fmt.Errorf("failed to load appointment: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Appointment")
		fmt.Fprintln(out, cli.Separator)
		printAppointment(out, app, a)
		return nil
	},
}
