package appt

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/commands"
)

var (
	rescheduleStart    string
	rescheduleEnd      string
	rescheduleDuration time.Duration
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <appointment-id>",
	Short: "Move an appointment to another slot",
	Long: `Move a scheduled or confirmed appointment. The new slot is checked
against opening hours and every other active booking.

Examples:
  groomly appt reschedule 3f2a... --start 2025-06-03T14:00 --duration 1h`,
	Aliases: []string{"move"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := cli.ParseID("appointment ID", args[0])
		if err != nil {
			return err
		}
		start, end, err := cli.ParseRange(rescheduleStart, rescheduleEnd, rescheduleDuration, app.Location)
		if err != nil {
			return err
		}

		result, err := app.RescheduleAppointmentHandler.Handle(cmd.Context(), commands.RescheduleAppointmentCommand{
			AppointmentID: id,
			Start:         start,
			End:           end,
			ActorID:       app.ActorID,
		})
		if err != nil {
			explainConflict(cmd.ErrOrStderr(), app, err)
			return fmt.Errorf("failed to reschedule appointment: %w", err)
		}
		app.Flush(cmd.Context())

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Appointment rescheduled!")
		fmt.Fprintln(out, cli.Separator)
		fmt.Fprintf(out, "  From: %s\n", cli.FormatTime(result.OldStart, app.Location))
		fmt.Fprintf(out, "  To:   %s - %s\n",
			cli.FormatTime(result.NewStart, app.Location), cli.FormatTime(result.NewEnd, app.Location))
		return nil
	},
}

func init() {
	rescheduleCmd.Flags().StringVar(&rescheduleStart, "start", "", "new start time (required)")
	rescheduleCmd.Flags().StringVar(&rescheduleEnd, "end", "", "new end time")
	rescheduleCmd.Flags().DurationVarP(&rescheduleDuration, "duration", "d", 0, "new duration (alternative to --end)")
	_ = rescheduleCmd.MarkFlagRequired("start")
}
