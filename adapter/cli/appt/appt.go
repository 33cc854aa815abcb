package appt

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	"github.com/felixgeelhaar/groomly/internal/booking/domain"
)

// Cmd is the appointment command group
var Cmd = &cobra.Command{
	Use:     "appt",
	Short:   "Book and manage grooming appointments",
	Long:    `Book, move, and track grooming appointments.`,
	Aliases: []string{"appointment"},
}

func init() {
	Cmd.AddCommand(bookCmd)
	for _, c := range transitionCmds() {
		Cmd.AddCommand(c)
	}
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(conflictsCmd)
}

// explainConflict prints the bookings that blocked a write.
func explainConflict(out io.Writer, app *cli.App, err error) {
	var conflict *domain.SlotConflictError
	if !errors.As(err, &conflict) || len(conflict.Conflicts) == 0 {
		return
	}
	fmt.Fprintln(out, "Slot is taken by:")
	for _, b := range conflict.Conflicts {
		fmt.Fprintf(out, "  %s  %s - %s  %s\n", b.AppointmentID,
			cli.FormatTime(b.Range.Start(), app.Location), cli.FormatTime(b.Range.End(), app.Location), b.Status)
	}
}

func printAppointment(out io.Writer, app *cli.App, a *queries.AppointmentDTO) {
	fmt.Fprintf(out, "  ID:       %s\n", a.ID)
	fmt.Fprintf(out, "  Shop:     %s\n", a.ShopID)
	fmt.Fprintf(out, "  Pet:      %s\n", a.PetID)
	fmt.Fprintf(out, "  Service:  %s (%d min)\n", a.Service, a.DurationMinutes)
	fmt.Fprintf(out, "  Start:    %s\n", cli.FormatTime(a.Start, app.Location))
	fmt.Fprintf(out, "  End:      %s\n", cli.FormatTime(a.End, app.Location))
	fmt.Fprintf(out, "  Status:   %s\n", a.Status)
	if a.CancellationReason != "" {
		fmt.Fprintf(out, "  Reason:   %s\n", a.CancellationReason)
	}
	if a.Notes != "" {
		fmt.Fprintf(out, "  Notes:    %s\n", a.Notes)
	}
	if len(a.Allowed) > 0 {
		fmt.Fprintf(out, "  Next:     %v\n", a.Allowed)
	}
}
