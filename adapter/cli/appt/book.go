package appt

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/commands"
)

var (
	bookShop     string
	bookPet      string
	bookCustomer string
	bookService  string
	bookStart    string
	bookEnd      string
	bookDuration time.Duration
	bookNotes    string
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book an appointment",
	Long: `Book an appointment if the slot is inside opening hours and free.

Bookings that only touch (one ends when the other starts) do not conflict.

Examples:
  groomly appt book --shop 550e... --pet 7c9e... --service "full groom" --start 2025-06-02T10:00 --duration 90m
  groomly appt book --shop 550e... --pet 7c9e... --service bath --start 2025-06-02T10:00 --end 2025-06-02T11:00`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, err := cli.ParseID("shop ID", bookShop)
		if err != nil {
			return err
		}
		petID, err := cli.ParseID("pet ID", bookPet)
		if err != nil {
			return err
		}
		customerID, err := cli.ParseOptionalID("customer ID", bookCustomer)
		if err != nil {
			return err
		}
		start, end, err := cli.ParseRange(bookStart, bookEnd, bookDuration, app.Location)
		if err != nil {
			return err
		}

		result, err := app.BookAppointmentHandler.Handle(cmd.Context(), commands.BookAppointmentCommand{
			ShopID:     shopID,
			PetID:      petID,
			CustomerID: customerID,
			Service:    bookService,
			Start:      start,
			End:        end,
			Notes:      bookNotes,
			ActorID:    app.ActorID,
		})
		if err != nil {
			explainConflict(cmd.ErrOrStderr(), app, err)
			return fmt.Errorf("failed to book appointment: %w", err)
		}
		app.Flush(cmd.Context())

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Appointment booked!")
		fmt.Fprintln(out, cli.Separator)
		fmt.Fprintf(out, "  ID:     %s\n", result.AppointmentID)
		fmt.Fprintf(out, "  Start:  %s\n", cli.FormatTime(result.Start, app.Location))
		fmt.Fprintf(out, "  End:    %s\n", cli.FormatTime(result.End, app.Location))
		fmt.Fprintf(out, "  Status: %s\n", result.Status)
		return nil
	},
}

func init() {
	bookCmd.Flags().StringVar(&bookShop, "shop", "", "shop ID (required)")
	bookCmd.Flags().StringVar(&bookPet, "pet", "", "pet ID (required)")
	bookCmd.Flags().StringVar(&bookCustomer, "customer", "", "customer ID")
	bookCmd.Flags().StringVarP(&bookService, "service", "s", "", "grooming service (required)")
	bookCmd.Flags().StringVar(&bookStart, "start", "", "start time (required)")
	bookCmd.Flags().StringVar(&bookEnd, "end", "", "end time")
	bookCmd.Flags().DurationVarP(&bookDuration, "duration", "d", 0, "duration, e.g. 45m (alternative to --end)")
	bookCmd.Flags().StringVar(&bookNotes, "notes", "", "notes for the groomer")
	_ = bookCmd.MarkFlagRequired("shop")
	_ = bookCmd.MarkFlagRequired("pet")
	_ = bookCmd.MarkFlagRequired("service")
	_ = bookCmd.MarkFlagRequired("start")
}
