package appt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/queries"
)

var (
	conflictsStart    string
	conflictsEnd      string
	conflictsDuration time.Duration
	conflictsExclude  string
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <shop-id>",
	Short: "Check whether a slot is free",
	Long: `Check a slot against active bookings without writing anything.

Examples:
  groomly appt conflicts 550e... --start 2025-06-02T10:00 --duration 1h`,
	Aliases: []string{"check"},
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
		start, end, err := cli.ParseRange(conflictsStart, conflictsEnd, conflictsDuration, app.Location)
		if err != nil {
			return err
		}
		var exclude *uuid.UUID
		if conflictsExclude != "" {
			id, err := cli.ParseID("appointment ID", conflictsExclude)
			if err != nil {
				return err
			}
			exclude = &id
		}

		res, err := app.CheckConflictsHandler.Handle(cmd.Context(), queries.CheckConflictsQuery{
			ShopID:    shopID,
			Start:     start,
			End:       end,
			ExcludeID: exclude,
		})
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}

		out := cmd.OutOrStdout()
		if res.Available {
			fmt.Fprintln(out, "Slot is free.")
			return nil
		}
		fmt.Fprintf(out, "%d conflicting appointment(s)\n", len(res.Conflicts))
		fmt.Fprintln(out, cli.Separator)
		for _, c := range res.Conflicts {
			fmt.Fprintf(out, "  %s  %s - %s  %s\n", c.AppointmentID,
				cli.FormatTime(c.Start, app.Location), c.End.In(app.Location).Format("15:04"), c.Status)
		}
		return nil
	},
}

func init() {
	conflictsCmd.Flags().StringVar(&conflictsStart, "start", "", "slot start (required)")
	conflictsCmd.Flags().StringVar(&conflictsEnd, "end", "", "slot end")
	conflictsCmd.Flags().DurationVarP(&conflictsDuration, "duration", "d", 0, "slot duration (alternative to --end)")
	conflictsCmd.Flags().StringVar(&conflictsExclude, "exclude", "", "appointment ID to ignore")
	_ = conflictsCmd.MarkFlagRequired("start")
}
