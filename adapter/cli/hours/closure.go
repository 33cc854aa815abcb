package hours

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	"github.com/felixgeelhaar/groomly/internal/availability/domain"
)

var closureReason string

var closureAddCmd = &cobra.Command{
	Use:   "add <shop-id> <YYYY-MM-DD>",
	Short: "Close a shop on a date",
	Long: `Close a shop for a whole day. Closing an already closed date does nothing.

Examples:
  groomly closure add 550e8400-... 2025-12-25 --reason christmas`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, date, err := parseClosureArgs(args)
		if err != nil {
			return err
		}

		if err := app.ClosureHandler.Add(cmd.Context(), commands.AddClosureCommand{
			ShopID:  shopID,
			Date:    date,
			Reason:  closureReason,
			ActorID: app.ActorID,
		}); err != nil {
			return fmt.Errorf("failed to add closure: %w", err)
		}
		app.Flush(cmd.Context())

		fmt.Fprintf(cmd.OutOrStdout(), "Closed on %s\n", date)
		return nil
	},
}

var closureRemoveCmd = &cobra.Command{
	Use:     "remove <shop-id> <YYYY-MM-DD>",
	Short:   "Reopen a closed date",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		shopID, date, err := parseClosureArgs(args)
		if err != nil {
			return err
		}

		if err := app.ClosureHandler.Remove(cmd.Context(), commands.RemoveClosureCommand{
			ShopID:  shopID,
			Date:    date,
			ActorID: app.ActorID,
		}); err != nil {
			return fmt.Errorf("failed to remove closure: %w", err)
		}
		app.Flush(cmd.Context())

		fmt.Fprintf(cmd.OutOrStdout(), "Reopened on %s\n", date)
		return nil
	},
}

func parseClosureArgs(args []string) (uuid.UUID, domain.Date, error) {
	shopID, err := cli.ParseID("shop ID", args[0])
	if err != nil {
		return uuid.Nil, domain.Date{}, err
	}
	date, err := domain.ParseDate(args[1])
	if err != nil {
		return uuid.Nil, domain.Date{}, fmt.Errorf("invalid date %q: %w", args[1], err)
	}
	return shopID, date, nil
}

func init() {
	closureAddCmd.Flags().StringVar(&closureReason, "reason", "", "why the shop is closed")
}
