package hours

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/availability/application/commands"
)

var (
	setTimezone string
	setWindows  []string
)

var setCmd = &cobra.Command{
	Use:   "set <shop-id>",
	Short: "Replace a shop's weekly opening hours",
	Long: `Replace the weekly opening hours of a shop. Closures are kept.

Windows use DAY=HH:MM-HH:MM. Days are names (mon, monday) or 0-6 with
Sunday as 0. A day may have several windows as long as they do not overlap.

Examples:
  groomly hours set 550e8400-... --window mon,wed=09:00-17:00
  groomly hours set 550e8400-... --window tue=08:00-12:00 --window tue=13:00-17:00 --timezone Europe/Berlin`,
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

		var windows []commands.WindowInput
		for _, spec := range setWindows {
			parsed, err := parseWindow(spec)
			if err != nil {
				return err
			}
			windows = append(windows, parsed...)
		}

		tz := setTimezone
		if tz == "" {
			tz = app.DefaultTimezone
		}

		result, err := app.SetShopHoursHandler.Handle(cmd.Context(), commands.SetShopHoursCommand{
			ShopID:   shopID,
			Timezone: tz,
			Windows:  windows,
			ActorID:  app.ActorID,
		})
		if err != nil {
			return fmt.Errorf("failed to set hours: %w", err)
		}
		app.Flush(cmd.Context())

		out := cmd.OutOrStdout()
		if result.Created {
			fmt.Fprintln(out, "Opening hours created!")
		} else {
			fmt.Fprintln(out, "Opening hours updated!")
		}
		fmt.Fprintln(out, cli.Separator)
		fmt.Fprintf(out, "  Shop:     %s\n", result.ShopID)
		fmt.Fprintf(out, "  Timezone: %s\n", tz)
		fmt.Fprintf(out, "  Windows:  %d\n", len(windows))
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&setTimezone, "timezone", "", "IANA time zone of the shop (default from config)")
	setCmd.Flags().StringArrayVarP(&setWindows, "window", "w", nil, "opening window DAY=HH:MM-HH:MM (repeatable)")
	_ = setCmd.MarkFlagRequired("window")
}
