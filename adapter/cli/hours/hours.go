package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/internal/availability/application/commands"
)

// Cmd is the hours command group
var Cmd = &cobra.Command{
	Use:   "hours",
	Short: "Manage shop opening hours",
	Long:  `Set weekly opening hours and ask when a shop is open.`,
}

// ClosureCmd is the closure command group
var ClosureCmd = &cobra.Command{
	Use:   "closure",
	Short: "Close or reopen a shop on a date",
}

func init() {
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(openCmd)
	Cmd.AddCommand(nextCmd)

	ClosureCmd.AddCommand(closureAddCmd)
	ClosureCmd.AddCommand(closureRemoveCmd)
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseDay accepts a weekday name, its three-letter form, or 0-6 with Sunday as 0.
func parseDay(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// parseWindow parses "mon=09:00-17:00". Several days may share one range
// ("mon,wed=09:00-17:00").
func parseWindow(spec string) ([]commands.WindowInput, error) {
	days, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return nil, fmt.Errorf("invalid window %q: want DAY=HH:MM-HH:MM", spec)
	}
	start, end, ok := strings.Cut(rng, "-")
	if !ok {
		return nil, fmt.Errorf("invalid window %q: want DAY=HH:MM-HH:MM", spec)
	}

	var out []commands.WindowInput
	for _, name := range strings.Split(days, ",") {
		day, err := parseDay(name)
		if err != nil {
			return nil, err
		}
		out = append(out, commands.WindowInput{
			Day:   day,
			Start: strings.TrimSpace(start),
			End:   strings.TrimSpace(end),
		})
	}
	return out, nil
}
