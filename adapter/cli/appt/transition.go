package appt

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/internal/booking/application/commands"
)

var transitionReason string

var transitionHelp = []struct {
	action commands.TransitionAction
	short  string
}{
	{commands.ActionConfirm, "Confirm a scheduled appointment"},
	{commands.ActionStart, "Mark an appointment as in progress"},
	{commands.ActionComplete, "Mark an appointment as completed"},
	{commands.ActionCancel, "Cancel an appointment"},
	{commands.ActionNoShow, "Record that the pet did not show up"},
	{commands.ActionRebook, "Put a no-show back on the schedule"},
}

func transitionCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(transitionHelp))
	for _, t := range transitionHelp {
		action := t.action
		c := &cobra.Command{
			Use:   string(action) + " <appointment-id>",
			Short: t.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTransition(cmd, action, args[0])
			},
		}
		if action == commands.ActionCancel {
			c.Flags().StringVar(&transitionReason, "reason", "", "why the appointment was cancelled")
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func runTransition(cmd *cobra.Command, action commands.TransitionAction, rawID string) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}
	id, err := cli.ParseID("appointment ID", rawID)
	if err != nil {
		return err
	}

	reason := ""
	if action == commands.ActionCancel {
		reason = transitionReason
	}
	result, err := app.TransitionAppointmentHandler.Handle(cmd.Context(), commands.TransitionAppointmentCommand{
		AppointmentID: id,
		Action:        action,
		Reason:        reason,
		ActorID:       app.ActorID,
	})
	if err != nil {
		explainConflict(cmd.ErrOrStderr(), app, err)
		return fmt.Errorf("failed to %s appointment: %w", action, err)
	}
	app.Flush(cmd.Context())

	fmt.Fprintf(cmd.OutOrStdout(), "Appointment %s: %s -> %s\n", result.AppointmentID, result.From, result.To)
	return nil
}
