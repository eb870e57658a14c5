package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/spf13/cobra"
)

type carrierDetail struct {
	View   application.CarrierView `json:"view"`
	Jumps  []domain.Jump           `json:"jumps"`
	Trades []domain.TradeOrder     `json:"trades"`
}

func newCarrierCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		at     string
	)

	cmd := &cobra.Command{
		Use:   "carrier <id|callsign>",
		Short: "Show one carrier with its jump history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}
			now, err := evaluationTime(app, at)
			if err != nil {
				return err
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}

			id, err := resolveCarrierID(app.tracker.Carriers(now), args[0])
			if err != nil {
				return err
			}
			view, err := app.tracker.Carrier(id, now)
			if err != nil {
				return err
			}
			jumps, err := app.tracker.JumpHistory(id)
			if err != nil {
				return err
			}
			trades, err := app.tracker.ActiveTrades(id)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, carrierDetail{View: view, Jumps: jumps, Trades: trades})
			}
			if err := writeCarriersOutput(cmd, app, []application.CarrierView{view}, now, false); err != nil {
				return err
			}
			return writeJumpHistory(cmd, jumps)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the carrier as JSON")
	cmd.Flags().StringVar(&at, "at", "", "evaluate the status at this RFC3339 time instead of now")

	return cmd
}

// resolveCarrierID accepts a numeric market ID or a callsign.
func resolveCarrierID(views []application.CarrierView, ref string) (domain.CarrierID, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return domain.CarrierID(id), nil
	}
	for _, view := range views {
		if strings.EqualFold(view.Carrier.Callsign, ref) {
			return view.Carrier.ID, nil
		}
	}
	return 0, fmt.Errorf("carrier %q: %w", ref, domain.ErrCarrierNotFound)
}

func writeJumpHistory(cmd *cobra.Command, jumps []domain.Jump) error {
	out := cmd.OutOrStdout()
	if len(jumps) == 0 {
		_, err := fmt.Fprintln(out, "no jumps recorded")
		return err
	}
	if _, err := fmt.Fprintln(out, "jumps:"); err != nil {
		return err
	}
	for _, jump := range jumps {
		dest := jump.Destination.System
		if jump.Destination.Body != "" {
			dest += " / " + jump.Destination.Body
		}
		if _, err := fmt.Fprintf(out, "  %s  %s\n", jump.Departure.Local().Format("2006-01-02 15:04:05"), dest); err != nil {
			return err
		}
	}
	return nil
}
