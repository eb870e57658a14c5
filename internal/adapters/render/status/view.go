package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	// PadLockWindow and JumpLockWindow split the time before departure into
	// the phases the game shows in the carrier management screen.
	PadLockWindow  = 3*time.Minute + 20*time.Second
	JumpLockWindow = 10 * time.Minute

	phaseJumping    = "Jumping"
	phasePadLocked  = "Pad Locked"
	phaseJumpLocked = "Jump Locked"

	unknown = "Unknown"
)

type RenderOptions struct {
	Now time.Time
	// Location is used for absolute times; nil means local time.
	Location *time.Location
}

// ladderSystems labels the systems of the Colonia bridge ladder.
var ladderSystems = map[string]string{
	"Gali":                 "N16",
	"Wregoe TO-C b56-0":    "N15B",
	"Wregoe ZE-B c28-2":    "N15",
	"Wregoe OP-D b58-0":    "N14",
	"Plaa Trua QL-B c27-0": "N13",
	"Plaa Trua WQ-C d13-0": "N12",
	"HD 107865":            "N11",
	"HD 105548":            "N10",
	"HD 104785":            "N9",
	"HD 102000":            "N8",
	"HD 102779":            "N7",
	"HD 104392":            "N6",
	"HIP 56843":            "N5",
	"HIP 57478":            "N4",
	"HIP 57784":            "N3",
	"HD 104495":            "N2",
	"HD 105341":            "N1",
	"HIP 58832":            "N0",
}

// Body IDs in HIP 58832 do not follow planet numbering.
var hip58832Bodies = map[int]string{0: "Star", 1: "1", 2: "2", 3: "3", 4: "4", 5: "5", 16: "6"}

func renderView(carriers []application.CarrierView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Fleet Carriers"),
		s.header.Render(fmt.Sprintf("carriers: %d", len(carriers))),
	}

	if len(carriers) == 0 {
		lines = append(lines, s.empty.Render("No carriers found in the journal."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, view := range carriers {
		lines = append(lines, s.section.Render(renderCarrier(view, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCarrier(view application.CarrierView, opts RenderOptions, s styles) string {
	c := view.Carrier
	title := s.carrier.Render(carrierTitle(c))
	if c.PendingDecommission {
		title += " " + s.warning.Render("[pending decommission]")
	}

	parts := []string{
		title,
		row(s, "status", statusLine(view.Evaluation, s)),
		row(s, "location", locationLine(view.Evaluation)),
		row(s, "fuel", fuelLine(c.Fuel)),
		row(s, "docking", dockingLine(c.Docking)),
		row(s, "finance", financeLine(view, opts)),
		row(s, "owner", ownerLine(c.Owner)),
	}
	if c.SpaceUsage != nil {
		parts = append(parts, row(s, "space", spaceLine(*c.SpaceUsage)))
	}
	for i, order := range c.SortedTrades() {
		label := ""
		if i == 0 {
			label = "trades"
		}
		parts = append(parts, row(s, label, tradeLine(order, opts, s)))
	}
	parts = append(parts, row(s, "updated", updatedLine(c, opts)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func row(s styles, label, value string) string {
	if label != "" {
		label += ":"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, "  ", s.label.Render(label), s.detail.Render(value))
}

func carrierTitle(c domain.Carrier) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = unknown
	}
	if c.Callsign == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, c.Callsign)
}

// Phase refines a status into what the game shows: the last minutes of a
// pending jump are pad locked or jump locked.
func Phase(eval application.Evaluation) string {
	if eval.Status != domain.StatusJumping {
		return eval.Status.Label()
	}
	switch {
	case eval.Remaining < PadLockWindow:
		return phasePadLocked
	case eval.Remaining < JumpLockWindow:
		return phaseJumpLocked
	default:
		return phaseJumping
	}
}

func statusLine(eval application.Evaluation, s styles) string {
	phase := Phase(eval)
	line := s.forPhase(eval.Status, phase).Render(phase)
	if eval.Status != domain.StatusIdle {
		line += "  " + FormatTimer(eval.Remaining)
	}
	return line
}

// FormatTimer renders a countdown the way the in-game timer reads.
func FormatTimer(d time.Duration) string {
	total := int(math.Round(d.Seconds()))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d h %02d m %02d s", total/3600, total/60%60, total%60)
}

func locationLine(eval application.Evaluation) string {
	line := formatLocation(eval.Current)
	if eval.Destination != nil {
		line += " -> " + formatLocation(*eval.Destination)
	}
	return line
}

func formatLocation(loc domain.Location) string {
	system, body := LocationNames(loc)
	return system + " / " + body
}

// LocationNames returns display names for a system and a body within it.
func LocationNames(loc domain.Location) (string, string) {
	system := loc.System
	if system == "" {
		system = unknown
	}

	var body string
	switch {
	case loc.System == "HIP 58832":
		body = hip58832Bodies[loc.BodyID]
		if body == "" {
			body = unknown
		}
	case loc.Body == "" && loc.BodyID == 0:
		body = "Star"
	case loc.Body == "":
		body = unknown
	case loc.Body == loc.System:
		body = loc.Body
		if loc.BodyID == 0 {
			body = "Star"
		}
	case loc.System != "" && strings.HasPrefix(loc.Body, loc.System+" "):
		body = strings.TrimPrefix(loc.Body, loc.System+" ")
	default:
		body = loc.Body
	}

	if rung, ok := ladderSystems[loc.System]; ok {
		system = fmt.Sprintf("%s (%s)", rung, loc.System)
	}
	return system, body
}

func fuelLine(fuel *domain.Fuel) string {
	if fuel == nil {
		return unknown
	}
	line := fmt.Sprintf("%st", humanize.Comma(int64(fuel.Level)))
	if fuel.JumpRangeMax > 0 {
		line += fmt.Sprintf("  range %.0f/%.0f ly", fuel.JumpRange, fuel.JumpRangeMax)
	}
	return line
}

func dockingLine(docking *domain.DockingPermission) string {
	if docking == nil {
		return unknown
	}
	notorious := "No"
	if docking.AllowNotorious {
		notorious = "Yes"
	}
	return fmt.Sprintf("%s, notorious %s", dockingLabel(docking.Access), notorious)
}

func dockingLabel(access domain.DockingAccess) string {
	switch access {
	case domain.DockingAll:
		return "All"
	case domain.DockingFriends:
		return "Friends"
	case domain.DockingSquadron:
		return "Squadron"
	case domain.DockingSquadronFriends:
		return "Squadron&Friends"
	case domain.DockingNone:
		return "None"
	default:
		return unknown
	}
}

func credits(n int64) string {
	return humanize.Comma(n) + " cr"
}

func financeLine(view application.CarrierView, opts RenderOptions) string {
	finance := view.Carrier.Finance
	if finance == nil {
		return unknown
	}
	parts := []string{
		"balance " + credits(finance.CarrierBalance),
		"upkeep " + credits(view.WeeklyUpkeep) + "/wk",
		"jumps ~" + credits(view.AverageJumpCost) + "/wk",
	}
	if !view.FundedUntil.IsZero() {
		parts = append(parts, fmt.Sprintf("funded until %s (%s)",
			inZone(view.FundedUntil, opts).Format("02 Jan 2006"), relative(view.FundedUntil, opts.Now)))
	}
	return strings.Join(parts, "  ")
}

func ownerLine(owner domain.Owner) string {
	switch {
	case owner.FID == "":
		return unknown
	case owner.Name == "":
		return owner.FID
	default:
		return fmt.Sprintf("%s (%s)  %s", owner.Name, owner.FID, credits(owner.Credits))
	}
}

func spaceLine(space domain.SpaceUsage) string {
	return fmt.Sprintf("services %st  cargo %st  orders %st  ships %st  modules %st  free %st",
		humanize.Comma(int64(space.Services)),
		humanize.Comma(int64(space.Cargo)),
		humanize.Comma(int64(space.CargoReserved)),
		humanize.Comma(int64(space.ShipPacks)),
		humanize.Comma(int64(space.ModulePacks)),
		humanize.Comma(int64(space.FreeSpace)),
	)
}

func tradeLine(order domain.TradeOrder, opts RenderOptions, s styles) string {
	kind := s.unloading.Render("Unloading")
	if order.Loading() {
		kind = s.loading.Render("Loading")
	}
	name := order.CommodityLocalised
	if name == "" {
		name = order.Commodity
	}
	return fmt.Sprintf("%s %s %s @ %s  (set %s)", kind, humanize.Comma(int64(order.Amount())), name, credits(order.Price), relative(order.SetAt, opts.Now))
}

func updatedLine(c domain.Carrier, opts RenderOptions) string {
	if c.StatsAt.IsZero() {
		return "Never"
	}
	return relative(c.StatsAt, opts.Now)
}

func relative(t, now time.Time) string {
	if now.IsZero() {
		return t.Format(time.RFC3339)
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func inZone(t time.Time, opts RenderOptions) time.Time {
	if opts.Location != nil {
		return t.In(opts.Location)
	}
	return t.Local()
}
