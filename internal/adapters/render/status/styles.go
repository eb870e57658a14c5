package status

import (
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	carrier   lipgloss.Style
	label     lipgloss.Style
	detail    lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	idle      lipgloss.Style
	jumping   lipgloss.Style
	locked    lipgloss.Style
	cooling   lipgloss.Style
	loading   lipgloss.Style
	unloading lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		carrier:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		idle:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		jumping:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		locked:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		cooling:   lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		loading:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		unloading: lipgloss.NewStyle().Foreground(lipgloss.Color("180")),
	}
}

func (s styles) forPhase(status domain.Status, phase string) lipgloss.Style {
	switch status {
	case domain.StatusJumping:
		if phase == phaseJumping {
			return s.jumping
		}
		return s.locked
	case domain.StatusCoolDown, domain.StatusCoolDownCancel:
		return s.cooling
	default:
		return s.idle
	}
}
