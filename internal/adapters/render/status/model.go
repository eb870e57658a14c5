package status

import (
	"errors"
	"io"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// frame draws one screen of output with the shared styles.
type frame func(styles) string

type drawMsg struct{}

// model draws its frame once and quits.
type model struct {
	draw   frame
	styles styles
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return drawMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(drawMsg); ok {
		m.output = m.draw(m.styles)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	return m.output
}

// Render draws the carrier overview.
func Render(carriers []application.CarrierView, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderView(carriers, opts, s)
	})
}

// RenderSegments draws the segment ledger as a table, oldest first.
func RenderSegments(segments []application.SegmentView, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderSegments(segments, opts, s)
	})
}

func run(draw frame) (string, error) {
	p := tea.NewProgram(
		model{draw: draw, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
