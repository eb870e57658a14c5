package status

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

func renderSegments(segments []application.SegmentView, opts RenderOptions, s styles) string {
	if len(segments) == 0 {
		return s.empty.Render("No journal segments found.")
	}

	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			seg.Name,
			inZone(seg.CreatedAt, opts).Format("2006-01-02 15:04:05"),
			humanize.Bytes(uint64(max(seg.Cursor, 0))),
			humanize.Comma(int64(seg.Lines)),
			strconv.Itoa(seg.Malformed),
			segmentState(seg),
			ownerColumn(seg),
			carriersColumn(seg),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.header).
		Headers("SEGMENT", "CREATED", "READ", "LINES", "BAD", "STATE", "OWNER", "CARRIERS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	return lipgloss.JoinVertical(lipgloss.Left,
		s.header.Render(fmt.Sprintf("segments: %d", len(segments))),
		t.String(),
	)
}

func segmentState(seg application.SegmentView) string {
	switch {
	case seg.Active:
		return "active"
	case seg.Skippable:
		return "done"
	default:
		return "retry"
	}
}

func ownerColumn(seg application.SegmentView) string {
	if seg.Owner == "" {
		return seg.OwnerState.String()
	}
	return fmt.Sprintf("%s (%s)", seg.Owner, seg.OwnerState.String())
}

func carriersColumn(seg application.SegmentView) string {
	if len(seg.Carriers) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(seg.Carriers))
	for _, id := range seg.Carriers {
		ids = append(ids, strconv.FormatInt(int64(id), 10))
	}
	return strings.Join(ids, ",")
}
