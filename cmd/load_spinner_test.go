package cmd

import (
	"bytes"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalLoadSpinnerShowsLabelUntilDone(t *testing.T) {
	model := newJournalLoadSpinnerModel("Reading journals...", func() tea.Msg { return nil })
	assert.Contains(t, model.View(), "Reading journals...")

	loadErr := errors.New("boom")
	updated, cmd := model.Update(journalLoadDoneMsg{err: loadErr})
	require.NotNil(t, cmd)

	final, ok := updated.(journalLoadSpinnerModel)
	require.True(t, ok)
	assert.True(t, final.done)
	assert.ErrorIs(t, final.err, loadErr)
	assert.Empty(t, final.View())
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTerminal(&buf))
}
