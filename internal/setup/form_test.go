package setup

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, m formModel, msgs ...tea.Msg) (formModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(formModel)
		require.True(t, ok)
	}
	return m, cmd
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestForm_SubmitFromLastField(t *testing.T) {
	m := newFormModel(FormInput{WatchDir: "/saves"})

	m, _ = send(t, m,
		typed("ruler"),
		tea.KeyMsg{Type: tea.KeyEnter},
		typed("s3cret"),
	)
	assert.Equal(t, fieldAPIKey, m.focus)
	assert.False(t, m.submitted)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.submitted)
	require.NotNil(t, cmd)
	assert.Equal(t, Credentials{Username: "ruler", APIKey: "s3cret"}, m.credentials())
}

func TestForm_PrefilledValues(t *testing.T) {
	m := newFormModel(FormInput{WatchDir: "/saves", Username: "ruler", APIKey: "old"})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.submitted)
	assert.Equal(t, Credentials{Username: "ruler", APIKey: "old"}, m.credentials())
}

func TestForm_RequiresBothFields(t *testing.T) {
	m := newFormModel(FormInput{Username: "ruler"})

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.submitted)
	assert.Nil(t, cmd)
	assert.Equal(t, "api key is required", m.message)
	assert.Contains(t, m.View(), "api key is required")
}

func TestForm_Abort(t *testing.T) {
	for _, msg := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, cmd := send(t, newFormModel(FormInput{}), msg)
		assert.True(t, m.aborted)
		assert.NotNil(t, cmd)
		assert.Empty(t, m.View())
	}
}

func TestForm_FocusWraps(t *testing.T) {
	m := newFormModel(FormInput{})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldAPIKey, m.focus)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldUsername, m.focus)
}

func TestForm_ViewShowsWatchDirAndHidesKey(t *testing.T) {
	m := newFormModel(FormInput{WatchDir: "/home/ruler/saves", Username: "ruler", APIKey: "s3cret"})

	view := m.View()
	assert.Contains(t, view, "/home/ruler/saves")
	assert.Contains(t, view, "ruler")
	assert.NotContains(t, view, "s3cret")
}
