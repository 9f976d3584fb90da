package setup

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned by RunForm when the user leaves without saving.
var ErrAborted = stderrors.New("setup aborted")

// FormInput pre-fills the setup form.
type FormInput struct {
	WatchDir string
	Username string
	APIKey   string
}

type formKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Abort  key.Binding
}

var defaultFormKeys = formKeys{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save and start watching")),
	Abort:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

const (
	fieldUsername = iota
	fieldAPIKey
)

type formModel struct {
	watchDir  string
	inputs    []textinput.Model
	focus     int
	keys      formKeys
	message   string
	submitted bool
	aborted   bool
}

func newFormModel(in FormInput) formModel {
	username := textinput.New()
	username.Prompt = "Steam username: "
	username.Placeholder = "username"
	username.CharLimit = 128
	username.SetValue(in.Username)
	username.Focus()

	apiKey := textinput.New()
	apiKey.Prompt = "API key:        "
	apiKey.Placeholder = "from your rakaly account page"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.CharLimit = 256
	apiKey.SetValue(in.APIKey)

	return formModel{
		watchDir: in.WatchDir,
		inputs:   []textinput.Model{username, apiKey},
		keys:     defaultFormKeys,
	}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Abort):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.moveFocus(1)
		case key.Matches(msg, m.keys.Prev):
			return m, m.moveFocus(-1)
		case key.Matches(msg, m.keys.Submit):
			if m.focus < len(m.inputs)-1 {
				return m, m.moveFocus(1)
			}
			if missing := m.missingField(); missing != "" {
				m.message = missing + " is required"
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// moveFocus cycles focus by delta and returns the focus command.
func (m *formModel) moveFocus(delta int) tea.Cmd {
	m.message = ""
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m formModel) missingField() string {
	switch {
	case strings.TrimSpace(m.inputs[fieldUsername].Value()) == "":
		return "username"
	case strings.TrimSpace(m.inputs[fieldAPIKey].Value()) == "":
		return "api key"
	default:
		return ""
	}
}

func (m formModel) credentials() Credentials {
	return Credentials{
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		APIKey:   strings.TrimSpace(m.inputs[fieldAPIKey].Value()),
	}
}

func (m formModel) View() string {
	if m.submitted || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("rakaly save uploader"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Watching: " + m.watchDir))
	b.WriteString("\n\n")
	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%s • %s • %s",
		helpText(m.keys.Next), helpText(m.keys.Submit), helpText(m.keys.Abort))))
	b.WriteString("\n")
	return b.String()
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

// RunForm shows the setup form and returns the entered credentials.
// It returns ErrAborted if the user quits.
func RunForm(ctx context.Context, in FormInput, opts ...tea.ProgramOption) (Credentials, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(newFormModel(in), opts...).Run()
	if err != nil {
		return Credentials{}, fmt.Errorf("run setup form: %w", err)
	}

	m, ok := final.(formModel)
	if !ok || !m.submitted {
		return Credentials{}, ErrAborted
	}
	return m.credentials(), nil
}
