// Package console runs the bot against a local terminal chat for development.
package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/oklog/ulid/v2"

	"tasteit/internal/model"
)

// ChatID identifies the console chat.
const ChatID int64 = 1

// Sink receives the events typed in the console.
type Sink interface {
	Dispatch(u model.Update) error
}

type sender int

const (
	fromBot sender = iota
	fromUser
)

type chatMessage struct {
	ref      model.MessageRef
	from     sender
	text     string
	keyboard model.Keyboard
	poll     *model.Poll
}

// Model is the Bubble Tea chat model.
type Model struct {
	sink     Sink
	chatKind model.ChatKind
	lang     string
	keys     KeyMap

	messages []chatMessage
	nextID   int64

	input    textinput.Model
	viewport viewport.Model

	// focus is the index of the message whose keyboard is selected, or -1
	// while typing.
	focus int
	row   int
	col   int

	status string
	err    string
	width  int
	height int
}

// Options configures the console chat.
type Options struct {
	Sink     Sink
	ChatKind model.ChatKind
	Language string
}

// NewModel creates the chat model.
func NewModel(opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Type a message, /command or @lat,lon"
	in.CharLimit = 500
	in.Prompt = "› "
	in.TextStyle = lipgloss.NewStyle().Foreground(ColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(ColorText).Background(ColorAccent)
	in.Focus()

	kind := opts.ChatKind
	if kind == "" {
		kind = model.ChatPrivate
	}
	return Model{
		sink:     opts.Sink,
		chatKind: kind,
		lang:     opts.Language,
		keys:     DefaultKeyMap(),
		input:    in,
		viewport: viewport.New(80, 20),
		focus:    -1,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.refresh()
		return m, nil

	case botMessageMsg:
		m.messages = append(m.messages, chatMessage{ref: msg.ref, from: fromBot, text: msg.text, keyboard: msg.keyboard, poll: msg.poll})
		m.refresh()
		return m, nil

	case editMessageMsg:
		if i := m.indexOf(msg.ref); i >= 0 {
			m.messages[i].text = msg.text
			m.messages[i].keyboard = msg.keyboard
			if i == m.focus {
				m.clampSelection()
			}
		}
		m.refresh()
		return m, nil

	case deleteMessageMsg:
		if i := m.indexOf(msg.ref); i >= 0 {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			switch {
			case m.focus == i:
				m.blurKeyboard()
			case m.focus > i:
				m.focus--
			}
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, m.keys.ScrollUp):
			m.viewport.HalfViewUp()
			return m, nil
		case key.Matches(msg, m.keys.ScrollDown):
			m.viewport.HalfViewDown()
			return m, nil
		}
		if m.focus >= 0 {
			return m.handleKeyboard(msg)
		}
		return m.handleInput(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus):
		m.focusPrevKeyboard(len(m.messages))
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Press):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.submit(text)
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := m.messages[m.focus].keyboard
	switch {
	case key.Matches(msg, m.keys.Back):
		m.blurKeyboard()
	case key.Matches(msg, m.keys.Focus):
		m.focusPrevKeyboard(m.focus)
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
			m.clampSelection()
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < len(kb)-1 {
			m.row++
			m.clampSelection()
		}
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(kb[m.row])-1 {
			m.col++
		}
	case key.Matches(msg, m.keys.Press):
		m.press(kb[m.row][m.col])
	}
	m.refresh()
	return m, nil
}

// submit echoes user text and dispatches it. "@lat,lon" shares a location.
func (m *Model) submit(text string) {
	ref := model.MessageRef(ulid.Make().String())
	m.messages = append(m.messages, chatMessage{ref: ref, from: fromUser, text: text})

	u := m.update()
	u.MessageRef = ref
	if loc, ok := parseLocation(text); ok {
		u.Kind = model.EventLocation
		u.Location = loc
	} else {
		u.Kind = model.EventText
		u.Text = text
	}
	m.dispatch(u)
}

func (m *Model) press(b model.Button) {
	if b.URL != "" {
		m.status = "Open: " + b.URL
		return
	}
	u := m.update()
	u.Kind = model.EventCallback
	u.Callback = b.Data
	u.MessageRef = m.messages[m.focus].ref
	m.status = ""
	m.dispatch(u)
}

func (m *Model) update() model.Update {
	m.nextID++
	return model.Update{
		ID:           m.nextID,
		ChatID:       ChatID,
		UserID:       ChatID,
		ChatKind:     m.chatKind,
		UserLanguage: m.lang,
	}
}

func (m *Model) dispatch(u model.Update) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Dispatch(u); err != nil {
		m.err = err.Error()
		return
	}
	m.err = ""
}

// parseLocation parses "@lat,lon".
func parseLocation(text string) (*model.Location, bool) {
	rest, ok := strings.CutPrefix(text, "@")
	if !ok {
		return nil, false
	}
	latText, lonText, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err1 != nil || err2 != nil {
		// An unparsable location reaches the bot as an invalid one.
		return nil, true
	}
	return &model.Location{Latitude: lat, Longitude: lon}, true
}

func (m *Model) indexOf(ref model.MessageRef) int {
	for i, msg := range m.messages {
		if msg.ref == ref {
			return i
		}
	}
	return -1
}

// focusPrevKeyboard selects the closest message with buttons before index
// from, wrapping to typing mode when none is left.
func (m *Model) focusPrevKeyboard(from int) {
	for i := from - 1; i >= 0; i-- {
		if len(m.messages[i].keyboard) > 0 {
			m.focus, m.row, m.col = i, 0, 0
			m.input.Blur()
			return
		}
	}
	m.blurKeyboard()
}

func (m *Model) blurKeyboard() {
	m.focus, m.row, m.col = -1, 0, 0
	m.input.Focus()
}

func (m *Model) clampSelection() {
	kb := m.messages[m.focus].keyboard
	if len(kb) == 0 {
		m.blurKeyboard()
		return
	}
	m.row = min(m.row, len(kb)-1)
	m.col = min(m.col, len(kb[m.row])-1)
}

func (m *Model) refresh() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	var blocks []string
	for i, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(i, msg, width))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderMessage(i int, msg chatMessage, width int) string {
	if msg.from == fromUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, UserMessageStyle.Render(msg.text))
	}
	if msg.poll != nil {
		lines := []string{"📊 " + msg.text}
		for n, opt := range msg.poll.Options {
			lines = append(lines, fmt.Sprintf("  %d. %s", n+1, opt))
		}
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("open for %s", time.Duration(msg.poll.DurationSeconds)*time.Second)))
		return PollStyle.MaxWidth(width).Render(strings.Join(lines, "\n"))
	}

	style := BotMessageStyle
	if i == m.focus {
		style = FocusedMessageStyle
	}
	body := msg.text
	if len(msg.keyboard) > 0 {
		body += "\n\n" + m.renderKeyboard(i, msg.keyboard)
	}
	return style.MaxWidth(width).Render(body)
}

func (m Model) renderKeyboard(i int, kb model.Keyboard) string {
	rows := make([]string, 0, len(kb))
	for r, row := range kb {
		cells := make([]string, 0, len(row))
		for c, b := range row {
			label := b.Text
			if b.URL != "" {
				label += "↗"
			}
			if i == m.focus && r == m.row && c == m.col {
				cells = append(cells, SelectedButtonStyle.Render(label))
			} else {
				cells = append(cells, ButtonStyle.Render(label))
			}
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}

// View renders the chat.
func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	header := HeaderStyle.Width(width).Render("tasteit " + MutedStyle.Render("› console · "+string(m.chatKind)))

	footerText := "enter send  tab buttons  pgup/pgdown scroll  ctrl+c quit"
	if m.focus >= 0 {
		footerText = "←↑↓→ move  enter press  tab previous  esc type"
	}
	var status string
	switch {
	case m.err != "":
		status = ErrorStyle.Render(m.err)
	case m.status != "":
		status = SuccessStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		InputStyle.Width(max(width-2, 10)).Render(m.input.View()),
		FooterStyle.Width(width).Render(footerText),
	)
}
