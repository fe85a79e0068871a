package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasteit/internal/console"
)

var errSetupCanceled = errors.New("setup canceled")

func googleKeyPath(homeDir string) string {
	return filepath.Join(homeDir, "google_api_key")
}

func saveGoogleAPIKey(homeDir, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := os.MkdirAll(homeDir, 0700); err != nil {
		return err
	}
	// Owner read/write only.
	return os.WriteFile(googleKeyPath(homeDir), []byte(key+"\n"), 0600)
}

func loadGoogleAPIKey(homeDir string) (string, error) {
	data, err := os.ReadFile(googleKeyPath(homeDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

var (
	setupPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(console.ColorMuted).
			Padding(1, 2)

	setupLabelStyle = lipgloss.NewStyle().
			Foreground(console.ColorAccent).
			Bold(true)
)

type setupModel struct {
	homeDir     string
	keyInput    textinput.Model
	capturedKey string
	canceled    bool
	width       int
	height      int
}

func newSetupModel(homeDir string) setupModel {
	in := textinput.New()
	in.Placeholder = "Paste Google Maps API key here"
	in.CharLimit = 300
	in.Prompt = "api> "
	in.EchoMode = textinput.EchoPassword
	in.TextStyle = lipgloss.NewStyle().Foreground(console.ColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(console.ColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(console.ColorText).Background(console.ColorAccent)
	in.Focus()
	return setupModel{homeDir: homeDir, keyInput: in}
}

func (m setupModel) Init() tea.Cmd { return textinput.Blink }

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			key := strings.TrimSpace(m.keyInput.Value())
			if key == "" {
				return m, nil
			}
			m.capturedKey = key
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	left := "  " + setupLabelStyle.Render("tasteit") + " " + console.MutedStyle.Render("› Setup")
	right := console.MutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	header := console.HeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
	footer := console.FooterStyle.Width(width).Render("enter save  esc cancel")

	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		setupLabelStyle.Render("Get a Google Maps API key:"),
		"",
		console.MutedStyle.Render("1) https://console.cloud.google.com/google/maps-apis"),
		console.MutedStyle.Render("2) Enable Places, Geocoding and Directions"),
		console.MutedStyle.Render("3) Create an API key"),
		"",
		setupLabelStyle.Render("Google API Key"),
		console.InputStyle.Width(max(30, cardWidth-14)).Render(m.keyInput.View()),
		"",
		console.MutedStyle.Render("The key is stored in "+googleKeyPath(m.homeDir)+" and read on the next start."),
	)
	card := setupPanelStyle.Width(cardWidth).Render(body)
	content := lipgloss.Place(width, max(height-6, 8), lipgloss.Center, lipgloss.Top, card)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// resolveGoogleKey returns the stored key, asking for one on first run.
func resolveGoogleKey(homeDir string) (string, error) {
	key, err := loadGoogleAPIKey(homeDir)
	if err != nil {
		return "", fmt.Errorf("failed to load google api key: %w", err)
	}
	if key != "" {
		return key, nil
	}

	final, err := tea.NewProgram(newSetupModel(homeDir), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("setup tui failed: %w", err)
	}
	m, ok := final.(setupModel)
	if !ok {
		return "", fmt.Errorf("unexpected setup model type")
	}
	if m.canceled {
		return "", errSetupCanceled
	}
	if err := saveGoogleAPIKey(homeDir, m.capturedKey); err != nil {
		return "", fmt.Errorf("failed to save google api key: %w", err)
	}
	return m.capturedKey, nil
}
