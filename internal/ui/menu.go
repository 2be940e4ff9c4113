package ui

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Choices returned instead of an item ID when the user leaves a menu.
const (
	MenuActionBack = "__back__"
	MenuActionQuit = "__quit__"
)

// ErrNonInteractive is returned by the menus when stdout is not a terminal.
var ErrNonInteractive = errors.New("non-interactive terminal")

type MenuOption func(*menuConfig)

type menuConfig struct {
	backLabel   string
	selectID    string
	detailTitle string
	info        [][2]string
}

func defaultMenuConfig() menuConfig {
	return menuConfig{detailTitle: "Selection"}
}

// WithBackNavigation makes esc and q return MenuActionBack instead of quitting.
func WithBackNavigation(label string) MenuOption {
	return func(cfg *menuConfig) {
		cfg.backLabel = "back"
		if label != "" {
			cfg.backLabel = strings.ToLower(label)
		}
	}
}

// WithInitialSelectionID pre-selects an item by ID when the menu opens.
func WithInitialSelectionID(id string) MenuOption {
	return func(cfg *menuConfig) { cfg.selectID = strings.TrimSpace(id) }
}

// WithDetailTitle sets the heading of the detail panel.
func WithDetailTitle(title string) MenuOption {
	return func(cfg *menuConfig) {
		if title != "" {
			cfg.detailTitle = title
		}
	}
}

// WithInfo adds a label/value line to the status section of the detail panel.
func WithInfo(label, value string) MenuOption {
	return func(cfg *menuConfig) { cfg.info = append(cfg.info, [2]string{label, value}) }
}

type menuKeys struct {
	choose key.Binding
	jump   key.Binding
	filter key.Binding
	leave  key.Binding
	quit   key.Binding
	back   bool
}

func newMenuKeys(cfg menuConfig) menuKeys {
	k := menuKeys{
		choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		jump:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "jump")),
		filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		back:   cfg.backLabel != "",
	}
	leaveHelp := "quit"
	if k.back {
		leaveHelp = cfg.backLabel
	}
	k.leave = key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc/q", leaveHelp))
	return k
}

func (k menuKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.choose, k.jump, k.filter, k.leave}
}

func (k menuKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.choose, k.jump, k.filter}, {k.leave, k.quit}}
}

// MenuItem represents a selectable item in a TUI list.
type MenuItem struct {
	ID        string
	TitleText string
	Details   string
	// Meta lines are shown in the detail panel only.
	Meta []string
}

func (m MenuItem) Title() string       { return m.TitleText }
func (m MenuItem) Description() string { return m.Details }
func (m MenuItem) FilterValue() string { return m.TitleText + " " + m.Details + " " + m.ID }

// fg converts a palette color for the v2 renderer.
func fg(c string) lipgloss.Style {
	if c == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// itemDelegate draws one numbered row per item. Styles are read at render
// time so a theme change shows up on the next frame.
type itemDelegate struct{}

func (itemDelegate) Height() int { return 1 }

func (itemDelegate) Spacing() int {
	if Current().Density == DensityRoomy {
		return 1
	}
	return 0
}

func (itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	item, ok := li.(MenuItem)
	if !ok || m.Width() <= 0 {
		return
	}
	s := Current()

	row := item.TitleText
	if item.Details != "" && s.Density != DensityCompact && m.Width() > 68 {
		row += " · " + item.Details
	}
	row = ansi.Truncate(row, max(12, m.Width()-6), "…")

	number := strconv.Itoa(index+1-(m.Index()-m.Cursor())) + "."
	filtering := m.FilterState() == list.Filtering

	switch {
	case index == m.Index() && !filtering:
		accent := fg(string(s.Palette.Primary)).Bold(true)
		fmt.Fprint(w, accent.Render("› "+number+" "+row)) //nolint:errcheck
	case filtering && strings.TrimSpace(m.FilterValue()) == "":
		fmt.Fprint(w, "  "+fg(string(s.Palette.Muted)).Render(number+" "+row)) //nolint:errcheck
	default:
		fmt.Fprint(w, "  "+fg(string(s.Palette.Muted)).Render(number)+" "+fg(string(s.Palette.Foreground)).Render(row)) //nolint:errcheck
	}
}

type menuModel struct {
	list        list.Model
	help        help.Model
	keys        menuKeys
	title       string
	subtitle    string
	detailTitle string
	info        [][2]string

	width, height int
	choice        string
	done          bool
}

func newMenuModel(title string, subtitle string, items []MenuItem, cfg menuConfig) menuModel {
	p := Current().Palette

	listItems := make([]list.Item, len(items))
	selected := 0
	for i, item := range items {
		listItems[i] = item
		if cfg.selectID != "" && item.ID == cfg.selectID {
			selected = i
		}
	}

	l := list.New(listItems, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(len(items) > 9)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = fg(string(p.Muted))
	l.Select(selected)

	h := help.New()
	h.Styles.ShortKey = fg(string(p.Accent)).Bold(true)
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.ShortDesc = fg(string(p.Muted))
	h.Styles.FullDesc = h.Styles.ShortDesc
	h.Styles.Ellipsis = h.Styles.ShortDesc

	return menuModel{
		list:        l,
		help:        h,
		keys:        newMenuKeys(cfg),
		title:       title,
		subtitle:    subtitle,
		detailTitle: cfg.detailTitle,
		info:        cfg.info,
	}
}

func (m menuModel) Init() tea.Cmd { return nil }

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		layout := menuLayoutFor(m.size())
		m.list.SetSize(layout.listWidth-1, layout.listHeight)

	case tea.KeyPressMsg:
		// while filtering every key belongs to the filter input
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.choose):
			if item, ok := m.list.SelectedItem().(MenuItem); ok {
				return m.finish(item.ID)
			}
		case key.Matches(msg, m.keys.jump):
			if m.selectByNumber(msg.String()) {
				return m.finish(m.choice)
			}
		case key.Matches(msg, m.keys.leave):
			if m.keys.back {
				return m.finish(MenuActionBack)
			}
			return m.finish(MenuActionQuit)
		case key.Matches(msg, m.keys.quit):
			return m.finish(MenuActionQuit)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m menuModel) finish(choice string) (tea.Model, tea.Cmd) {
	m.choice = choice
	m.done = true
	return m, tea.Quit
}

// selectByNumber picks the n-th item on the current page.
func (m *menuModel) selectByNumber(n string) bool {
	slot, err := strconv.Atoi(n)
	if err != nil || slot < 1 || slot > 9 {
		return false
	}
	visible := m.list.VisibleItems()
	target := m.list.Index() - m.list.Cursor() + slot - 1
	if target < 0 || target >= len(visible) {
		return false
	}
	item, ok := visible[target].(MenuItem)
	if !ok {
		return false
	}
	m.list.Select(target)
	m.choice = item.ID
	return true
}

func (m menuModel) size() (int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = terminalWidth()
	}
	if height <= 0 {
		height = 26
	}
	return width, height
}

func (m menuModel) View() tea.View {
	if m.done {
		return tea.View{}
	}
	layout := menuLayoutFor(m.size())

	left := lipgloss.NewStyle().
		Width(layout.listWidth).
		Height(layout.listHeight).
		Render(m.renderList(layout.listWidth - 1))
	right := lipgloss.NewStyle().
		Width(layout.detailWidth).
		Height(layout.detailHeight).
		PaddingLeft(1).
		Render(m.renderRightPanel(layout.detailWidth-1, layout.detailHeight))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	if layout.stacked {
		body = lipgloss.JoinVertical(lipgloss.Left, left, "", right)
	}

	v := tea.NewView(Frame(m.title, m.subtitle, body, m.help.View(m.keys)))
	v.AltScreen = true
	return v
}

func (m menuModel) renderList(width int) string {
	filter := strings.TrimSpace(m.list.FilterValue())
	if filter == "" {
		return m.list.View()
	}
	hint := Current().MutedStyle.Render("filter: " + ansi.Truncate(filter, max(10, width-8), "…"))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), "", hint)
}

func (m menuModel) renderRightPanel(width int, height int) string {
	s := Current()
	heading := fg(string(s.Palette.Accent)).Bold(true)
	width = max(8, width)

	lines := []string{heading.Render(m.detailTitle)}
	item, ok := m.list.SelectedItem().(MenuItem)
	if !ok {
		lines = append(lines, s.MutedStyle.Render("Nothing selected"))
	} else {
		lines = append(lines, s.PrimaryStyle.Render(ansi.Truncate(item.TitleText, width, "…")))
		if details := strings.TrimSpace(item.Details); details != "" {
			for _, line := range strings.Split(ansi.Wordwrap(details, width, " "), "\n") {
				lines = append(lines, s.MutedStyle.Render(line))
			}
		}
		for _, meta := range item.Meta {
			lines = append(lines, s.MutedStyle.Render(ansi.Truncate(meta, width, "…")))
		}
	}

	lines = append(lines, "", heading.Render("Status"))
	for _, kv := range m.info {
		lines = append(lines, statusLine(kv[0], kv[1], width))
	}
	lines = append(lines, statusLine("Theme", themeLabel(s), width))

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func themeLabel(s *Styles) string {
	mode := "light"
	if s.DarkMode {
		mode = "dark"
	}
	return mode + ", " + s.FontTier.String() + " text"
}

func statusLine(label, value string, width int) string {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	line := fmt.Sprintf("%-7s %s", strings.ToLower(label), value)
	return Current().MutedStyle.Render(ansi.Truncate(line, max(10, width), "…"))
}

type menuLayout struct {
	stacked      bool
	listWidth    int
	listHeight   int
	detailWidth  int
	detailHeight int
}

// menuLayoutFor puts the detail panel beside the list on wide terminals and
// below it otherwise. The two columns are separated by a two-cell gutter.
func menuLayoutFor(width, height int) menuLayout {
	const (
		gutter      = 2
		sideBySide  = 90
		minList     = 40
		minDetail   = 20
		minRows     = 5
		chromeLines = 7
	)
	body := max(10, height-chromeLines)

	if width < sideBySide {
		width = max(minDetail, width)
		listHeight := max(minRows, body*3/5)
		return menuLayout{
			stacked:      true,
			listWidth:    width,
			listHeight:   listHeight,
			detailWidth:  width,
			detailHeight: max(minRows, body-listHeight-1),
		}
	}

	listWidth := min(max(minList, width*3/5), width-minDetail-gutter)
	return menuLayout{
		listWidth:    listWidth,
		listHeight:   body,
		detailWidth:  width - listWidth - gutter,
		detailHeight: body,
	}
}

// RunMenuWithOptions shows items in a full-screen list and returns the chosen
// item ID, MenuActionBack or MenuActionQuit.
func RunMenuWithOptions(title string, subtitle string, items []MenuItem, options ...MenuOption) (string, error) {
	if !IsInteractiveTerminal() {
		return "", ErrNonInteractive
	}
	cfg := defaultMenuConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	result, err := tea.NewProgram(newMenuModel(title, subtitle, items, cfg)).Run()
	if err != nil {
		return "", err
	}
	if final, ok := result.(menuModel); ok {
		return final.choice, nil
	}
	return "", nil
}
