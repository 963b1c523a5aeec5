// Package browse is the interactive terminal browser over search results and
// a user's favorites.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/model"
)

// Lines per item in the list view (name + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneResults = iota
	paneFavorites
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	favoriteMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// favoriteToggledMsg is sent when an async favorite add/remove completes.
type favoriteToggledMsg struct {
	item     model.Item
	favorite bool
	err      error
}

type browseModel struct {
	results   []model.Item
	favorites []model.Item
	favIDs    map[string]bool
	store     model.FavoriteStore
	userID    string

	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int
	cursors       [2]int
	width         int
	height        int
	ready         bool

	view           viewState
	detailItem     model.Item
	detailViewport viewport.Model

	status   string
	wantQuit bool
}

// Options configures RunBrowser. Store may be nil, in which case favorites
// are read-only and empty.
type Options struct {
	Store     model.FavoriteStore
	UserID    string
	Favorites []model.Item
}

func newBrowseModel(results []model.Item, opts Options) browseModel {
	favIDs := make(map[string]bool, len(opts.Favorites))
	for _, f := range opts.Favorites {
		favIDs[f.ID()] = true
	}
	return browseModel{
		results:   results,
		favorites: append([]model.Item(nil), opts.Favorites...),
		favIDs:    favIDs,
		store:     opts.Store,
		userID:    opts.UserID,
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case favoriteToggledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("⚠ favorite update failed: %v", msg.err)
		} else {
			m.applyFavorite(msg.item, msg.favorite)
			if msg.favorite {
				m.status = "★ saved " + msg.item.Name()
			} else {
				m.status = "removed " + msg.item.Name()
			}
		}
		m.recalcContent()
		if m.view == viewDetail {
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.wantQuit = true
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		if it, ok := m.selected(); ok {
			m.view = viewDetail
			m.detailItem = it
			m.detailViewport = viewport.New(m.width-4, m.height-4)
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil
	case "f":
		if it, ok := m.selected(); ok {
			return m.toggleFavorite(it)
		}
		return m, nil
	case "o":
		if it, ok := m.selected(); ok && it.URL() != "" {
			openURL(it.URL())
		}
		return m, nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == paneResults {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detailItem.URL() != "" {
			openURL(m.detailItem.URL())
		}
		return m, nil
	case "f":
		return m.toggleFavorite(m.detailItem)
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) toggleFavorite(it model.Item) (tea.Model, tea.Cmd) {
	if m.store == nil || m.userID == "" {
		m.status = "favorites need a store and --user"
		return m, nil
	}
	if it.ID() == "" {
		m.status = "this posting has no id and cannot be saved"
		return m, nil
	}

	store, userID, remove := m.store, m.userID, m.favIDs[it.ID()]
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if remove {
			return favoriteToggledMsg{item: it, favorite: false, err: store.RemoveFavorite(ctx, userID, it.ID())}
		}
		return favoriteToggledMsg{item: it, favorite: true, err: store.AddFavorite(ctx, userID, it)}
	}
}

// applyFavorite updates the in-memory favorites after a successful toggle.
func (m *browseModel) applyFavorite(it model.Item, favorite bool) {
	if favorite {
		if !m.favIDs[it.ID()] {
			m.favorites = append([]model.Item{it}, m.favorites...)
		}
		m.favIDs[it.ID()] = true
		return
	}

	delete(m.favIDs, it.ID())
	kept := make([]model.Item, 0, len(m.favorites))
	for _, f := range m.favorites {
		if f.ID() != it.ID() {
			kept = append(kept, f)
		}
	}
	m.favorites = kept
	m.cursors[paneFavorites] = clamp(m.cursors[paneFavorites], 0, max(len(m.favorites)-1, 0))
}

func (m browseModel) activeItems() []model.Item {
	if m.activePane == paneResults {
		return m.results
	}
	return m.favorites
}

func (m browseModel) selected() (model.Item, bool) {
	items := m.activeItems()
	if len(items) == 0 {
		return model.Item{}, false
	}
	return items[m.cursors[m.activePane]], true
}

func (m *browseModel) moveCursor(delta int) {
	n := len(m.activeItems())
	m.cursors[m.activePane] = clamp(m.cursors[m.activePane]+delta, 0, max(n-1, 0))
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.leftViewport
	if m.activePane == paneFavorites {
		vp = &m.rightViewport
	}

	cursorTop := m.cursors[m.activePane] * itemHeight
	cursorBottom := cursorTop + itemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.leftViewport.SetContent(m.renderItems(m.results, m.cursors[paneResults], m.activePane == paneResults))
	m.rightViewport.SetContent(m.renderItems(m.favorites, m.cursors[paneFavorites], m.activePane == paneFavorites))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Results (%d)", len(m.results))
	rightHeader := fmt.Sprintf(" Favorites (%d)", len(m.favorites))

	leftHeaderRendered, rightHeaderRendered := activeHeaderStyle.Render(leftHeader), inactiveHeaderStyle.Render(rightHeader)
	leftBorder, rightBorder := activeBorderStyle.Width(paneWidth), inactiveBorderStyle.Width(paneWidth)
	if m.activePane == paneFavorites {
		leftHeaderRendered, rightHeaderRendered = inactiveHeaderStyle.Render(leftHeader), activeHeaderStyle.Render(rightHeader)
		leftBorder, rightBorder = inactiveBorderStyle.Width(paneWidth), activeBorderStyle.Width(paneWidth)
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Render(m.leftViewport.View()),
		" ",
		rightBorder.Render(m.rightViewport.View()),
	)

	statusText := " ←/→/Tab switch  ↑/↓ cursor  Enter detail  f favorite  o open  q quit"
	if m.status != "" {
		statusText = " " + m.status + "   |" + statusText
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " f favorite  o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.status != "" {
		statusText = " " + m.status + "   |" + statusText
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	it := m.detailItem
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Name", it.Name())
	addField("Address", it.Address())
	addField("Item ID", it.ID())
	if m.favIDs[it.ID()] {
		addField("Favorite", favoriteMarkStyle.Render("★ yes"))
	}

	b.WriteByte('\n')
	if kw := it.Keywords().Sorted(); len(kw) > 0 {
		addField("Keywords", wordWrap(strings.Join(kw, ", "), max(m.width-20, 20)))
	} else {
		addField("Keywords", "(none)")
	}

	b.WriteByte('\n')
	addField("URL", it.URL())
	addField("Image", it.ImageURL())

	return b.String()
}

func (m browseModel) renderItems(items []model.Item, cursor int, isActive bool) string {
	if len(items) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, it := range items {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		mark := "  "
		if m.favIDs[it.ID()] {
			mark = favoriteMarkStyle.Render("★ ")
		}

		name := it.Name()
		if name == "" {
			name = "(untitled)"
		}
		b.WriteString(prefix + mark)
		b.WriteString(titleSt.Render(name))
		b.WriteByte('\n')

		kw := it.Keywords().Sorted()
		if len(kw) > 3 {
			kw = append(kw[:3], "…")
		}
		b.WriteString(prefix + "  ")
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", orNA(it.Address()), strings.Join(kw, ", "))))
		b.WriteByte('\n')

		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowser launches the split-pane browser over results and the user's favorites.
func RunBrowser(results []model.Item, opts Options) error {
	p := tea.NewProgram(newBrowseModel(results, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
