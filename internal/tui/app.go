package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/components"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// Catalog is the subset of the coordinator the TUI drives
type Catalog interface {
	ListAll() []domain.Book
	Pending() []domain.PendingMutation
	Online() bool
	Save(ctx context.Context, b domain.Book) (domain.Book, error)
	Delete(ctx context.Context, id string) error
	RefreshFromRemote(ctx context.Context) error
	DrainPendingMutations(ctx context.Context) domain.DrainResult
	Notifications() (<-chan catalog.Notification, func())
}

// ApplicationState represents what has keyboard focus
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateEditing
	StateConfirmDelete
)

const toastDuration = 4 * time.Second

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState

	catalog Catalog
	notes   <-chan catalog.Notification
	cancel  func()
	keys    KeyMap

	// Data
	books   []domain.Book
	pending map[string]domain.LifecycleState
	visible []int // indexes into books after filtering
	online  bool

	// UI components
	filterInput textinput.Model
	form        components.BookForm

	// UI state
	cursor     int
	offset     int
	Width      int
	Height     int
	toast      string
	toastKind  catalog.NotificationKind
	toastSince time.Time
}

// NewModel creates the application model and subscribes to notifications.
// Call Close when the program exits.
func NewModel(c Catalog) Model {
	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter by title or author"
	fi.CharLimit = 100

	notes, cancel := c.Notifications()
	m := Model{
		catalog:     c,
		notes:       notes,
		cancel:      cancel,
		keys:        DefaultKeyMap(),
		filterInput: fi,
		form:        components.NewBookForm(),
	}
	m.reload()
	return m
}

// Close ends the notification subscription
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init starts listening for notifications
func (m Model) Init() tea.Cmd {
	return tea.Batch(listenCmd(m.notes), tickCmd())
}

// reload pulls the current view from the catalog
func (m *Model) reload() {
	m.books = m.catalog.ListAll()
	m.pending = make(map[string]domain.LifecycleState)
	for _, p := range m.catalog.Pending() {
		m.pending[p.ID] = p.State
	}
	m.online = m.catalog.Online()
	m.applyFilter()
}

func (m *Model) applyFilter() {
	query := m.filterInput.Value()
	if query == "" {
		m.visible = make([]int, len(m.books))
		for i := range m.books {
			m.visible[i] = i
		}
	} else {
		m.visible = filterBooks(query, m.books)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
	m.clampOffset()
}

// Selected returns the book under the cursor
func (m Model) Selected() (domain.Book, bool) {
	if len(m.visible) == 0 {
		return domain.Book{}, false
	}
	return m.books[m.visible[m.cursor]], true
}

func (m *Model) setToast(kind catalog.NotificationKind, msg string) {
	m.toast = msg
	m.toastKind = kind
	m.toastSince = time.Now()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.clampOffset()
		return m, nil

	case NotificationMsg:
		m.setToast(msg.Kind, msg.Message)
		m.reload()
		return m, listenCmd(m.notes)

	case tickMsg:
		m.online = m.catalog.Online()
		if m.toast != "" && time.Since(m.toastSince) > toastDuration {
			m.toast = ""
		}
		return m, tickCmd()

	case SavedMsg:
		m.form.Hide()
		m.State = StateBrowsing
		m.reload()
		m.selectID(msg.Book.ID)
		return m, nil

	case DeletedMsg, RefreshedMsg, DrainedMsg:
		m.reload()
		return m, nil

	case ErrMsg:
		var verr *domain.ValidationError
		if m.State == StateEditing && errors.As(msg.Err, &verr) {
			m.form.SetError(verr.Message)
			return m, nil
		}
		if errors.Is(msg.Err, domain.ErrNotFound) {
			m.setToast(catalog.KindWarning, catalog.MsgNotFound)
		} else {
			m.setToast(catalog.KindError, msg.Error())
		}
		if m.State == StateEditing {
			m.form.SetError(msg.Err.Error())
		}
		m.reload()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateEditing:
		var cmd tea.Cmd
		var submitted bool
		m.form, cmd, submitted = m.form.Update(msg)
		if submitted {
			return m, SaveCmd(m.catalog, m.form.Book())
		}
		if !m.form.IsVisible() {
			m.State = StateBrowsing
		}
		return m, cmd

	case StateFiltering:
		switch msg.String() {
		case "enter":
			m.filterInput.Blur()
			m.State = StateBrowsing
			return m, nil
		case "esc":
			m.clearFilter()
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.cursor, m.offset = 0, 0
		m.applyFilter()
		return m, cmd

	case StateConfirmDelete:
		m.State = StateBrowsing
		if msg.String() == "y" {
			if b, ok := m.Selected(); ok {
				return m, DeleteCmd(m.catalog, b.ID)
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.clampOffset()
		}
	case key.Matches(msg, m.keys.Filter):
		m.State = StateFiltering
		return m, m.filterInput.Focus()
	case key.Matches(msg, m.keys.Escape):
		m.clearFilter()
	case key.Matches(msg, m.keys.Add):
		m.form.Show(domain.Book{})
		m.State = StateEditing
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if b, ok := m.Selected(); ok {
			m.form.Show(b)
			m.State = StateEditing
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.Selected(); ok {
			m.State = StateConfirmDelete
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, RefreshCmd(m.catalog)
	case key.Matches(msg, m.keys.Sync):
		return m, DrainCmd(m.catalog)
	}
	return m, nil
}

func (m *Model) clearFilter() {
	m.filterInput.SetValue("")
	m.filterInput.Blur()
	m.State = StateBrowsing
	m.applyFilter()
}

func (m *Model) selectID(id string) {
	for i, idx := range m.visible {
		if m.books[idx].ID == id {
			m.cursor = i
			m.clampOffset()
			return
		}
	}
}

// listHeight is the number of rows available for books
func (m Model) listHeight() int {
	const chrome = 4 // header, filter, status, footer
	if m.Height <= chrome {
		return 10
	}
	return m.Height - chrome
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the UI
func (m Model) View() string {
	if m.State == StateEditing {
		return lipgloss.Place(max(m.Width, 60), max(m.Height, 20), lipgloss.Center, lipgloss.Center, m.form.View())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.State == StateFiltering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	badge := styles.OfflineBadge
	if m.online {
		badge = styles.OnlineBadge
	}
	title := styles.TitleStyle.Render("Shelf")
	count := styles.SubtitleStyle.Render(fmt.Sprintf("%d books", len(m.books)))
	if n := len(m.pending); n > 0 {
		count += styles.AccentStyle.Render(fmt.Sprintf(" • %d pending", n))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", badge, "  ", count)
}

func (m Model) renderList() string {
	if len(m.visible) == 0 {
		if len(m.books) == 0 {
			return styles.DimStyle.Render("  No books yet. Press a to add one.") + "\n"
		}
		return styles.DimStyle.Render("  No matches.") + "\n"
	}

	width := max(m.Width, 60)
	end := min(m.offset+m.listHeight(), len(m.visible))

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		book := m.books[m.visible[i]]
		marker := styles.SyncedChar
		if _, ok := m.pending[book.ID]; ok {
			marker = styles.PendingDot
		}
		line := fmt.Sprintf("%s %-36s %-24s %8s",
			marker, truncate(book.Title, 36), truncate(book.Author, 24), book.FormattedPrice())

		style := styles.NormalRowStyle
		if i == m.cursor {
			style = styles.SelectedRowStyle
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatus() string {
	if m.State == StateConfirmDelete {
		if book, ok := m.Selected(); ok {
			return styles.ErrorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", book.Title))
		}
	}
	if m.toast == "" {
		return ""
	}
	switch m.toastKind {
	case catalog.KindError:
		return styles.ErrorStyle.Render(m.toast)
	case catalog.KindWarning:
		return styles.AccentStyle.Render(m.toast)
	case catalog.KindSuccess:
		return styles.SuccessStyle.Render(m.toast)
	default:
		return styles.InfoStyle.Render(m.toast)
	}
}

func (m Model) renderFooter() string {
	var parts []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, styles.KeyStyle.Render(h.Key)+" "+styles.FooterStyle.Render(h.Desc))
	}
	return strings.Join(parts, styles.FooterStyle.Render(" • "))
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
