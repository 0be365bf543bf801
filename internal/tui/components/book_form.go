package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// Form field order
const (
	fieldTitle = iota
	fieldAuthor
	fieldISBN
	fieldPrice
	fieldPicture
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Author", "ISBN", "Price", "Picture"}

// BookForm is a modal for adding or editing a book
type BookForm struct {
	visible bool
	id      string // empty when adding
	inputs  [fieldCount]textinput.Model
	focus   int
	errMsg  string
}

// NewBookForm creates a hidden form
func NewBookForm() BookForm {
	var f BookForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 40
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		f.inputs[i] = ti
	}
	f.inputs[fieldPrice].Placeholder = "0.00"
	f.inputs[fieldPicture].Placeholder = "https://"
	return f
}

// Show opens the form, prefilled from b. A zero Book opens an empty form.
func (f *BookForm) Show(b domain.Book) {
	f.visible = true
	f.id = b.ID
	f.errMsg = ""
	f.inputs[fieldTitle].SetValue(b.Title)
	f.inputs[fieldAuthor].SetValue(b.Author)
	f.inputs[fieldISBN].SetValue(b.ISBN)
	f.inputs[fieldPicture].SetValue(b.PictureURL)
	if b.Price != 0 {
		f.inputs[fieldPrice].SetValue(b.FormattedPrice())
	} else {
		f.inputs[fieldPrice].SetValue("")
	}
	f.setFocus(fieldTitle)
}

// Hide dismisses the form
func (f *BookForm) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// IsVisible returns whether the form is shown
func (f BookForm) IsVisible() bool {
	return f.visible
}

// SetError shows msg under the inputs
func (f *BookForm) SetError(msg string) {
	f.errMsg = msg
}

// Book builds a book from the inputs. An unparsable price becomes 0 so
// validation reports it.
func (f BookForm) Book() domain.Book {
	price, err := strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldPrice].Value()), 64)
	if err != nil {
		price = 0
	}
	return domain.Book{
		ID:         f.id,
		Title:      f.inputs[fieldTitle].Value(),
		Author:     f.inputs[fieldAuthor].Value(),
		ISBN:       f.inputs[fieldISBN].Value(),
		Price:      price,
		PictureURL: strings.TrimSpace(f.inputs[fieldPicture].Value()),
	}
}

func (f *BookForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// Update handles input events, returns (form, cmd, submitted)
func (f BookForm) Update(msg tea.Msg) (BookForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if f.focus == fieldCount-1 {
				return f, nil, true
			}
			f.setFocus(f.focus + 1)
			return f, nil, false
		case "ctrl+s":
			return f, nil, true
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil, false
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil, false
		case "esc":
			f.Hide()
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View renders the form
func (f BookForm) View() string {
	if !f.visible {
		return ""
	}

	title := "Add book"
	if f.id != "" {
		title = "Edit book"
	}

	rows := []string{styles.ModalTitleStyle.Render(title)}
	for i, in := range f.inputs {
		label := styles.LabelStyle.Render(fieldLabels[i])
		if i == f.focus {
			label = styles.LabelStyle.Foreground(styles.Amber).Render(fieldLabels[i])
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label, in.View()))
	}
	if f.errMsg != "" {
		rows = append(rows, "", styles.ErrorStyle.Render(f.errMsg))
	}
	rows = append(rows, "", styles.DimStyle.Render("tab next • enter/ctrl+s save • esc cancel"))

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
