package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
)

// Command factories for async operations

const opTimeout = 30 * time.Second

// SaveCmd saves a book through the catalog
func SaveCmd(c Catalog, b domain.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		saved, err := c.Save(ctx, b)
		if err != nil {
			return ErrMsg{Err: err, Context: "saving book"}
		}
		return SavedMsg{Book: saved}
	}
}

// DeleteCmd deletes a book through the catalog
func DeleteCmd(c Catalog, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := c.Delete(ctx, id); err != nil {
			return ErrMsg{Err: err, Context: "deleting book"}
		}
		return DeletedMsg{ID: id}
	}
}

// RefreshCmd reloads the cache from the server
func RefreshCmd(c Catalog) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := c.RefreshFromRemote(ctx); err != nil {
			return ErrMsg{Err: err, Context: "refreshing"}
		}
		return RefreshedMsg{}
	}
}

// DrainCmd replays the pending queue
func DrainCmd(c Catalog) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		return DrainedMsg{Result: c.DrainPendingMutations(ctx)}
	}
}

// listenCmd waits for the next coordinator notification
func listenCmd(ch <-chan catalog.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg(n)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
