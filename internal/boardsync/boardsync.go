// Package boardsync mirrors projects and tasks onto an external task board.
//
// A board is created per project with three fixed lists; each task becomes a card whose list
// follows the task status. Progress is the share of cards sitting in the Completed list.
package boardsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/curaious/projecthub/internal/config"
)

const (
	ListToDo       = "To Do"
	ListInProgress = "In Progress"
	ListCompleted  = "Completed"
)

// DefaultLists is the layout every new board starts with.
var DefaultLists = []string{ListToDo, ListInProgress, ListCompleted}

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrCardNotFound  = errors.New("card not found")
)

type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Board struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Lists       []List `json:"lists"`
}

type Card struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Due         *time.Time `json:"due,omitempty"`
	ListName    string     `json:"list_name"`
}

type CardInput struct {
	Name        string
	Description string
	Due         *time.Time
	Status      string
}

// Service is implemented by the in-memory store and by the Trello client.
type Service interface {
	CreateBoard(ctx context.Context, name, description string) (*Board, error)
	DeleteBoard(ctx context.Context, boardID string) error
	CreateCard(ctx context.Context, boardID string, in CardInput) (*Card, error)
	UpdateCardStatus(ctx context.Context, cardID, status string) (*Card, error)
	Progress(ctx context.Context, boardID string) (int, error)
	Boards(ctx context.Context) ([]*Board, error)
}

// New returns the board service selected by BOARD_PROVIDER.
func New(conf *config.Config, client *http.Client) (Service, error) {
	switch conf.BOARD_PROVIDER {
	case "", config.BoardProviderMemory:
		return NewMemoryStore(), nil
	case config.BoardProviderTrello:
		if conf.TRELLO_KEY == "" || conf.TRELLO_TOKEN == "" {
			return nil, fmt.Errorf("TRELLO_KEY and TRELLO_TOKEN are required when BOARD_PROVIDER is %q", config.BoardProviderTrello)
		}
		return NewTrelloClient(conf.TRELLO_BASE_URL, conf.TRELLO_KEY, conf.TRELLO_TOKEN, client), nil
	default:
		return nil, fmt.Errorf("unsupported board provider: %s", conf.BOARD_PROVIDER)
	}
}

// ListForStatus maps a task status label to the list its card belongs in.
func ListForStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "todo":
		return ListToDo
	case "in-progress", "in_progress":
		return ListInProgress
	case "completed":
		return ListCompleted
	default:
		return ListToDo
	}
}

// progress is round(completed / total * 100), or 0 for an empty board.
func progress(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
