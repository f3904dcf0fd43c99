package boardsync

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps boards and cards in process memory. It is not persistent and is meant
// for development and tests; each server owns its own instance.
type MemoryStore struct {
	mu      sync.RWMutex
	boards  map[string]*Board
	cards   map[string]*Card
	baseURL string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards:  map[string]*Board{},
		cards:   map[string]*Card{},
		baseURL: "https://boards.local/b/",
	}
}

func (s *MemoryStore) CreateBoard(_ context.Context, name, description string) (*Board, error) {
	id := uuid.NewString()
	board := &Board{
		ID:          id,
		Name:        name,
		Description: description,
		URL:         s.baseURL + id,
	}
	for _, list := range DefaultLists {
		board.Lists = append(board.Lists, List{ID: uuid.NewString(), Name: list})
	}

	s.mu.Lock()
	s.boards[id] = board
	s.mu.Unlock()

	out := *board
	return &out, nil
}

func (s *MemoryStore) DeleteBoard(_ context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[boardID]; !ok {
		return ErrBoardNotFound
	}
	delete(s.boards, boardID)
	for id, card := range s.cards {
		if card.BoardID == boardID {
			delete(s.cards, id)
		}
	}
	return nil
}

func (s *MemoryStore) CreateCard(_ context.Context, boardID string, in CardInput) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[boardID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}

	card := &Card{
		ID:          uuid.NewString(),
		BoardID:     boardID,
		Name:        in.Name,
		Description: in.Description,
		Due:         in.Due,
		ListName:    ListForStatus(in.Status),
	}
	s.cards[card.ID] = card

	out := *card
	return &out, nil
}

func (s *MemoryStore) UpdateCardStatus(_ context.Context, cardID, status string) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	card.ListName = ListForStatus(status)

	out := *card
	return &out, nil
}

func (s *MemoryStore) Progress(_ context.Context, boardID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.boards[boardID]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}

	total, completed := 0, 0
	for _, card := range s.cards {
		if card.BoardID != boardID {
			continue
		}
		total++
		if card.ListName == ListCompleted {
			completed++
		}
	}
	return progress(completed, total), nil
}

func (s *MemoryStore) Boards(_ context.Context) ([]*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Board, 0, len(s.boards))
	for _, b := range s.boards {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
