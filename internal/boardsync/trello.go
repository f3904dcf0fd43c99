package boardsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TrelloClient implements Service against the Trello REST API (v1).
type TrelloClient struct {
	baseURL  string
	key      string
	token    string
	client   *http.Client
	maxTries uint
}

func NewTrelloClient(baseURL, key, token string, client *http.Client) *TrelloClient {
	if client == nil {
		client = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &TrelloClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		key:      key,
		token:    token,
		client:   client,
		maxTries: 4,
	}
}

type trelloBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
	URL  string `json:"url"`
}

type trelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloCard struct {
	ID      string     `json:"id"`
	IDBoard string     `json:"idBoard"`
	IDList  string     `json:"idList"`
	Name    string     `json:"name"`
	Desc    string     `json:"desc"`
	Due     *time.Time `json:"due"`
}

func (c *TrelloClient) CreateBoard(ctx context.Context, name, description string) (*Board, error) {
	var tb trelloBoard
	err := c.do(ctx, http.MethodPost, "/boards", url.Values{
		"name":         {name},
		"desc":         {description},
		"defaultLists": {"false"},
	}, &tb)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	board := &Board{ID: tb.ID, Name: tb.Name, Description: tb.Desc, URL: tb.URL}
	for _, name := range DefaultLists {
		var tl trelloList
		if err := c.do(ctx, http.MethodPost, "/boards/"+tb.ID+"/lists", url.Values{
			"name": {name},
			"pos":  {"bottom"},
		}, &tl); err != nil {
			return nil, fmt.Errorf("failed to create list %q: %w", name, err)
		}
		board.Lists = append(board.Lists, List{ID: tl.ID, Name: tl.Name})
	}

	return board, nil
}

func (c *TrelloClient) DeleteBoard(ctx context.Context, boardID string) error {
	if err := c.do(ctx, http.MethodDelete, "/boards/"+boardID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

func (c *TrelloClient) CreateCard(ctx context.Context, boardID string, in CardInput) (*Card, error) {
	lists, err := c.lists(ctx, boardID)
	if err != nil {
		return nil, err
	}

	listName := ListForStatus(in.Status)
	listID, ok := lists[listName]
	if !ok {
		return nil, fmt.Errorf("board %s has no %q list", boardID, listName)
	}

	params := url.Values{
		"idList": {listID},
		"name":   {in.Name},
		"desc":   {in.Description},
	}
	if in.Due != nil {
		params.Set("due", in.Due.UTC().Format(time.RFC3339))
	}

	var tc trelloCard
	if err := c.do(ctx, http.MethodPost, "/cards", params, &tc); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	return &Card{
		ID:          tc.ID,
		BoardID:     boardID,
		Name:        tc.Name,
		Description: tc.Desc,
		Due:         tc.Due,
		ListName:    listName,
	}, nil
}

func (c *TrelloClient) UpdateCardStatus(ctx context.Context, cardID, status string) (*Card, error) {
	var current trelloCard
	if err := c.do(ctx, http.MethodGet, "/cards/"+cardID, url.Values{"fields": {"idBoard,idList,name,desc,due"}}, &current); err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	lists, err := c.lists(ctx, current.IDBoard)
	if err != nil {
		return nil, err
	}

	listName := ListForStatus(status)
	listID, ok := lists[listName]
	if !ok {
		return nil, fmt.Errorf("board %s has no %q list", current.IDBoard, listName)
	}

	var tc trelloCard
	if err := c.do(ctx, http.MethodPut, "/cards/"+cardID, url.Values{"idList": {listID}}, &tc); err != nil {
		return nil, fmt.Errorf("failed to move card: %w", err)
	}

	return &Card{
		ID:          cardID,
		BoardID:     current.IDBoard,
		Name:        current.Name,
		Description: current.Desc,
		Due:         current.Due,
		ListName:    listName,
	}, nil
}

func (c *TrelloClient) Progress(ctx context.Context, boardID string) (int, error) {
	lists, err := c.lists(ctx, boardID)
	if err != nil {
		return 0, err
	}

	var cards []trelloCard
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID+"/cards", url.Values{"fields": {"idList"}}, &cards); err != nil {
		return 0, fmt.Errorf("failed to list cards: %w", err)
	}

	completedListID := lists[ListCompleted]
	completed := 0
	for _, card := range cards {
		if completedListID != "" && card.IDList == completedListID {
			completed++
		}
	}
	return progress(completed, len(cards)), nil
}

func (c *TrelloClient) Boards(ctx context.Context) ([]*Board, error) {
	var tbs []trelloBoard
	if err := c.do(ctx, http.MethodGet, "/members/me/boards", url.Values{"fields": {"name,desc,url"}}, &tbs); err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	out := make([]*Board, 0, len(tbs))
	for _, tb := range tbs {
		out = append(out, &Board{ID: tb.ID, Name: tb.Name, Description: tb.Desc, URL: tb.URL})
	}
	return out, nil
}

// lists returns list name -> list id for a board.
func (c *TrelloClient) lists(ctx context.Context, boardID string) (map[string]string, error) {
	var tls []trelloList
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID+"/lists", url.Values{"fields": {"name"}}, &tls); err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}

	out := make(map[string]string, len(tls))
	for _, l := range tls {
		out[l.Name] = l.ID
	}
	return out, nil
}

func (c *TrelloClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.key)
	params.Set("token", c.token)
	endpoint := c.baseURL + path + "?" + params.Encode()

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, fmt.Errorf("trello throttled: status %d", resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("trello resource not found: %s", path))
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("trello error: status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(fmt.Errorf("trello error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		return body, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return sonic.Unmarshal(body, out)
}
