package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/curaious/projecthub/internal/mailer"
	"github.com/curaious/projecthub/internal/services/user"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    []*Notification
	failErr error
}

func (f *fakeStore) Create(_ context.Context, req *CreateNotificationRequest) (*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	n := &Notification{
		ID:                int64(len(f.rows) + 1),
		UserID:            req.UserID,
		Title:             req.Title,
		Message:           req.Message,
		Type:              req.Type,
		RelatedEntityType: req.RelatedEntityType,
		RelatedEntityID:   req.RelatedEntityID,
	}
	f.rows = append(f.rows, n)
	return n, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID int64) ([]*Notification, error) {
	var out []*Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRead(_ context.Context, id, userID int64) (*Notification, error) {
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (f *fakeStore) UnreadCount(_ context.Context, userID int64) (int64, error) {
	var c int64
	for _, n := range f.rows {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f *fakeStore) Delete(_ context.Context, id, userID int64) error {
	for i, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errSMTPDown = errors.New("smtp down")
