package store

import (
	"fmt"
	"sync"

	"github.com/npezzotti/go-hangout/internal/types"
)

// MemoryHangoutStore keeps the same per-user documents in process memory.
// It backs tests and the -memory-store development mode. A single mutex
// stands in for Mongo's document-level atomicity, which makes the
// drain-versus-enqueue invariant hold trivially.
type MemoryHangoutStore struct {
	mu       sync.Mutex
	users    map[string]*types.User
	messages map[string][]types.Message
}

func NewMemoryHangoutStore() *MemoryHangoutStore {
	return &MemoryHangoutStore{
		users:    make(map[string]*types.User),
		messages: make(map[string][]types.Message),
	}
}

func (s *MemoryHangoutStore) Ping() error { return nil }

func (s *MemoryHangoutStore) EnsureAccount(username, email string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		user = &types.User{Username: username, Email: email}
		s.users[username] = user
	}

	return cloneUser(user), nil
}

func (s *MemoryHangoutStore) GetAccount(username string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return types.User{}, fmt.Errorf("account %q: %w", username, ErrNotFound)
	}

	return cloneUser(user), nil
}

func (s *MemoryHangoutStore) EnsureBrowser(username, browserId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("account %q: %w", username, ErrNotFound)
	}

	for _, b := range user.Browsers {
		if b.BrowserId == browserId {
			return nil
		}
	}

	user.Browsers = append(user.Browsers, types.Browser{
		BrowserId:   browserId,
		Undelivered: []types.Hangout{},
		Delayed:     []types.Hangout{},
	})

	return nil
}

func (s *MemoryHangoutStore) UpsertHangout(owner string, record types.Hangout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[owner]
	if !ok {
		return fmt.Errorf("account %q: %w", owner, ErrNotFound)
	}

	for i, h := range user.Hangouts {
		if h.Username != record.Username {
			continue
		}
		if h.Timestamp > record.Timestamp {
			// Stored record is newer, keep it.
			return nil
		}
		user.Hangouts[i] = record
		return nil
	}

	user.Hangouts = append(user.Hangouts, record)
	return nil
}

func (s *MemoryHangoutStore) AppendMessageHistory(owner, counterpart string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := PairKey(owner, counterpart)
	s.messages[key] = append(s.messages[key], msg)
	return nil
}

func (s *MemoryHangoutStore) EnqueueForBrowser(owner, browserId string, queue Queue, record types.Hangout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	browser, err := s.findBrowser(owner, browserId)
	if err != nil {
		return err
	}

	switch queue {
	case QueueUndelivered:
		browser.Undelivered = append(browser.Undelivered, record)
	case QueueDelayed:
		browser.Delayed = append(browser.Delayed, record)
	default:
		return fmt.Errorf("enqueue %s-%s: %w: %q", owner, browserId, ErrUnknownQueue, queue)
	}

	return nil
}

func (s *MemoryHangoutStore) DrainBrowserQueue(owner, browserId string, queue Queue) ([]types.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	browser, err := s.findBrowser(owner, browserId)
	if err != nil {
		return nil, err
	}

	var drained []types.Hangout
	switch queue {
	case QueueUndelivered:
		drained = browser.Undelivered
		browser.Undelivered = []types.Hangout{}
	case QueueDelayed:
		drained = browser.Delayed
		browser.Delayed = []types.Hangout{}
	default:
		return nil, fmt.Errorf("drain %s-%s: %w: %q", owner, browserId, ErrUnknownQueue, queue)
	}

	return drained, nil
}

func (s *MemoryHangoutStore) AppendUnread(owner string, record types.Hangout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[owner]
	if !ok {
		return fmt.Errorf("account %q: %w", owner, ErrNotFound)
	}

	user.Unread = append(user.Unread, record)
	return nil
}

func (s *MemoryHangoutStore) ClearUnread(owner, counterpart string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[owner]
	if !ok {
		return fmt.Errorf("account %q: %w", owner, ErrNotFound)
	}

	kept := user.Unread[:0]
	for _, h := range user.Unread {
		if h.Username != counterpart {
			kept = append(kept, h)
		}
	}
	user.Unread = kept

	return nil
}

func (s *MemoryHangoutStore) GetMessages(owner, counterpart string, limit int) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[PairKey(owner, counterpart)]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	out := make([]types.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryHangoutStore) Close() error { return nil }

// findBrowser must be called with the lock held.
func (s *MemoryHangoutStore) findBrowser(owner, browserId string) (*types.Browser, error) {
	user, ok := s.users[owner]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", owner, ErrNotFound)
	}

	for i := range user.Browsers {
		if user.Browsers[i].BrowserId == browserId {
			return &user.Browsers[i], nil
		}
	}

	return nil, fmt.Errorf("browser %s-%s: %w", owner, browserId, ErrNotFound)
}

func cloneUser(u *types.User) types.User {
	out := types.User{Username: u.Username, Email: u.Email}
	out.Browsers = make([]types.Browser, len(u.Browsers))
	for i, b := range u.Browsers {
		out.Browsers[i] = types.Browser{
			BrowserId:   b.BrowserId,
			Undelivered: append([]types.Hangout(nil), b.Undelivered...),
			Delayed:     append([]types.Hangout(nil), b.Delayed...),
		}
	}
	out.Hangouts = append([]types.Hangout(nil), u.Hangouts...)
	out.Unread = append([]types.Hangout(nil), u.Unread...)
	return out
}
