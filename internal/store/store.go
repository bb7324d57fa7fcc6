package store

import (
	"errors"

	"github.com/npezzotti/go-hangout/internal/types"
)

// Queue names a per-browser queue inside a user document.
type Queue string

const (
	// QueueUndelivered holds hangout pushes owed to a target user whose
	// browser was offline when a counterpart's command arrived.
	QueueUndelivered Queue = "undelivered"
	// QueueDelayed holds acknowledgements owed back to a command's own
	// issuer on browsers other than the one that issued it.
	QueueDelayed Queue = "delayed"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrUnknownQueue = errors.New("unknown queue name")
)

// HangoutStore is the durable side of the protocol: per-user documents
// holding the relationship list, the per-browser backlog queues and the
// unread badge list, plus an append-only per-pair message history.
//
// Every write returns an error that the caller must check; a failed write
// means the command is not applied and must be reported to the sender.
type HangoutStore interface {
	Ping() error

	// EnsureAccount creates the user document on first sight of a username
	// and returns it. Existing documents are returned unchanged.
	EnsureAccount(username, email string) (types.User, error)
	GetAccount(username string) (types.User, error)

	// EnsureBrowser appends a browser subdocument with empty queues if the
	// user has no browser with this id yet.
	EnsureBrowser(username, browserId string) error

	// UpsertHangout replaces owner's record about record.Username in place,
	// or appends it on first contact. A stored record with a newer timestamp
	// wins: the write becomes a no-op rather than regressing state.
	UpsertHangout(owner string, record types.Hangout) error

	// AppendMessageHistory appends to the durable per-pair chat log. The log
	// is append-only and independent of the latest-message field kept on the
	// hangout record itself.
	AppendMessageHistory(owner, counterpart string, msg types.Message) error

	// EnqueueForBrowser appends a record to the named queue of one browser.
	EnqueueForBrowser(owner, browserId string, queue Queue, record types.Hangout) error

	// DrainBrowserQueue returns the named queue's records and clears it,
	// atomically per browser. A record enqueued concurrently with a drain
	// either lands in the returned batch or survives for the next drain;
	// it is never lost.
	DrainBrowserQueue(owner, browserId string, queue Queue) ([]types.Hangout, error)

	// AppendUnread adds a record to the owner's unread badge list.
	AppendUnread(owner string, record types.Hangout) error

	// ClearUnread removes all unread entries about one counterpart.
	ClearUnread(owner, counterpart string) error

	GetMessages(owner, counterpart string, limit int) ([]types.Message, error)

	Close() error
}
