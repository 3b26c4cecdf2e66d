package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/realtime"
)

// UnreadList is a business account's inbox: the unread summaries fetched on
// mount plus a summary for every message pushed while mounted.
//
// The list is additive. Live messages are appended without deduplication and
// are only reconciled by the next mount's fetch. A failed fetch keeps the
// previous items visible.
type UnreadList struct {
	source     UnreadSource
	channel    Channel
	businessID internal.ID

	mu      sync.Mutex
	items   []internal.UnreadSummary
	pending []internal.UnreadSummary
	loading bool
	mounted bool
	err     error
	gen     uint64
	cancel  context.CancelFunc
	off     func()
	changes notifier
}

// NewUnreadList creates an unmounted list. seed is shown until the first
// fetch completes, typically the cached items from the last run.
func NewUnreadList(source UnreadSource, channel Channel, businessID internal.ID, seed []internal.UnreadSummary) *UnreadList {
	items := make([]internal.UnreadSummary, len(seed))
	copy(items, seed)
	return &UnreadList{
		source:     source,
		channel:    channel,
		businessID: businessID,
		items:      items,
		changes:    newNotifier(),
	}
}

// BusinessID is the account whose inbox this is
func (l *UnreadList) BusinessID() internal.ID { return l.businessID }

// Mount starts listening for pushes and re-fetches the unread summaries. It
// blocks until the fetch completes. On failure the previous items remain and
// the error is returned and kept in Err.
func (l *UnreadList) Mount(ctx context.Context) error {
	if strings.TrimSpace(string(l.businessID)) == "" {
		return &internal.ValidationError{Field: "businessId", Reason: "must not be empty"}
	}

	l.mu.Lock()
	if l.mounted {
		l.mu.Unlock()
		return ErrAlreadyMounted
	}
	l.gen++
	gen := l.gen
	mountCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mounted = true
	l.loading = true
	l.pending = nil
	l.mu.Unlock()

	off := l.channel.On(realtime.EventReceiveMessage, l.inbound(gen))
	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		off()
		return ErrUnmounted
	}
	l.off = off
	l.mu.Unlock()

	return l.fetch(mountCtx, gen)
}

// Refresh re-fetches while mounted
func (l *UnreadList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return ErrNotLive
	}
	gen := l.gen
	l.loading = true
	l.mu.Unlock()
	return l.fetch(ctx, gen)
}

func (l *UnreadList) fetch(ctx context.Context, gen uint64) error {
	items, err := l.source.UnreadChats(ctx, l.businessID)

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		return ErrUnmounted
	}
	l.loading = false
	if err != nil {
		l.err = err
		l.items = append(l.items, l.pending...)
		l.pending = nil
		l.mu.Unlock()
		l.changes.notify()
		internal.LogWarn("Failed to fetch unread chats: %v", err)
		return err
	}
	l.err = nil
	l.items = make([]internal.UnreadSummary, 0, len(items)+len(l.pending))
	l.items = append(l.items, items...)
	l.items = append(l.items, l.pending...)
	l.pending = nil
	l.mu.Unlock()
	l.changes.notify()
	return nil
}

// Unmount stops listening and ignores any fetch still in flight. Items stay
// as they were so a later mount starts from them.
func (l *UnreadList) Unmount() {
	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.gen++
	cancel, off := l.cancel, l.off
	l.cancel, l.off = nil, nil
	l.mounted = false
	l.loading = false
	l.pending = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if off != nil {
		off()
	}
}

func (l *UnreadList) inbound(gen uint64) realtime.Handler {
	return func(data json.RawMessage) {
		m, ok := decodeMessage(data)
		if !ok {
			return
		}
		// The business's own outbound messages are not unread
		if m.SenderID == l.businessID {
			return
		}
		summary := internal.SummaryFromMessage(m)

		l.mu.Lock()
		if l.gen != gen {
			l.mu.Unlock()
			return
		}
		if l.loading {
			l.pending = append(l.pending, summary)
			l.mu.Unlock()
			return
		}
		l.items = append(l.items, summary)
		l.mu.Unlock()
		l.changes.notify()
	}
}

// Items returns a copy of the current summaries
func (l *UnreadList) Items() []internal.UnreadSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]internal.UnreadSummary, len(l.items))
	copy(out, l.items)
	return out
}

// Err returns the last fetch failure, cleared by a successful fetch
func (l *UnreadList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Changes signals after every fetch and every live append
func (l *UnreadList) Changes() <-chan struct{} {
	return l.changes
}
