package notify

import (
	"slices"

	"github.com/Veraticus/zenith/internal/model"
)

// Inbox is a user's notifications, newest first. Methods return a new Inbox
// and leave the receiver unchanged.
type Inbox []model.Notification

// Add merges fresh notifications and keeps the inbox ordered newest first.
func (in Inbox) Add(fresh ...model.Notification) Inbox {
	out := make(Inbox, 0, len(in)+len(fresh))
	out = append(out, fresh...)
	out = append(out, in...)
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// MarkRead marks one notification read. It reports false for unknown ids.
func (in Inbox) MarkRead(id string) (Inbox, bool) {
	i := slices.IndexFunc(in, func(n model.Notification) bool { return n.ID == id })
	if i < 0 {
		return in, false
	}
	out := slices.Clone(in)
	out[i].IsRead = true
	return out, true
}

// MarkAllRead marks every notification read.
func (in Inbox) MarkAllRead() Inbox {
	out := slices.Clone(in)
	for i := range out {
		out[i].IsRead = true
	}
	return out
}

// Unread returns the unread notifications.
func (in Inbox) Unread() []model.Notification {
	var out []model.Notification
	for _, n := range in {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount is len(Unread()) without the allocation.
func (in Inbox) UnreadCount() int {
	count := 0
	for _, n := range in {
		if !n.IsRead {
			count++
		}
	}
	return count
}
