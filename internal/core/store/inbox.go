package store

import (
	"slices"
	"time"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

// Inbox keeps notifications per channel. Unread counts are derived from the
// notifications on every read, so they cannot drift or go negative.
type Inbox struct {
	notifications *Collection[domain.Notification]
	now           func() time.Time
}

func newInbox(c *Collection[domain.Notification]) *Inbox {
	return &Inbox{notifications: c, now: time.Now}
}

// Push stores a new unread notification.
func (in *Inbox) Push(n domain.Notification) domain.Notification {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = in.now().UTC()
	}
	n.Read = false
	n.ReadBy = nil
	return in.notifications.Add(n)
}

// List returns the notifications of channel, or of every channel when
// channel is empty.
func (in *Inbox) List(channel domain.Channel) []domain.Notification {
	if channel == "" {
		return in.notifications.List()
	}
	return in.notifications.List(inChannel(channel))
}

func (in *Inbox) Get(id string) (domain.Notification, error) {
	return in.notifications.Get(id)
}

func (in *Inbox) Delete(id string) error {
	return in.notifications.Delete(id)
}

func (in *Inbox) UnreadCount(channel domain.Channel) int {
	return len(in.notifications.List(inChannel(channel), unread))
}

// Counts returns the unread count of each known channel plus any other
// channel that currently holds notifications.
func (in *Inbox) Counts() map[domain.Channel]int {
	return in.counts(unread)
}

func (in *Inbox) TotalUnread() int {
	return total(in.Counts())
}

func (in *Inbox) counts(isUnread func(domain.Notification) bool) map[domain.Channel]int {
	counts := make(map[domain.Channel]int, len(domain.Channels))
	for _, ch := range domain.Channels {
		counts[ch] = 0
	}
	for _, n := range in.notifications.List(isUnread) {
		counts[n.Channel]++
	}
	return counts
}

func total(counts map[domain.Channel]int) int {
	sum := 0
	for _, count := range counts {
		sum += count
	}
	return sum
}

// MarkAsRead marks one notification as read. Marking an already read
// notification is a no-op.
func (in *Inbox) MarkAsRead(id string) error {
	n, err := in.notifications.Get(id)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	_, err = in.notifications.Update(id, func(n *domain.Notification) { n.Read = true })
	return err
}

// MarkChannelAsRead zeroes the unread count of channel.
func (in *Inbox) MarkChannelAsRead(channel domain.Channel) {
	in.notifications.UpdateWhere(
		func(n domain.Notification) bool { return n.Channel == channel && !n.Read },
		func(n *domain.Notification) { n.Read = true },
	)
}

// MarkAllAsRead marks the given channels as read, or every channel when
// none is given.
func (in *Inbox) MarkAllAsRead(channels ...domain.Channel) {
	if len(channels) == 0 {
		in.notifications.UpdateWhere(unread, func(n *domain.Notification) { n.Read = true })
		return
	}
	for _, ch := range channels {
		in.MarkChannelAsRead(ch)
	}
}

// For returns the inbox as seen by one identity.
func (in *Inbox) For(identityID string) *ReaderInbox {
	return &ReaderInbox{inbox: in, reader: identityID}
}

// ReaderInbox keeps read state per identity in each notification's ReadBy,
// so one reader marking notifications never moves another reader's
// counters.
type ReaderInbox struct {
	inbox  *Inbox
	reader string
}

// List returns the notifications of channel, or of every channel when
// channel is empty, with Read reporting this reader's state.
func (r *ReaderInbox) List(channel domain.Channel) []domain.Notification {
	list := r.inbox.List(channel)
	for i := range list {
		list[i].Read = list[i].ReadFor(r.reader)
		list[i].ReadBy = nil
	}
	return list
}

func (r *ReaderInbox) UnreadCount(channel domain.Channel) int {
	return len(r.inbox.notifications.List(inChannel(channel), r.unread))
}

func (r *ReaderInbox) Counts() map[domain.Channel]int {
	return r.inbox.counts(r.unread)
}

func (r *ReaderInbox) TotalUnread() int {
	return total(r.Counts())
}

// MarkAsRead marks one notification as read for this reader. Repeating it
// is a no-op.
func (r *ReaderInbox) MarkAsRead(id string) error {
	n, err := r.inbox.notifications.Get(id)
	if err != nil {
		return err
	}
	if n.ReadFor(r.reader) {
		return nil
	}
	_, err = r.inbox.notifications.Update(id, r.markRead)
	return err
}

func (r *ReaderInbox) MarkChannelAsRead(channel domain.Channel) {
	r.inbox.notifications.UpdateWhere(
		func(n domain.Notification) bool { return n.Channel == channel && r.unread(n) },
		r.markRead,
	)
}

// MarkAllAsRead marks the given channels, or every channel when none is
// given, as read for this reader.
func (r *ReaderInbox) MarkAllAsRead(channels ...domain.Channel) {
	if len(channels) == 0 {
		r.inbox.notifications.UpdateWhere(r.unread, r.markRead)
		return
	}
	for _, ch := range channels {
		r.MarkChannelAsRead(ch)
	}
}

func (r *ReaderInbox) unread(n domain.Notification) bool { return !n.ReadFor(r.reader) }

func (r *ReaderInbox) markRead(n *domain.Notification) {
	if !n.ReadFor(r.reader) {
		n.ReadBy = append(slices.Clip(n.ReadBy), r.reader)
	}
}

func inChannel(channel domain.Channel) func(domain.Notification) bool {
	return func(n domain.Notification) bool { return n.Channel == channel }
}

func unread(n domain.Notification) bool { return !n.Read }
