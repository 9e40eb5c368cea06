package stores

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

// NotificationType is the severity of a notification.
type NotificationType string

// Notification types.
const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeError   NotificationType = "error"
)

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is a message shown to the user.
type Notification struct {
	ID      string           `json:"id"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
	// Timestamp is the creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Time returns the creation time.
func (n Notification) Time() time.Time {
	return time.UnixMilli(n.Timestamp)
}

// NotificationsStore holds the active notifications.
type NotificationsStore struct {
	*store.Base

	now          func() time.Time
	dismissAfter time.Duration
	items        *reactive.SliceSignal[Notification]
	// dismissals is guarded by the store lock.
	dismissals map[string]*reactive.Task

	count     *reactive.Memo[int]
	getByType *reactive.Memo[func(NotificationType) []Notification]
	hasErrors *reactive.Memo[bool]
}

// Notifications is the notifications store definition.
var Notifications = store.Define("notifications", newNotifications)

func newNotifications(s *store.Scope) *NotificationsStore {
	n := &NotificationsStore{
		Base:         store.NewBase(s),
		now:          ClockKey.Or(s, time.Now),
		dismissAfter: DismissAfterKey.Or(s, DefaultDismissAfter),
		items:        reactive.NewSliceSignal[Notification](nil),
		dismissals:   make(map[string]*reactive.Task),
	}

	n.count = reactive.NewMemo(func() int {
		return n.items.Len()
	}, n.items)

	n.getByType = reactive.NewMemo(func() func(NotificationType) []Notification {
		return func(t NotificationType) []Notification {
			var out []Notification
			for _, item := range n.items.Get() {
				if item.Type == t {
					out = append(out, item)
				}
			}
			return out
		}
	}, n.items)

	n.hasErrors = reactive.NewMemo(func() bool {
		return slices.ContainsFunc(n.items.Get(), func(item Notification) bool {
			return item.Type == TypeError
		})
	}, n.items)

	m := s.Metrics()
	reactive.NewEffect(s.Owner(), func() reactive.Cleanup {
		m.SetNotificationsActive(n.count.Get())
		return nil
	}, n.count)

	n.Handle("addNotification", store.PayloadResult(func(_ context.Context, req struct {
		Message string           `json:"message"`
		Type    NotificationType `json:"type"`
	}) (Notification, error) {
		return n.AddNotification(req.Message, req.Type)
	}))
	n.Handle("removeNotification", store.Payload(func(_ context.Context, req struct {
		ID string `json:"id"`
	}) error {
		n.RemoveNotification(req.ID)
		return nil
	}))
	n.Handle("clearAll", store.NoPayload(n.ClearAll))

	return n
}

// AllNotifications returns the notifications in insertion order.
func (n *NotificationsStore) AllNotifications() []Notification { return n.items.Items() }

// NotificationCount returns the number of notifications.
func (n *NotificationsStore) NotificationCount() int { return n.count.Get() }

// GetByType returns the notifications of type t.
func (n *NotificationsStore) GetByType(t NotificationType) []Notification {
	return n.getByType.Get()(t)
}

// HasErrors reports whether any notification is an error.
func (n *NotificationsStore) HasErrors() bool { return n.hasErrors.Get() }

// AddNotification appends a notification. An empty type means info.
// Notifications other than errors are removed automatically after the
// dismiss delay, unless the registry is reset first.
func (n *NotificationsStore) AddNotification(message string, t NotificationType) (Notification, error) {
	if t == "" {
		t = TypeInfo
	}
	if !t.Valid() {
		return Notification{}, fmt.Errorf("unknown notification type %q", t)
	}

	var added Notification
	err := n.Act("addNotification", func() error {
		now := n.now()
		added = Notification{
			ID:        fmt.Sprintf("notif-%d-%s", now.UnixMilli(), uuid.NewString()),
			Message:   message,
			Type:      t,
			Timestamp: now.UnixMilli(),
		}
		n.items.Append(added)

		if t != TypeError && n.dismissAfter > 0 {
			id := added.ID
			n.dismissals[id] = n.Owner().After(n.dismissAfter, func() {
				n.RemoveNotification(id)
			})
		}
		return nil
	})
	return added, err
}

// RemoveNotification removes the notification with id. Removing an
// unknown id is a no-op.
func (n *NotificationsStore) RemoveNotification(id string) {
	n.Do("removeNotification", func() {
		if task, ok := n.dismissals[id]; ok {
			task.Stop()
			delete(n.dismissals, id)
		}
		n.items.RemoveWhere(func(item Notification) bool { return item.ID == id })
	})
}

// ClearAll removes every notification.
func (n *NotificationsStore) ClearAll() {
	n.Do("clearAll", func() {
		for id, task := range n.dismissals {
			task.Stop()
			delete(n.dismissals, id)
		}
		n.items.Clear()
	})
}

// Success adds a success notification.
func (n *NotificationsStore) Success(message string) Notification {
	return n.must(n.AddNotification(message, TypeSuccess))
}

// Error adds an error notification. Errors are not dismissed automatically.
func (n *NotificationsStore) Error(message string) Notification {
	return n.must(n.AddNotification(message, TypeError))
}

// Warning adds a warning notification.
func (n *NotificationsStore) Warning(message string) Notification {
	return n.must(n.AddNotification(message, TypeWarning))
}

// Info adds an info notification.
func (n *NotificationsStore) Info(message string) Notification {
	return n.must(n.AddNotification(message, TypeInfo))
}

// must unwraps AddNotification for the fixed, valid types.
func (n *NotificationsStore) must(item Notification, _ error) Notification {
	return item
}

// PendingDismissals returns the number of scheduled auto-dismissals.
func (n *NotificationsStore) PendingDismissals() int {
	var pending int
	n.Read(func() { pending = len(n.dismissals) })
	return pending
}

// NotificationsSnapshot is the notifications state as reported by Snapshot.
type NotificationsSnapshot struct {
	Notifications     []Notification `json:"notifications"`
	NotificationCount int            `json:"notificationCount"`
	HasErrors         bool           `json:"hasErrors"`
}

// Snapshot implements store.Snapshotter.
func (n *NotificationsStore) Snapshot() any {
	var snap NotificationsSnapshot
	n.Read(func() {
		snap = NotificationsSnapshot{
			Notifications:     n.items.Items(),
			NotificationCount: n.count.Get(),
			HasErrors:         n.hasErrors.Get(),
		}
	})
	return snap
}
