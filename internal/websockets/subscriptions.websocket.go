package websockets

import (
	"time"

	"fileforge/internal/events"

	"github.com/google/uuid"
)

func (m *Manager) subscribe() error {
	if m.eventBus == nil {
		return nil
	}

	if err := m.eventBus.Subscribe(events.NOTIFICATION_CHANNEL, m.handleNotification); err != nil {
		return err
	}
	return m.eventBus.Subscribe(events.CACHE_INVALIDATION_CHANNEL, m.handleCacheInvalidation)
}

func (m *Manager) handleNotification(event events.Event) error {
	if event.UserID == nil {
		return nil
	}

	m.SendMessageToUser(*event.UserID, Message{
		ID:        event.ID,
		Type:      MESSAGE_TYPE_NOTIFICATION,
		Channel:   event.Channel.String(),
		UserID:    event.UserID.String(),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	})
	return nil
}

// handleCacheInvalidation tells clients of the affected users to refetch
// their listings.
func (m *Manager) handleCacheInvalidation(event events.Event) error {
	for _, userID := range userIDs(event.Data["userIds"]) {
		m.SendMessageToUser(userID, Message{
			ID:      uuid.New().String(),
			Type:    MESSAGE_TYPE_CACHE_INVALIDATION,
			Channel: event.Channel.String(),
			UserID:  userID.String(),
			Data: map[string]any{
				"resourceType": event.Data["resourceType"],
				"resourceId":   event.Data["resourceId"],
			},
			Timestamp: time.Now(),
		})
	}
	return nil
}

// userIDs accepts the []string published locally and the []any decoded from
// valkey.
func userIDs(raw any) []uuid.UUID {
	var values []string
	switch v := raw.(type) {
	case []string:
		values = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	}

	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		if id, err := uuid.Parse(value); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
