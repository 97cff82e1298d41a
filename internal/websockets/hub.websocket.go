package websockets

import (
	"sync"

	"github.com/google/uuid"
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client

	m.log.Function("registerClient").Info("Client registered", "clientID", client.ID, "userID", client.UserID)
}

// unregisterClient closes the send channel exactly once per client.
func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if _, ok := m.hub.clients[client.ID]; !ok {
		return
	}
	delete(m.hub.clients, client.ID)
	close(client.send)

	m.log.Function("unregisterClient").Info("Client unregistered", "clientID", client.ID, "userID", client.UserID)
}

// SendMessageToUser queues message on every connection of userID and returns
// how many accepted it. Connections with a full queue are dropped.
func (m *Manager) SendMessageToUser(userID uuid.UUID, message Message) int {
	log := m.log.Function("SendMessageToUser")

	m.hub.mutex.RLock()
	var slow []*Client
	sent := 0
	for _, client := range m.hub.clients {
		if client.UserID != userID {
			continue
		}
		if client.enqueue(message) {
			sent++
		} else {
			slow = append(slow, client)
		}
	}
	m.hub.mutex.RUnlock()

	for _, client := range slow {
		log.Warn("Client too slow, disconnecting", "clientID", client.ID, "userID", userID)
		m.unregisterClient(client)
	}

	if sent > 0 {
		log.Debug("Message sent to user connections", "userID", userID, "messageID", message.ID, "sentTo", sent)
	}
	return sent
}

// ConnectionCount reports the live connections of userID.
func (m *Manager) ConnectionCount(userID uuid.UUID) int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	count := 0
	for _, client := range m.hub.clients {
		if client.UserID == userID {
			count++
		}
	}
	return count
}
