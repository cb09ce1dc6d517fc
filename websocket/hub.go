package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub manages all WebSocket connections. Besides real-time delivery it is the
// presence source for the notification dispatcher: a user who has a chat
// channel open (reported by the client over the socket) does not get a
// "New Message" notification for that channel.
type Hub struct {
	// Registered clients by user id
	Clients map[uint]*Client

	// Users who currently have a chat channel open, by channel id
	ChannelMembers map[uint]map[uint]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers by message type
	MessageHandlers map[string]MessageHandler

	mu sync.RWMutex
}

// Message is the wire format between server and client.
type Message struct {
	Type      string      `json:"type"`
	ChannelID uint        `json:"channel_id,omitempty"`
	SenderID  uint        `json:"sender_id,omitempty"`
	Content   string      `json:"content,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageHandler handles different types of messages
type MessageHandler func(*Client, *Message) error

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		Clients:         make(map[uint]*Client),
		ChannelMembers:  make(map[uint]map[uint]bool),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
	}

	hub.registerDefaultHandlers()

	return hub
}

func (h *Hub) registerDefaultHandlers() {
	h.MessageHandlers["open_channel"] = h.handleOpenChannel
	h.MessageHandlers["close_channel"] = h.handleCloseChannel
	h.MessageHandlers["ping"] = h.handlePing
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: user %d", client.ID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.ID]; ok {
				for channelID := range h.ChannelMembers {
					delete(h.ChannelMembers[channelID], client.ID)
				}
				delete(h.Clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: user %d", client.ID)
		}
	}
}

// SendToUser sends a message to a specific user, dropping it if they are not
// connected or their buffer is full.
func (h *Hub) SendToUser(userID uint, message *Message) {
	h.mu.RLock()
	client, exists := h.Clients[userID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ User %d's send buffer is full", userID)
	}
}

// PushToUser implements the dispatcher's Pusher interface.
func (h *Hub) PushToUser(userID uint, messageType string, data interface{}) {
	h.SendToUser(userID, &Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// SendToChannel sends a message to every user with the channel open, except
// excludeUserID.
func (h *Hub) SendToChannel(channelID uint, message *Message, excludeUserID uint) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	for userID := range h.ChannelMembers[channelID] {
		if userID == excludeUserID {
			continue
		}
		client, exists := h.Clients[userID]
		if !exists {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ User %d's send buffer is full", userID)
		}
	}
}

// OpenChannel marks a channel as open in userID's client.
func (h *Hub) OpenChannel(userID, channelID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ChannelMembers[channelID] == nil {
		h.ChannelMembers[channelID] = make(map[uint]bool)
	}
	h.ChannelMembers[channelID][userID] = true
}

// CloseChannel marks a channel as closed in userID's client.
func (h *Hub) CloseChannel(userID, channelID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ChannelMembers[channelID] != nil {
		delete(h.ChannelMembers[channelID], userID)
	}
}

// IsChannelOpen implements the chat service's Presence interface: true when
// the user is connected and has reported the channel as open.
func (h *Hub) IsChannelOpen(userID, channelID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, connected := h.Clients[userID]; !connected {
		return false
	}
	return h.ChannelMembers[channelID][userID]
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.Clients[userID]
	return exists
}

// handleOpenChannel records that the client is looking at a channel.
func (h *Hub) handleOpenChannel(client *Client, message *Message) error {
	h.OpenChannel(client.ID, message.ChannelID)
	log.Printf("👁️ User %d opened channel %d", client.ID, message.ChannelID)
	return nil
}

// handleCloseChannel records that the client left a channel.
func (h *Hub) handleCloseChannel(client *Client, message *Message) error {
	h.CloseChannel(client.ID, message.ChannelID)
	return nil
}

// handlePing handles ping messages for connection health
func (h *Hub) handlePing(client *Client, message *Message) error {
	pongMessage := &Message{
		Type:      "pong",
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(pongMessage)
	if err != nil {
		return err
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ Could not send pong to user %d", client.ID)
	}

	return nil
}
