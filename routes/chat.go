package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vehicle-rental-server/middleware"
	"vehicle-rental-server/services"
	ws "vehicle-rental-server/websocket"
)

var (
	chatService *services.ChatService
	chatHub     *ws.Hub
)

// ChatRoutes sets up chat-related routes
func ChatRoutes(router *gin.Engine, svc *services.ChatService, hub *ws.Hub) {
	chatService = svc
	chatHub = hub

	chat := router.Group("/api/v1/chat")
	{
		// WebSocket connection - use WebSocket-specific auth middleware
		chat.GET("/ws", middleware.WebSocketAuthMiddleware(), handleWebSocketConnection)

		chat.GET("/channels", middleware.AuthMiddleware(), getChatChannels)
		chat.GET("/booking/:bookingId", middleware.AuthMiddleware(), getOrCreateChannel)
		chat.GET("/unread-count", middleware.AuthMiddleware(), getChatUnreadCount)

		chat.GET("/:channelId/messages", middleware.AuthMiddleware(), getChannelMessages)
		chat.POST("/:channelId/messages", middleware.AuthMiddleware(), sendChannelMessage)
		chat.PUT("/:channelId/read", middleware.AuthMiddleware(), markChannelRead)
	}
}

func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message body cannot be empty"})
	default:
		log.Printf("❌ Chat operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// handleWebSocketConnection upgrades the connection and registers the client
func handleWebSocketConnection(c *gin.Context) {
	userID := c.GetUint("user_id")
	log.Printf("🔌 WebSocket connection: UserID=%d", userID)
	ws.ServeWebSocket(chatHub, c.Writer, c.Request, userID)
}

// getChatChannels returns all chat channels for the authenticated user
func getChatChannels(c *gin.Context) {
	userID := c.GetUint("user_id")

	channels, err := chatService.ListChannels(userID)
	if err != nil {
		log.Printf("❌ Error fetching chat channels for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat channels"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"channels": channels,
	})
}

// getOrCreateChannel returns the chat channel for a booking, creating it lazily
func getOrCreateChannel(c *gin.Context) {
	userID := c.GetUint("user_id")
	bookingID, err := strconv.ParseUint(c.Param("bookingId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	channel, chanErr := chatService.GetOrCreateChannel(uint(bookingID), userID)
	if chanErr != nil {
		if errors.Is(chanErr, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		respondChatError(c, chanErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"channel": channel,
	})
}

// getChannelMessages returns the channel's messages in send order
func getChannelMessages(c *gin.Context) {
	userID := c.GetUint("user_id")
	channelID, err := strconv.ParseUint(c.Param("channelId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel ID"})
		return
	}

	messages, listErr := chatService.ListMessages(uint(channelID), userID)
	if listErr != nil {
		respondChatError(c, listErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": messages,
	})
}

// sendChannelMessage appends a message to the channel
func sendChannelMessage(c *gin.Context) {
	userID := c.GetUint("user_id")
	channelID, err := strconv.ParseUint(c.Param("channelId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel ID"})
		return
	}

	var request struct {
		Body string `json:"body" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	message, sendErr := chatService.SendMessage(uint(channelID), userID, request.Body)
	if sendErr != nil {
		respondChatError(c, sendErr)
		return
	}

	// Real-time delivery to anyone with the channel open (excluding sender)
	chatHub.SendToChannel(uint(channelID), &ws.Message{
		Type:      "chat",
		ChannelID: uint(channelID),
		SenderID:  userID,
		Content:   message.Body,
		Timestamp: message.SentAt,
		Data:      gin.H{"message": message},
	}, userID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
	})
}

// markChannelRead marks every message addressed to the user in the channel as read
func markChannelRead(c *gin.Context) {
	userID := c.GetUint("user_id")
	channelID, err := strconv.ParseUint(c.Param("channelId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel ID"})
		return
	}

	updated, markErr := chatService.MarkRead(uint(channelID), userID)
	if markErr != nil {
		respondChatError(c, markErr)
		return
	}

	// Read receipt for the other participant
	chatHub.SendToChannel(uint(channelID), &ws.Message{
		Type:      "read_receipt",
		ChannelID: uint(channelID),
		SenderID:  userID,
		Timestamp: time.Now(),
		Data:      gin.H{"updated": updated},
	}, userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": updated,
	})
}

// getChatUnreadCount returns the badge count across all the user's channels
func getChatUnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	count, err := chatService.TotalUnreadAcrossChannels(userID)
	if err != nil {
		log.Printf("❌ Error getting chat unread count for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}
