package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vehicle-rental-server/database"
	"vehicle-rental-server/middleware"
	"vehicle-rental-server/models"
)

// NotificationRoutes sets up notification-related routes
func NotificationRoutes(router *gin.Engine) {
	notifications := router.Group("/api/v1/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", getUserNotifications)
		notifications.GET("/unread-count", getNotificationUnreadCount)
		notifications.POST("/mark-read/:id", markNotificationAsRead)
		notifications.POST("/mark-all-read", markAllNotificationsAsRead)
	}
}

// getUserNotifications returns the user's notifications, newest first
func getUserNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")

	query := database.DB.Where("user_id = ?", userID)
	if c.Query("unreadOnly") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		log.Printf("❌ Error fetching notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	var unreadCount int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unreadCount)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"unread_count":  unreadCount,
	})
}

// markNotificationAsRead marks a specific notification as read
func markNotificationAsRead(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		} else {
			log.Printf("❌ Error finding notification: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}

	notification.Read = true
	notification.UpdatedAt = time.Now()

	if err := database.DB.Save(&notification).Error; err != nil {
		log.Printf("❌ Error updating notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}

// markAllNotificationsAsRead marks all notifications as read for a user
func markAllNotificationsAsRead(c *gin.Context) {
	userID := c.GetUint("user_id")

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		log.Printf("❌ Error marking all notifications as read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All notifications marked as read",
	})
}

// getNotificationUnreadCount returns the count of unread notifications
func getNotificationUnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		log.Printf("❌ Error getting unread count: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}
