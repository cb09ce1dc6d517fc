package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"vehicle-rental-server/models"
)

// ReminderJob sends pickup reminders for confirmed bookings starting within
// the next 24 hours. Each booking gets at most one reminder: the conditional
// update on reminder_sent_at makes a second pass (or a second instance) skip
// bookings that were already reminded.
type ReminderJob struct {
	db       *gorm.DB
	interval time.Duration
	stopChan chan bool
}

// NewReminderJob creates a new pickup reminder job
func NewReminderJob(db *gorm.DB) *ReminderJob {
	return &ReminderJob{
		db:       db,
		interval: 5 * time.Minute,
		stopChan: make(chan bool),
	}
}

// Start begins the reminder job
func (j *ReminderJob) Start() {
	go j.run()
	log.Println("🚀 Pickup reminder job started")
}

// Stop stops the reminder job
func (j *ReminderJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Pickup reminder job stopped")
}

func (j *ReminderJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.CheckUpcomingPickups()
		case <-j.stopChan:
			return
		}
	}
}

// CheckUpcomingPickups finds confirmed bookings with a pickup inside the
// reminder window and writes a reminder notification for the renter.
func (j *ReminderJob) CheckUpcomingPickups() {
	now := time.Now()
	windowEnd := now.Add(24 * time.Hour)

	var bookings []models.Booking
	err := j.db.
		Where("status = ? AND reminder_sent_at IS NULL", models.BookingStatusConfirmed).
		Where("pickup_date > ? AND pickup_date <= ?", now, windowEnd).
		Find(&bookings).Error
	if err != nil {
		log.Printf("❌ Error checking upcoming pickups: %v", err)
		return
	}

	for _, booking := range bookings {
		j.remind(booking)
	}
}

func (j *ReminderJob) remind(booking models.Booking) {
	// Claim the booking before writing the notification so a concurrent
	// instance cannot remind it twice.
	now := time.Now()
	res := j.db.Model(&models.Booking{}).
		Where("id = ? AND reminder_sent_at IS NULL", booking.ID).
		Update("reminder_sent_at", now)
	if res.Error != nil {
		log.Printf("❌ Failed to claim reminder for booking %d: %v", booking.ID, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		return
	}

	notification := models.Notification{
		UserID:      booking.RenterID,
		Type:        models.NotificationTypePickupReminder,
		Title:       "Pickup Reminder",
		Message:     "Your rental starts soon. Don't forget to pick up your vehicle!",
		RelatedID:   booking.ID,
		RelatedType: "booking",
	}
	if err := j.db.Create(&notification).Error; err != nil {
		log.Printf("❌ Failed to create pickup reminder for booking %d: %v", booking.ID, err)
		return
	}

	log.Printf("⏰ Pickup reminder sent for booking %d (renter %d)", booking.ID, booking.RenterID)
}
