package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/roomfinder/roomfinder_backend/config"
	"github.com/roomfinder/roomfinder_backend/models"
)

// SendFCMNotification pushes a notification to the receiver's device via
// Firebase Cloud Messaging. Best effort: missing tokens and an
// unconfigured Firebase app are skipped silently, send errors are returned
// for logging only.
func SendFCMNotification(db *mongo.Client, notification models.Notification) error {
	if config.FirebaseApp == nil {
		return nil
	}

	var user models.User
	err := config.GetCollection(db, "users").
		FindOne(context.Background(), bson.M{"_id": notification.Receiver}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find receiver %s: %w", notification.Receiver.Hex(), err)
	}
	if user.FCMToken == "" {
		return nil
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	data := map[string]string{
		"type":      notification.Type,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if notification.BookingID != nil {
		data["bookingId"] = notification.BookingID.Hex()
	}
	if notification.RoomID != nil {
		data["roomId"] = notification.RoomID.Hex()
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: fcmTitle(notification.Type),
			Body:  notification.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "roomfinder_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: fcmTitle(notification.Type),
						Body:  notification.Message,
					},
					Sound:    "default",
					Badge:    func() *int { v := 1; return &v }(),
					Category: "BOOKING_UPDATE",
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent to %s: %s", notification.IdentityKey(), response)
	return nil
}

func fcmTitle(notificationType string) string {
	switch notificationType {
	case models.NotificationTypeBookingCreated:
		return "New Booking Request"
	case models.NotificationTypeBookingStatusChanged:
		return "Booking Update"
	case models.NotificationTypePayment:
		return "Payment Update"
	default:
		return "Notification"
	}
}

// SendNotificationEmail mails a copy of the notification to the receiver.
// Skipped when SMTP is not configured.
func SendNotificationEmail(db *mongo.Client, notification models.Notification) error {
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		return nil
	}
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	var user models.User
	err := config.GetCollection(db, "users").
		FindOne(context.Background(), bson.M{"_id": notification.Receiver}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find receiver %s: %w", notification.Receiver.Hex(), err)
	}
	if user.Email == "" {
		return nil
	}

	body := fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\nRoomFinder", user.FullName, notification.Message)

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", fcmTitle(notification.Type))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", user.Email, err)
	}
	return nil
}
