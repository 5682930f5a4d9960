package services

import (
	"context"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/arnold/goalsteps-api/internal/models"
)

// PushService sends push notifications via Firebase Cloud Messaging to the
// device token a user registered.
type PushService struct {
	client *messaging.Client
	db     *gorm.DB
	logger *slog.Logger
}

// Global push service instance
var Push *PushService

// InitPush initializes the Firebase push notification service.
// Push stays usable but disabled when no service account is configured
// or Firebase refuses it.
func InitPush(serviceAccountPath string, db *gorm.DB, logger *slog.Logger) error {
	Push = &PushService{db: db, logger: logger}
	if serviceAccountPath == "" {
		logger.Info("fcm: no service account configured, push notifications disabled")
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.Warn("fcm: failed to initialize firebase app", "error", err)
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Warn("fcm: failed to get messaging client", "error", err)
		return nil
	}

	Push.client = client
	logger.Info("fcm: push notifications enabled")
	return nil
}

// Enabled reports whether messages will actually be sent.
func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil
}

// SendToUser sends a push notification to a user by their ID.
// No-op if push is not configured or user has no FCM token.
func (p *PushService) SendToUser(userID uuid.UUID, title, body string, data map[string]string) {
	if !p.Enabled() {
		return
	}

	var user models.User
	if err := p.db.Select("fcm_token").First(&user, "id = ?", userID).Error; err != nil {
		return
	}

	if user.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := p.client.Send(context.Background(), msg); err != nil {
		p.logger.Warn("fcm: send failed", "user", userID, "error", err)
	}
}

// NotifyStepCompleted tells the owner's device that a step, and with it
// its whole subtree, was marked done.
func (p *PushService) NotifyStepCompleted(userID uuid.UUID, goal models.Goal, step models.Step) {
	title, body, data := StepCompletedMessage(goal, step)
	p.SendToUser(userID, title, body, data)
}

// StepCompletedMessage builds the notification text and data payload for
// a completed step.
func StepCompletedMessage(goal models.Goal, step models.Step) (string, string, map[string]string) {
	return "Step completed",
		step.Title + " in " + goal.Title,
		map[string]string{
			"type":   "step_completed",
			"goalId": goal.ID,
			"stepId": step.ID,
		}
}
