// Package notify turns booking events into client notifications. Every
// event produces an in-app row; delivery goes out over email or SMS when
// the client's contact details are known.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/libs/outbox"
	"github.com/dreyes/barberflow/services/notification-service/internal/email"
	"github.com/dreyes/barberflow/services/notification-service/internal/sms"
	"github.com/dreyes/barberflow/services/notification-service/internal/storage"
)

const (
	TopicUserCreated      = "auth.user.created.v1"
	TopicBookingCreated   = "booking.created.v1"
	TopicBookingAssigned  = "booking.assigned.v1"
	TopicBookingCancelled = "booking.cancelled.v1"

	EventNotificationSent   = "notification.sent.v1"
	EventNotificationFailed = "notification.failed.v1"
)

type Notifier struct {
	pool       *db.Pool
	store      *storage.Repository
	contacts   *storage.ContactRepository
	outbox     *outbox.Repository
	email      email.Sender
	sms        sms.Sender
	failSuffix string
	logger     *slog.Logger
}

func New(pool *db.Pool, store *storage.Repository, contacts *storage.ContactRepository, outboxRepo *outbox.Repository, emailSender email.Sender, smsSender sms.Sender, failSuffix string, logger *slog.Logger) *Notifier {
	return &Notifier{
		pool:       pool,
		store:      store,
		contacts:   contacts,
		outbox:     outboxRepo,
		email:      emailSender,
		sms:        smsSender,
		failSuffix: failSuffix,
		logger:     logger,
	}
}

type userCreatedPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

func (n *Notifier) HandleUserCreated(ctx context.Context, msg kafka.Message) error {
	var p userCreatedPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		n.logger.Error("invalid user payload", "err", err)
		return nil
	}
	if p.UserID == "" || p.Email == "" {
		n.logger.Error("missing user fields")
		return nil
	}
	return n.contacts.Upsert(ctx, storage.Contact{
		UserID: p.UserID,
		Name:   p.Name,
		Email:  p.Email,
		Phone:  p.Phone,
	})
}

type bookingCreatedPayload struct {
	BookingID string    `json:"booking_id"`
	ClientID  string    `json:"client_id"`
	BarberID  string    `json:"barber_id"`
	StartTime time.Time `json:"start_time"`
}

func (n *Notifier) HandleBookingCreated(ctx context.Context, msg kafka.Message) error {
	var p bookingCreatedPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		n.logger.Error("invalid booking payload", "err", err)
		return nil
	}
	if p.BookingID == "" || p.ClientID == "" || p.StartTime.IsZero() {
		n.logger.Error("missing booking fields", "topic", msg.Topic)
		return nil
	}
	subject, body := bookingCreatedMessage(p)
	return n.notify(ctx, p.ClientID, p.BookingID, subject, body)
}

type bookingAssignedPayload struct {
	BookingID string    `json:"booking_id"`
	ClientID  string    `json:"client_id"`
	StartTime time.Time `json:"start_time"`
}

func (n *Notifier) HandleBookingAssigned(ctx context.Context, msg kafka.Message) error {
	var p bookingAssignedPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		n.logger.Error("invalid booking payload", "err", err)
		return nil
	}
	if p.BookingID == "" || p.ClientID == "" || p.StartTime.IsZero() {
		n.logger.Error("missing booking fields", "topic", msg.Topic)
		return nil
	}
	subject, body := bookingAssignedMessage(p)
	return n.notify(ctx, p.ClientID, p.BookingID, subject, body)
}

type bookingCancelledPayload struct {
	BookingID string    `json:"booking_id"`
	ClientID  string    `json:"client_id"`
	StartTime time.Time `json:"start_time"`
	Reason    string    `json:"reason"`
}

func (n *Notifier) HandleBookingCancelled(ctx context.Context, msg kafka.Message) error {
	var p bookingCancelledPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		n.logger.Error("invalid booking payload", "err", err)
		return nil
	}
	if p.BookingID == "" || p.ClientID == "" {
		n.logger.Error("missing booking fields", "topic", msg.Topic)
		return nil
	}
	subject, body := bookingCancelledMessage(p)
	return n.notify(ctx, p.ClientID, p.BookingID, subject, body)
}

func bookingCreatedMessage(p bookingCreatedPayload) (string, string) {
	body := fmt.Sprintf("Your booking on %s is confirmed.", formatWhen(p.StartTime))
	if p.BarberID == "" {
		body += " A barber will be assigned shortly."
	}
	return "Booking confirmed", body
}

func bookingAssignedMessage(p bookingAssignedPayload) (string, string) {
	return "Barber assigned", fmt.Sprintf("A barber has been assigned to your booking on %s.", formatWhen(p.StartTime))
}

func bookingCancelledMessage(p bookingCancelledPayload) (string, string) {
	body := fmt.Sprintf("Your booking on %s was cancelled.", formatWhen(p.StartTime))
	if p.Reason != "" {
		body += " Reason: " + p.Reason + "."
	}
	return "Booking cancelled", body
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("Mon 02 Jan 2006 at 15:04")
}

// pickChannel prefers email, falls back to SMS, and with no contact on
// file leaves the notification in-app only.
func pickChannel(c storage.Contact) (string, string) {
	if c.Email != "" {
		return "email", c.Email
	}
	if c.Phone != "" {
		return "sms", c.Phone
	}
	return "inapp", c.UserID
}

func (n *Notifier) notify(ctx context.Context, userID string, bookingID string, subject string, body string) error {
	contact, err := n.contacts.Get(ctx, userID)
	if err != nil {
		if !storage.IsNotFound(err) {
			return err
		}
		contact = storage.Contact{UserID: userID}
	}

	channel, recipient := pickChannel(contact)

	status := "sent"
	failureReason := ""
	providerID := ""
	switch {
	case channel != "inapp" && n.failSuffix != "" && strings.HasSuffix(recipient, n.failSuffix):
		status = "failed"
		failureReason = "simulated failure"
	case channel == "email":
		if err := n.email.Send(recipient, subject, body); err != nil {
			status = "failed"
			failureReason = err.Error()
			n.logger.Error("email send failed", "err", err, "recipient", recipient)
		} else {
			providerID = "smtp"
		}
	case channel == "sms":
		if err := n.sms.Send(ctx, recipient, body); err != nil {
			status = "failed"
			failureReason = err.Error()
			n.logger.Error("sms send failed", "err", err, "recipient", recipient)
		} else {
			providerID = n.sms.ProviderID()
		}
	}

	tx, err := n.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := n.store.Insert(ctx, tx, storage.Notification{
		UserID:    userID,
		BookingID: bookingID,
		Channel:   channel,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    status,
	})
	if err != nil {
		return err
	}

	eventType := EventNotificationSent
	eventPayload := map[string]any{
		"notification_id": id,
		"booking_id":      bookingID,
		"user_id":         userID,
		"channel":         channel,
	}
	if status == "failed" {
		eventType = EventNotificationFailed
		eventPayload["error_reason"] = failureReason
		eventPayload["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		if providerID == "" {
			providerID = "inapp"
		}
		eventPayload["provider_id"] = providerID
		eventPayload["sent_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(eventPayload)
	if err != nil {
		return err
	}

	if err := n.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   id,
		EventType:     eventType,
		Payload:       raw,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	n.logger.Info("notification recorded", "booking_id", bookingID, "channel", channel, "status", status)
	return nil
}
