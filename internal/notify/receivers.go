package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/signalex/signalex-be/internal/mailer"
	"github.com/signalex/signalex-be/internal/models"
	"github.com/signalex/signalex-be/internal/services"
	"github.com/signalex/signalex-be/internal/signals"
	ws "github.com/signalex/signalex-be/internal/websocket"
)

// Receiver ids, stable across restarts so re-registration replaces
// instead of stacking.
const (
	idWelcomeEmail  = "welcome-email"
	idPostDeleteLog = "post-delete-log"
	idAudit         = "audit"
	idHubBridge     = "hub-bridge"
)

// Register wires the application's standard receivers into the signal
// registry: the welcome email on user creation, the deletion log for
// posts, the audit trail, and the live websocket feed. events and hub
// may be nil to skip those receivers.
func Register(registry *signals.Registry, m mailer.Mailer, fromAddr string, events services.EventServiceProvider, hub *ws.Hub) {
	registry.PostSave(signals.SenderUser).Connect(idWelcomeEmail, WelcomeEmail(m, fromAddr))
	registry.PreDelete(signals.SenderPost).Connect(idPostDeleteLog, LogPostDeletion())

	if events != nil {
		audit := AuditTrail(events)
		for _, sender := range []string{signals.SenderUser, signals.SenderPost} {
			registry.PostSave(sender).Connect(idAudit, audit)
			registry.PreDelete(sender).Connect(idAudit, audit)
		}
	}

	if hub != nil {
		bridge := HubBridge(hub)
		for _, sender := range []string{signals.SenderUser, signals.SenderPost} {
			registry.PostSave(sender).Connect(idHubBridge, bridge)
			registry.PreDelete(sender).Connect(idHubBridge, bridge)
		}
	}
}

// WelcomeEmail returns a receiver that emails a user right after their
// account is created. Updates never send mail. A delivery failure is
// returned, so it surfaces to whoever saved the user.
func WelcomeEmail(m mailer.Mailer, fromAddr string) signals.Receiver {
	return func(ctx context.Context, e signals.Event) error {
		if !e.Created {
			return nil
		}
		user, ok := e.Instance.(models.User)
		if !ok {
			return fmt.Errorf("welcome email: unexpected instance type %T", e.Instance)
		}

		return m.Send(mailer.Message{
			From:    fromAddr,
			To:      []string{user.Email},
			Subject: "Welcome to our site!",
			Body:    fmt.Sprintf("Thank you for registering, %s!", user.Username),
		})
	}
}

// LogPostDeletion returns a receiver that logs a post's title before
// the row is removed.
func LogPostDeletion() signals.Receiver {
	return func(ctx context.Context, e signals.Event) error {
		post, ok := e.Instance.(models.Post)
		if !ok {
			return fmt.Errorf("post deletion log: unexpected instance type %T", e.Instance)
		}
		log.Info().
			Str("post_id", post.ID).
			Str("title", post.Title).
			Msg(fmt.Sprintf("Post titled '%s' is about to be deleted.", post.Title))
		return nil
	}
}

// AuditTrail returns a receiver that persists an audit event for every
// lifecycle signal, using a dotted type taxonomy ("user.created",
// "post.deleted", ...).
func AuditTrail(events services.EventServiceProvider) signals.Receiver {
	return func(ctx context.Context, e signals.Event) error {
		eventType, message, entityID := describe(e)
		if err := events.CreateEvent(ctx, eventType, "info", message, entityID); err != nil {
			return fmt.Errorf("audit %s: %w", eventType, err)
		}
		return nil
	}
}

// HubBridge returns a receiver that broadcasts every lifecycle event to
// websocket subscribers of the sender's topic. Delivery is best-effort
// and never fails the triggering operation.
func HubBridge(hub *ws.Hub) signals.Receiver {
	return func(ctx context.Context, e signals.Event) error {
		eventType, _, _ := describe(e)
		hub.Notify(e.Sender, ws.NewSignalMessage(eventType, e.Instance))
		return nil
	}
}

// describe maps a signal event to its audit type, human message, and
// the id of the entity involved.
func describe(e signals.Event) (eventType, message string, entityID *string) {
	var action string
	switch {
	case strings.HasSuffix(e.SignalName, ".pre_delete"):
		action = "deleted"
	case e.Created:
		action = "created"
	default:
		action = "updated"
	}
	eventType = e.Sender + "." + action

	switch instance := e.Instance.(type) {
	case models.User:
		message = fmt.Sprintf("User '%s' %s.", instance.Username, action)
		entityID = &instance.ID
	case models.Post:
		message = fmt.Sprintf("Post '%s' %s.", instance.Title, action)
		entityID = &instance.ID
	default:
		message = fmt.Sprintf("%s %s.", e.Sender, action)
	}
	return eventType, message, entityID
}
