// The dispatch facade. Both delivery paths share one shape: write the
// durable in-app record synchronously, then fire the push best-effort.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
	"github.com/snapquest/go-snapquest-backend/internal/push"
	"github.com/snapquest/go-snapquest-backend/internal/repo"
)

// TokenSource resolves the push tokens registered by a player. An empty
// slice means the player has no reachable device, which is not an error.
type TokenSource interface {
	ListTokens(ctx context.Context, playerID string) ([]string, error)
}

// Pusher delivers one push message best-effort. Satisfied by *push.Client.
type Pusher interface {
	Send(ctx context.Context, msg push.Message) error
}

// Dispatcher creates in-app notification records and fans out push messages.
//
// The in-app record is the only part of this boundary with a durability
// requirement: Immediate and Batched return an error only when the record
// cannot be persisted. Push delivery runs after the record exists and its
// failures are logged and dropped: a missed banner, never a missed inbox
// entry.
type Dispatcher struct {
	DB     *gorm.DB
	Push   Pusher
	Tokens TokenSource

	// PushTimeout bounds each outbound push call. Zero means the push
	// client's own timeout applies.
	PushTimeout time.Duration

	// spawn runs the push fan-out; defaults to a goroutine.
	spawn func(func())
}

// NewDispatcher constructs a Dispatcher over the given collaborators.
func NewDispatcher(db *gorm.DB, pusher Pusher, tokens TokenSource) *Dispatcher {
	return &Dispatcher{
		DB:     db,
		Push:   pusher,
		Tokens: tokens,
		spawn:  func(f func()) { go f() },
	}
}

// Immediate delivers the one-time first-reaction notification: a durable
// unread in-app record, then a best-effort push.
func (d *Dispatcher) Immediate(ctx context.Context, recipientID, photoID, title, body string, meta map[string]string) error {
	return d.dispatch(ctx, recipientID, photoID, domain.NotificationTypeReactionImmediate, title, body, meta)
}

// Batched delivers one aggregated notification for a closed batch window.
func (d *Dispatcher) Batched(ctx context.Context, recipientID, photoID, title, body string, meta map[string]string) error {
	return d.dispatch(ctx, recipientID, photoID, domain.NotificationTypeReactionBatched, title, body, meta)
}

func (d *Dispatcher) dispatch(ctx context.Context, recipientID, photoID, typ, title, body string, meta map[string]string) error {
	n, err := repo.CreateNotification(ctx, d.DB, recipientID, photoID, typ, title, body)
	if err != nil {
		return err
	}

	d.spawn(func() { d.pushOut(n.ID, recipientID, title, body, meta) })
	return nil
}

// pushOut fans the message out to every registered device token. Runs
// detached from the request: the caller has already returned by the time
// delivery is attempted.
func (d *Dispatcher) pushOut(notificationID, recipientID, title, body string, meta map[string]string) {
	ctx := context.Background()
	if d.PushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.PushTimeout)
		defer cancel()
	}

	tokens, err := d.Tokens.ListTokens(ctx, recipientID)
	if err != nil {
		log.Warn().Err(err).Str("recipient_id", recipientID).Msg("resolve push tokens")
		return
	}

	for _, tok := range tokens {
		msg := push.Message{
			RecipientToken: tok,
			Title:          title,
			Body:           body,
			Data:           meta,
		}
		if err := d.Push.Send(ctx, msg); err != nil {
			log.Warn().Err(err).
				Str("notification_id", notificationID).
				Str("recipient_id", recipientID).
				Msg("push delivery failed")
		}
	}
}
