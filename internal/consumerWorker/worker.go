package consumerWorker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"eventure/internal/dto"
	"eventure/internal/mailer"
	"eventure/internal/model"
	"eventure/internal/rabbit"
	"eventure/internal/repo"
)

// Reader consumes dispatch and reminder messages. Dispatch messages carry IDs
// of notifications already committed to the store; the reader only delivers
// them by email. Reminder messages arrive via the delayed exchange and run the
// attendee fan-out at delivery time.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("🐇 RabbitMQ Reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.DispatchMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return err
			}

			switch msg.Kind {
			case dto.KindDispatch:
				r.deliver(cctx, msg.NotificationIDs)
				return nil
			case dto.KindReminder:
				return r.remind(cctx, msg.EventID)
			default:
				zlog.Logger.Warn().Str("kind", msg.Kind).Msg("unknown message kind, dropping")
				return nil
			}
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("RabbitMQ Reader stopped by context")
	}()
}

// deliver emails committed notifications. A notification the recipient has
// already deleted is skipped, and email failures are not requeued: the store
// is the source of truth, email is best effort.
func (r *Reader) deliver(ctx context.Context, notificationIDs []int64) {
	for _, id := range notificationIDs {
		notif, err := r.repo.GetNotificationByID(ctx, id)
		if err != nil {
			zlog.Logger.Warn().
				Err(err).
				Int64("notification_id", id).
				Msg("notification gone before delivery, skipping")
			continue
		}

		user, err := r.repo.GetUserByID(ctx, notif.UserID)
		if err != nil {
			zlog.Logger.Warn().
				Err(err).
				Int64("user_id", notif.UserID).
				Msg("recipient gone before delivery, skipping")
			continue
		}

		if err := r.mail.SendNotificationEmail(&zlog.Logger, user.Email, notif.Title, notif.Message); err != nil {
			zlog.Logger.Warn().Err(err).Int64("notification_id", id).Msg("failed to deliver notification email")
		}
	}
}

// remind runs the reminder fan-out for an event's confirmed attendees and
// delivers the resulting notifications.
func (r *Reader) remind(ctx context.Context, eventID int64) error {
	event, err := r.repo.GetEventByID(ctx, eventID)
	if err != nil {
		zlog.Logger.Info().
			Int64("event_id", eventID).
			Msg("event gone before its reminder, skipping")
		return nil
	}

	notifs, err := r.repo.FanOutEventNotificationsTx(ctx, eventID,
		model.NotificationReminder,
		"Reminder: "+event.Name,
		fmt.Sprintf("The event %q starts at %s.", event.Name, event.StartTime.Format("2006-01-02 15:04")),
	)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("event_id", eventID).
			Msg("failed to fan out reminder notifications")
		return err
	}

	zlog.Logger.Info().
		Int64("event_id", eventID).
		Int("notifications", len(notifs)).
		Msg("📩 reminder fan-out complete")

	ids := make([]int64, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, n.ID)
	}
	r.deliver(ctx, ids)
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
