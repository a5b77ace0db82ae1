package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"campusbook/internal/domain"
	"campusbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outbox ставит уведомления в таблицу-очередь. Запись идёт отдельной вставкой
// после фиксации породившей операции: сбой записи логируется и не
// распространяется — бронь не должна откатываться из-за уведомлений.
type Outbox struct {
	store  domain.NotificationOutbox
	logger *zerolog.Logger
}

func NewOutbox(store domain.NotificationOutbox, logger *zerolog.Logger) *Outbox {
	return &Outbox{store: store, logger: logger}
}

// Enqueue формирует payload по схеме внешнего диспетчера и кладёт его в outbox.
func (o *Outbox) Enqueue(ctx context.Context, userID int64, notifyType string, booking *models.Booking) error {
	payload := models.NotificationPayload{
		Type:         notifyType,
		UserName:     booking.UserName,
		FacilityName: booking.FacilityName,
		BookingID:    booking.ID,
		BookingDate:  booking.Date.Format(models.DateLayout),
		StartTime:    booking.StartTime,
		EndTime:      booking.EndTime,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	n := &models.Notification{
		UID:     uuid.NewString(),
		UserID:  userID,
		Type:    notifyType,
		Payload: string(raw),
		Status:  models.NotifyStatusPending,
	}

	if err := o.store.CreateNotification(ctx, n); err != nil {
		o.logger.Error().Err(err).Int64("user_id", userID).Str("type", notifyType).Msg("enqueue notification error")
		return err
	}
	return nil
}
