package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Notifier publishes user notifications onto the notification topic.
// Fire-and-forget: delivery is the consumer's concern, a publish failure is
// logged and never fails the calling operation.
type Notifier struct {
	writer *kafka.Writer
}

func New(writer *kafka.Writer) *Notifier {
	return &Notifier{writer: writer}
}

type notification struct {
	UserID  int                    `json:"user_id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (n *Notifier) Notify(ctx context.Context, userID int, ntype, title, message string, data map[string]interface{}) {
	payload, err := json.Marshal(notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Data:    data,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error marshalling notification")
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("notification-%s-%d", ntype, userID)),
		Value: payload,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing notification for user %d", userID)
	}
}
