package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange и очереди пайплайна уведомлений о подписках.
const (
	NotificationsExchange = "notifications"
	UpcomingQueue         = "notifications.upcoming"
	UpcomingKey           = "upcoming"
	ExpiredQueue          = "notifications.expired"
	ExpiredKey            = "expired"
)

// SetupChannel открывает канал и объявляет exchange и очереди уведомлений.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, q := range []struct {
		queue string
		key   string
	}{
		{UpcomingQueue, UpcomingKey},
		{ExpiredQueue, ExpiredKey},
	} {
		if _, err = ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = ch.QueueBind(q.queue, q.key, NotificationsExchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return ch, nil
}
