package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
)

// ScheduleEvent сообщение об изменении расписания артиста.
type ScheduleEvent struct {
	ArtistID string      `json:"artist_id"`
	EntityID string      `json:"entity_id"`
	Dates    []date.Date `json:"dates"`
}

// Publisher публикует события расписания в exchange schedule.events.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish отправляет событие с ключом маршрутизации вида "offday.created".
func (p *Publisher) Publish(routingKey string, event ScheduleEvent) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		ExchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
