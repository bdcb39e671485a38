package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/avinashlng1080/travel-planner-sub002/internal/config"
	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
)

// Publisher produces derived flash-flood alerts to a Kafka topic so that
// downstream consumers (notification fan-out, itinerary replanning) can react
// without polling the gateway. It implements weather.AlertPublisher.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured alert topic.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// PublishAlert serializes and publishes one flash-flood alert.
func (p *Publisher) PublishAlert(ctx context.Context, loc domain.Location, alert domain.FlashFloodAlert) error {
	msg, err := serializeAlert(loc, alert, p.clock.Now().UTC())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish flash-flood alert: %w", err)
	}
	p.logger.Info("published flash-flood alert",
		"level", alert.Level.String(),
		"lat", loc.Lat,
		"lng", loc.Lng,
		"affected_days", len(alert.AffectedDays),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// alertEvent is the wire shape for published alerts.
type alertEvent struct {
	ID              string   `json:"id"`
	Level           string   `json:"level"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Recommendation  string   `json:"recommendation"`
	PlanBSuggestion string   `json:"plan_b_suggestion"`
	AffectedDays    []string `json:"affected_days"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	LocationName    string   `json:"location_name,omitempty"`
	PublishedAt     string   `json:"published_at"`
}

// serializeAlert marshals a flash-flood alert into a Kafka message. The key
// is a fresh UUID: alerts are events, not upserts, so there is no natural
// entity key to partition by.
func serializeAlert(loc domain.Location, alert domain.FlashFloodAlert, publishedAt time.Time) (kafkago.Message, error) {
	event := alertEvent{
		ID:              uuid.NewString(),
		Level:           alert.Level.String(),
		Title:           alert.Title,
		Message:         alert.Message,
		Recommendation:  alert.Recommendation,
		PlanBSuggestion: alert.PlanBSuggestion,
		AffectedDays:    alert.AffectedDays,
		Lat:             loc.Lat,
		Lng:             loc.Lng,
		LocationName:    loc.Name,
		PublishedAt:     publishedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flash-flood alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(event.Level)},
			{Key: "published_at", Value: []byte(event.PublishedAt)},
		},
	}, nil
}
