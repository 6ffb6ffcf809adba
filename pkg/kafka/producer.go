package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// DecisionEvent is published for every decision a reconciliation run makes
type DecisionEvent struct {
	EventType   string             `json:"event_type"` // decision.made, decision.approved, decision.discarded
	TenantID    string             `json:"tenant_id"`
	DecisionID  string             `json:"decision_id"`
	SourceID    string             `json:"source_id"`
	PersonID    *string            `json:"person_id,omitempty"`
	Disposition models.Disposition `json:"disposition"`
	Confidence  float64            `json:"confidence"`
	Timestamp   time.Time          `json:"timestamp"`
}

// BatchCompletedEvent is published once per reconciliation run
type BatchCompletedEvent struct {
	EventType string               `json:"event_type"` // batch.completed
	TenantID  string               `json:"tenant_id"`
	BatchID   string               `json:"batch_id"`
	Summary   *models.BatchSummary `json:"summary"`
	Timestamp time.Time            `json:"timestamp"`
}

// headers builds message headers, injecting the trace context so consumers
// can continue the span.
func (p *Producer) headers(ctx context.Context, eventType string, tenantID string) []kafka.Header {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(eventType)},
		{Key: "tenant_id", Value: []byte(tenantID)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}
	if tracestate := tracing.GetTraceState(ctx); tracestate != "" {
		headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(tracestate)})
	}
	if spanID := tracing.GetSpanID(ctx); spanID != "" {
		headers = append(headers, kafka.Header{Key: "span_id", Value: []byte(spanID)})
	}
	return headers
}

// PublishDecisionEvent publishes a decision event to Kafka
func (p *Producer) PublishDecisionEvent(ctx context.Context, event *DecisionEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDecisionEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.SourceID),
		Value:   data,
		Headers: p.headers(ctx, event.EventType, event.TenantID),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "error").Inc()
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"decision_id": event.DecisionID}).Error("Failed to publish decision event")
		return err
	}
	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "success").Inc()

	return nil
}

// PublishBatchCompleted publishes a batch completion event to Kafka
func (p *Producer) PublishBatchCompleted(ctx context.Context, event *BatchCompletedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishBatchCompleted")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.BatchID),
		Value:   data,
		Headers: p.headers(ctx, event.EventType, event.TenantID),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "error").Inc()
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": event.BatchID}).Error("Failed to publish batch completed event")
		return err
	}
	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "success").Inc()

	return nil
}
