package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ContactBatchMessage is the payload upstream ingestion publishes when a
// batch of contact records is ready for reconciliation.
type ContactBatchMessage struct {
	BatchID  string                 `json:"batch_id"`
	TenantID string                 `json:"tenant_id"`
	Source   string                 `json:"source"`
	Records  []models.ContactRecord `json:"records"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Batch *ContactBatchMessage
}

// ParseBatch parses the message value as a contact batch
func (m *IncomingMessage) ParseBatch() error {
	var batch ContactBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	m.Batch = &batch
	return nil
}

// GetTenantID returns the tenant ID from the batch, falling back to the
// header for messages published by older producers.
func (m *IncomingMessage) GetTenantID() string {
	if m.Batch != nil && m.Batch.TenantID != "" {
		return m.Batch.TenantID
	}
	return m.Headers["tenant_id"]
}

// GetBatchID returns the batch ID, falling back to the message key
func (m *IncomingMessage) GetBatchID() string {
	if m.Batch != nil && m.Batch.BatchID != "" {
		return m.Batch.BatchID
	}
	return m.Key
}
