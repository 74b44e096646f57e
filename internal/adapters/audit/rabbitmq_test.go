package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taskmaster/kanban/internal/ports"
)

func TestEncode(t *testing.T) {
	owner := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	msg, err := Encode(ports.AuditEvent{
		Action:     ports.AuditTaskBulkDeleted,
		OwnerID:    owner,
		TaskIDs:    ids,
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected headers: %+v", msg)
	}
	if msg.Type != "task.bulk_deleted" || !msg.Timestamp.Equal(at) {
		t.Fatalf("type=%s timestamp=%v", msg.Type, msg.Timestamp)
	}

	var decoded ports.AuditEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded.OwnerID != owner || len(decoded.TaskIDs) != 2 || decoded.TaskIDs[1] != ids[1] {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestNop(t *testing.T) {
	var p ports.AuditPublisher = Nop{}
	if err := p.Publish(context.Background(), ports.AuditEvent{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
