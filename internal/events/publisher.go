package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"impact-platform/internal/ledger"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeTransactionCreated   = "transaction.created"
	TypeTransactionCompleted = "transaction.completed"
	TypeTransactionFailed    = "transaction.failed"
)

// Envelope is the message body published for every ledger lifecycle step.
type Envelope struct {
	Type          string          `json:"type"`
	TransactionID string          `json:"transaction_id"`
	Holder        string          `json:"holder"`
	SKUCode       string          `json:"sku_code"`
	Amount        decimal.Decimal `json:"amount"`
	Impact        decimal.Decimal `json:"impact"`
	PaymentStatus string          `json:"payment_status"`
	ConnectFlag   bool            `json:"connect_flag"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// MessageWriter is the slice of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher implements ledger.Publisher on a Kafka topic. Delivery is best
// effort: the ledger unit of work has already committed when these fire, so
// broker errors are logged and swallowed rather than failing the request.
type Publisher struct {
	writer MessageWriter
	log    *slog.Logger
	clock  func() time.Time
}

func NewPublisher(writer MessageWriter, log *slog.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		log:    log,
		clock:  time.Now,
	}
}

func (p *Publisher) TransactionCreated(ctx context.Context, t ledger.Transaction) {
	p.publish(ctx, TypeTransactionCreated, t)
}

func (p *Publisher) TransactionCompleted(ctx context.Context, t ledger.Transaction) {
	p.publish(ctx, TypeTransactionCompleted, t)
}

func (p *Publisher) TransactionFailed(ctx context.Context, t ledger.Transaction) {
	p.publish(ctx, TypeTransactionFailed, t)
}

func (p *Publisher) publish(ctx context.Context, typ string, t ledger.Transaction) {
	if p == nil || p.writer == nil {
		return
	}

	env := Envelope{
		Type:          typ,
		TransactionID: t.ID,
		Holder:        t.Holder().Ref(),
		SKUCode:       t.SKUCode,
		Amount:        t.Amount,
		Impact:        t.Impact,
		PaymentStatus: string(t.PaymentStatus),
		ConnectFlag:   t.ConnectFlag,
		OccurredAt:    p.clock().UTC(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshal transaction event", "type", typ, "transaction_id", t.ID, "error", err)
		return
	}

	// Keyed by holder so all events of one wallet land on one partition.
	msg := kafka.Message{
		Key:   []byte(env.Holder),
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish transaction event", "type", typ, "transaction_id", t.ID, "error", err)
	}
}
