package service

import (
	"context"
	"encoding/json"
	"fmt"
	"fraud_simulator/internal/domain"
	"fraud_simulator/pkg/crypto"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const EnvelopeTypeFraudAlert = "fraud_alert"

type Envelope struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"` // unix milli
	Data json.RawMessage `json:"data"`
}

// KafkaPublisher writes each alert as an Envelope keyed by transaction id.
type KafkaPublisher struct {
	topic  string
	p      sarama.SyncProducer
	signer *crypto.Signer
	now    func() time.Time
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, signer *crypto.Signer) *KafkaPublisher {
	return &KafkaPublisher{
		topic:  topic,
		p:      producer,
		signer: signer,
		now:    time.Now,
	}
}

func DialKafkaPublisher(brokers []string, topic string, signer *crypto.Signer) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisher(p, topic, signer), nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, alert domain.Alert) error {
	_ = ctx // SyncProducer has no context support

	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Envelope{
		Type: EnvelopeTypeFraudAlert,
		TS:   k.now().UnixMilli(),
		Data: data,
	})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(alert.TransactionID),
		Value: sarama.ByteEncoder(b),
	}
	if k.signer.Enabled() {
		msg.Headers = []sarama.RecordHeader{{
			Key:   []byte(crypto.SignatureHeader),
			Value: []byte(k.signer.Sign(b)),
		}}
	}

	if _, _, err := k.p.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.p != nil {
		return k.p.Close()
	}
	return nil
}

// LogPublisher records alerts in the application log when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, alert domain.Alert) error {
	l.logger.WarnContext(ctx, "Fraud alert",
		slog.String("transaction_id", alert.TransactionID),
		slog.Float64("score", alert.Score),
		slog.Any("rules", alert.Rules))
	return nil
}

func (l *LogPublisher) Close() error {
	return nil
}
