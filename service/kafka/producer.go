package kafka

import (
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

type Config struct {
	Brokers             []string
	ProducerRetries     int
	ProducerCompression string // none/snappy/lz4/zstd
	KafkaVersion        sarama.KafkaVersion
}

var (
	KafkaClient sarama.Client
	SyncProd    sarama.SyncProducer
)

func BuildBaseConfig(c Config) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = c.KafkaVersion

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	if c.ProducerRetries <= 0 {
		c.ProducerRetries = 1
	}
	cfg.Producer.Retry.Max = c.ProducerRetries
	// key controls the partition, so events for one recipient stay ordered
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	switch c.ProducerCompression {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

func InitKafkaClient(c Config) error {
	cli, err := sarama.NewClient(c.Brokers, BuildBaseConfig(c))
	if err != nil {
		return errors.Wrap(err, "kafka client")
	}
	KafkaClient = cli
	return nil
}

func InitSyncProducerFromClient() error {
	p, err := sarama.NewSyncProducerFromClient(KafkaClient)
	if err != nil {
		return errors.Wrap(err, "kafka sync producer")
	}
	SyncProd = p
	return nil
}

// SendJSON marshals v and publishes it keyed by key.
func SendJSON(topic, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal kafka payload")
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = SyncProd.SendMessage(msg)
	return err
}

func CloseKafka() {
	if SyncProd != nil {
		_ = SyncProd.Close()
	}
	if KafkaClient != nil {
		_ = KafkaClient.Close()
	}
}
