package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Shopify/sarama"

	"JProject/logger"
	"JProject/service/kafka"
	"JProject/service/mgo"
	redisSrv "JProject/service/storage/redis"
	"JProject/tools/ids"
)

type NotifyConfig struct {
	Topic        string        // kafka topic the email worker consumes
	PollInterval time.Duration // due-job scan interval
	PollBatch    int           // max jobs claimed per tick
}

type AppConfig struct {
	Port   int
	NodeID int64

	Redis  redisSrv.Config
	Mongo  mgo.Config
	Kafka  kafka.Config
	Notify NotifyConfig
}

// Global holds the in-code defaults; Load applies env overrides on top.
var Global = AppConfig{
	Port:   8080,
	NodeID: 1,
	Redis: redisSrv.Config{
		Addr: "127.0.0.1:6379", DB: 0, PoolSize: 20,
	},
	Mongo: mgo.Config{
		Uri: "mongodb://localhost:27017", Database: "jobchat", MaxPoolSize: 20,
	},
	Kafka: kafka.Config{
		Brokers:             []string{"127.0.0.1:9092"},
		ProducerRetries:     5,
		ProducerCompression: "snappy",
		KafkaVersion:        sarama.V2_1_0_0,
	},
	Notify: NotifyConfig{
		Topic:        "notify_email_events",
		PollInterval: 20 * time.Second,
		PollBatch:    100,
	},
}

func Load() {
	setStr(&Global.Redis.Addr, "REDIS_ADDR")
	setStr(&Global.Redis.Password, "REDIS_PASSWORD")
	setStr(&Global.Mongo.Uri, "MONGO_URI")
	setStr(&Global.Mongo.Database, "MONGO_DATABASE")
	setStr(&Global.Mongo.Username, "MONGO_USERNAME")
	setStr(&Global.Mongo.Password, "MONGO_PASSWORD")
	setStr(&Global.Notify.Topic, "NOTIFY_TOPIC")
	setInt(&Global.Port, "PORT")
	setInt(&Global.Notify.PollBatch, "NOTIFY_POLL_BATCH")
	setInt64(&Global.NodeID, "NODE_ID")
	setDuration(&Global.Notify.PollInterval, "NOTIFY_POLL_INTERVAL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		Global.Kafka.Brokers = strings.Split(v, ",")
	}
}

func ConfigAll(ctx context.Context) error {
	ConfigIds()
	if err := ConfigRedis(); err != nil {
		return err
	}
	if err := ConfigMgo(ctx); err != nil {
		return err
	}
	return ConfigKafka()
}

func ConfigIds() {
	ids.SetNodeID(Global.NodeID)
}

func ConfigRedis() error {
	logger.Infof("config redis addr=%s", Global.Redis.Addr)
	return redisSrv.InitRedis(Global.Redis)
}

func ConfigMgo(ctx context.Context) error {
	logger.Infof("config mongo uri=%s db=%s", Global.Mongo.Uri, Global.Mongo.Database)
	return mgo.Init(ctx, &Global.Mongo)
}

func ConfigKafka() error {
	logger.Infof("config kafka brokers=%v", Global.Kafka.Brokers)
	if err := kafka.InitKafkaClient(Global.Kafka); err != nil {
		return err
	}
	return kafka.InitSyncProducerFromClient()
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
