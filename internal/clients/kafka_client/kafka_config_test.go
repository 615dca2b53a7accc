package kafka_client_test

import (
	"context"
	"os"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
)

var _ = Describe("GetKafkaConfig", func() {
	It("falls back to defaults", func() {
		for _, key := range []string{"KAFKA_BROKER", "KAFKA_CONSUMER_GROUP_ID", "KAFKA_CONSUMER_TOPIC", "KAFKA_TRANSACTIONAL_ID"} {
			if v, ok := os.LookupEnv(key); ok {
				DeferCleanup(os.Setenv, key, v)
				Expect(os.Unsetenv(key)).To(Succeed())
			}
		}

		cfg := kafka_client.GetKafkaConfig()
		Expect(cfg.Broker).To(Equal("localhost:29092"))
		Expect(cfg.Topic).To(Equal(kafka_client.KAFKA_TOPIC_REVIEW_REQUESTS))
		Expect(cfg.GroupID).To(Equal("aspectflow-consumer-group"))
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("KAFKA_CONSUMER_TOPIC", kafka_client.KAFKA_TOPIC_BATCH_REQUESTS)
		Expect(kafka_client.GetKafkaConfig().Topic).To(Equal(kafka_client.KAFKA_TOPIC_BATCH_REQUESTS))
	})
})

var _ = Describe("Consumer registry", func() {
	It("finds registered consumers by topic", func() {
		kafka_client.RegisterConsumer("test-topic", func(context.Context, *kafka.Consumer) {})
		_, ok := kafka_client.RegisteredConsumer("test-topic")
		Expect(ok).To(BeTrue())
		_, ok = kafka_client.RegisteredConsumer("unknown-topic")
		Expect(ok).To(BeFalse())
	})

	It("refuses to start an unregistered topic", func() {
		err := kafka_client.StartConsumer(context.Background(), kafka_client.KafkaConfig{Topic: "unknown-topic"})
		Expect(err).To(MatchError(ContainSubstring("No consumer found")))
	})
})

var _ = Describe("PublishToKafka", func() {
	It("fails before the producer is initialized", func() {
		err := kafka_client.PublishToKafka(context.Background(), kafka_client.KAFKA_TOPIC_REVIEW_RESULTS,
			kafka_client.Record{Key: "r1", Value: map[string]string{"a": "b"}})
		Expect(err).To(HaveOccurred())
	})
})
