// Command republish emits a dataset-republish event to Kafka. It is the
// operator-side counterpart of sweepd's invalidation consumer: run it
// after loading a fresh sweeping dataset to make running instances drop
// their caches.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/easystreet/sweepd/internal/invalidation"
)

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "Comma-separated Kafka brokers")
		topic   = flag.String("topic", "dataset-republish", "Topic to publish on")
		dataset = flag.String("dataset", "street-sweeping", "Dataset name")
		version = flag.Uint64("version", 0, "Dataset version (0 = unversioned)")
	)
	flag.Parse()

	ev := invalidation.Event{
		Dataset:     *dataset,
		Version:     *version,
		Op:          "republish",
		PublishedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Fatalf("encode event: %v", err)
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), cfg)
	if err != nil {
		log.Fatalf("connect kafka: %v", err)
	}
	defer func() { _ = producer.Close() }()

	partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: *topic,
		Key:   sarama.StringEncoder(*dataset),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		log.Fatalf("send: %v", err)
	}
	log.Printf("published dataset=%s version=%d topic=%s partition=%d offset=%d",
		*dataset, *version, *topic, partition, offset)
}
