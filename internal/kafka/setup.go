package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/eduline/billing-service/internal/kafka/producer"
	"github.com/eduline/billing-service/pkg/logger"
)

// EnsureTopics проверяет и создает топики событий подписок
func EnsureTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := map[string]kafkaGo.TopicConfig{
		producer.TopicSubscriptionUpdated: {
			Topic:             producer.TopicSubscriptionUpdated,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		producer.TopicSubscriptionCanceled: {
			Topic:             producer.TopicSubscriptionCanceled,
			NumPartitions:     2,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}
	_, portStr, err := net.SplitHostPort(strings.TrimSpace(brokers[0]))
	if err != nil {
		return fmt.Errorf("invalid broker address %s: %w", brokers[0], err)
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid broker port %s: %w", portStr, err)
	}

	connCtx, cancelConn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConn()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existingTopics := make(map[string]bool)
	for _, p := range partitions {
		existingTopics[p.Topic] = true
	}

	var topicsToCreate []kafkaGo.TopicConfig
	for topicName, config := range requiredTopics {
		if !existingTopics[topicName] {
			log.Info("Kafka topic %s needs to be created", topicName)
			topicsToCreate = append(topicsToCreate, config)
		}
	}

	if len(topicsToCreate) == 0 {
		log.Info("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(topicsToCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warn("Kafka topics already existed during creation attempt")
			return nil
		}
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Info("Created %d Kafka topic(s)", len(topicsToCreate))
	return nil
}
