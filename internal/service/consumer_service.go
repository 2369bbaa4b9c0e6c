package service

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the ingestion topic: each message is one passage to
// embed and upsert into the similarity index. Runs outside the request path.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	embeddingProvider embedding.EmbeddingProvider
	index             vectorstore.Index
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	embeddingProvider embedding.EmbeddingProvider,
	index vectorstore.Index,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		embeddingProvider: embeddingProvider,
		index:             index,
		logger:            sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestPassageMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "processing passage", map[string]interface{}{
		"passage_id": payload.PassageId,
	})

	vector, err := cs.embeddingProvider.Generate(ctx, payload.Text, embedding.TaskRetrievalDocument)
	if err != nil {
		cs.logger.Error("ConsumerService", "failed to embed passage", map[string]interface{}{
			"passage_id": payload.PassageId,
			"error":      err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	id := payload.PassageId
	if id == uuid.Nil {
		id = uuid.New()
	}

	err = cs.index.Upsert(ctx, []vectorstore.Item{
		{
			Id:       id,
			Text:     payload.Text,
			Metadata: payload.Metadata,
			Vector:   vector,
		},
	})
	if err != nil {
		cs.logger.Error("ConsumerService", "failed to upsert passage", map[string]interface{}{
			"passage_id": payload.PassageId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
