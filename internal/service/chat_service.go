package service

import (
	"context"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/retrieval"
	"rag-chat-be/pkg/session"
)

// AssistantStreamedMarker is what gets persisted for an assistant turn.
// The streamed answer itself is never stored; the client reassembles it
// from the delta events.
const AssistantStreamedMarker = "[streamed - check client]"

// EventSink is the per-request live event channel. Writes after the client
// disconnects return an error, which ends that request's processing.
type EventSink interface {
	Delta(text string) error
	Done() error
	Error(message string) error
}

// IChatService orchestrates one chat turn and serves transcript reads/resets.
type IChatService interface {
	// StreamTurn runs the full turn against an already-open sink: persist the
	// user turn, retrieve context (empty on failure), build the prompt, stream
	// generation deltas, persist the assistant marker, then terminate the sink
	// with exactly one done or error event. Inputs are validated by the caller
	// before the sink is opened.
	StreamTurn(ctx context.Context, sessionId, message string, sink EventSink)

	GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnResponse, error)
	ResetSession(ctx context.Context, sessionId string) error
}

type chatService struct {
	store       session.IStore
	retriever   retrieval.IRetriever
	llmProvider llm.LLMProvider
	logger      logger.ILogger

	topK        int
	callTimeout time.Duration
}

func NewChatService(
	store session.IStore,
	retriever retrieval.IRetriever,
	llmProvider llm.LLMProvider,
	sysLogger logger.ILogger,
	topK int,
	callTimeout time.Duration,
) IChatService {
	return &chatService{
		store:       store,
		retriever:   retriever,
		llmProvider: llmProvider,
		logger:      sysLogger,
		topK:        topK,
		callTimeout: callTimeout,
	}
}

func (cs *chatService) StreamTurn(ctx context.Context, sessionId, message string, sink EventSink) {
	// The sink is open: from here on, every failure surfaces as a terminal
	// error event. No stage is retried.
	if err := cs.appendTurn(ctx, sessionId, session.NewTurn(session.RoleUser, message)); err != nil {
		cs.logger.Error("ChatService", "failed to persist user turn", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		_ = sink.Error("failed to save message: " + err.Error())
		return
	}

	passages := cs.retrieveContext(ctx, sessionId, message)

	promptText := prompt.Build(message, passages)

	err := cs.llmProvider.GenerateStream(ctx, promptText, func(chunk string) error {
		// Forward each increment immediately, in generation order.
		return sink.Delta(chunk)
	})
	if err != nil {
		cs.logger.Error("ChatService", "generation stream failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		_ = sink.Error(err.Error())
		return
	}

	if err := cs.appendTurn(ctx, sessionId, session.NewTurn(session.RoleAssistant, AssistantStreamedMarker)); err != nil {
		cs.logger.Error("ChatService", "failed to persist assistant turn", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		_ = sink.Error("failed to save assistant turn: " + err.Error())
		return
	}

	_ = sink.Done()
}

func (cs *chatService) appendTurn(ctx context.Context, sessionId string, turn session.Turn) error {
	callCtx, cancel := context.WithTimeout(ctx, cs.callTimeout)
	defer cancel()
	return cs.store.Append(callCtx, sessionId, turn)
}

// retrieveContext never fails the turn: embedding or index trouble degrades
// to an empty passage set and the own-knowledge prompt.
func (cs *chatService) retrieveContext(ctx context.Context, sessionId, message string) []retrieval.Passage {
	callCtx, cancel := context.WithTimeout(ctx, cs.callTimeout)
	defer cancel()

	passages, err := cs.retriever.Retrieve(callCtx, message, cs.topK)
	if err != nil {
		cs.logger.Warn("ChatService", "retrieval failed - continuing with empty context", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil
	}
	return passages
}

func (cs *chatService) GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, cs.callTimeout)
	defer cancel()

	turns, err := cs.store.History(callCtx, sessionId)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.TurnResponse, 0, len(turns))
	for _, turn := range turns {
		response = append(response, &dto.TurnResponse{
			Role: turn.Role,
			Text: turn.Text,
			Ts:   turn.Ts,
		})
	}
	return response, nil
}

func (cs *chatService) ResetSession(ctx context.Context, sessionId string) error {
	callCtx, cancel := context.WithTimeout(ctx, cs.callTimeout)
	defer cancel()
	return cs.store.Reset(callCtx, sessionId)
}
