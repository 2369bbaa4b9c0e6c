package controller

import (
	"bufio"
	"context"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
	"rag-chat-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	// GET so the stream can be consumed with a plain EventSource
	h.Get("stream", c.Stream)
	h.Get("session/:id/history", c.History)
	h.Post("session/:id/reset", c.Reset)
}

// Stream runs one chat turn and pushes it as Server-Sent Events.
// Validation happens before any stream bytes are written, so bad requests
// get a plain 400 instead of a broken event stream.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	req := dto.StreamChatRequest{
		SessionId: ctx.Query("sessionId"),
		Message:   ctx.Query("message"),
	}
	if req.SessionId == "" || req.Message == "" {
		return serverutils.NewApiError(fiber.StatusBadRequest, "sessionId and message query params required")
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The stream writer runs after this handler returns, so it gets its own
	// context. A disconnected client surfaces as a failed flush inside the
	// sink, which ends the turn; the generation call is not replayed.
	streamCtx := context.Background()
	chatService := c.chatService

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		sink := sse.NewWriter(w)
		chatService.StreamTurn(streamCtx, req.SessionId, req.Message, sink)
	})

	return nil
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	res, err := c.chatService.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session history", res))
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	if err := c.chatService.ResetSession(ctx.Context(), sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset session", nil))
}
