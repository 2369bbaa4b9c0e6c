package controller

import (
	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPassageController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type passageController struct {
	publisherService service.IPublisherService
}

func NewPassageController(publisherService service.IPublisherService) IPassageController {
	return &passageController{
		publisherService: publisherService,
	}
}

func (c *passageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/passage/v1")
	h.Post("", c.Ingest)
}

// Ingest accepts a batch of passages and queues them for embedding and
// indexing. Administrative: not part of the chat request path.
func (c *passageController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestPassagesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	for _, item := range req.Passages {
		passageId := uuid.Nil
		if item.Id != "" {
			parsed, err := uuid.Parse(item.Id)
			if err != nil {
				return serverutils.NewApiError(fiber.StatusBadRequest, "passage id must be a UUID: "+item.Id)
			}
			passageId = parsed
		}

		err := c.publisherService.PublishPassage(ctx.Context(), &dto.IngestPassageMessage{
			PassageId: passageId,
			Text:      item.Text,
			Metadata:  item.Metadata,
		})
		if err != nil {
			return err
		}
	}

	return ctx.Status(fiber.StatusAccepted).JSON(
		serverutils.SuccessResponse("Passages queued for ingestion", dto.IngestPassagesResponse{
			Accepted: len(req.Passages),
		}),
	)
}
