package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
)

type fakePublisher struct {
	published []*dto.IngestPassageMessage
	err       error
}

func (f *fakePublisher) PublishPassage(ctx context.Context, msg *dto.IngestPassageMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func newPassageTestApp(pub *fakePublisher) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewPassageController(pub).RegisterRoutes(app.Group("/api"))
	return app
}

func postPassages(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/passage/v1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, raw
}

func TestIngestQueuesPassages(t *testing.T) {
	pub := &fakePublisher{}
	app := newPassageTestApp(pub)

	id := uuid.New()
	body := `{"passages":[{"id":"` + id.String() + `","text":"first passage","metadata":{"source":"doc1"}},{"text":"second passage"}]}`
	status, raw := postPassages(t, app, body)

	if status != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", status)
	}

	var envelope struct {
		Success bool                       `json:"success"`
		Data    dto.IngestPassagesResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !envelope.Success || envelope.Data.Accepted != 2 {
		t.Errorf("envelope = %+v, want success with accepted=2", envelope)
	}

	if len(pub.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.published))
	}
	if pub.published[0].PassageId != id {
		t.Errorf("first message id = %s, want %s", pub.published[0].PassageId, id)
	}
	if pub.published[1].PassageId != uuid.Nil {
		t.Errorf("missing id must publish as uuid.Nil, got %s", pub.published[1].PassageId)
	}
	if pub.published[0].Metadata["source"] != "doc1" {
		t.Errorf("metadata lost in transit: %+v", pub.published[0].Metadata)
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty batch", body: `{"passages":[]}`},
		{name: "missing text", body: `{"passages":[{"id":"` + uuid.NewString() + `"}]}`},
		{name: "malformed uuid", body: `{"passages":[{"id":"not-a-uuid","text":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			app := newPassageTestApp(pub)

			status, _ := postPassages(t, app, tt.body)
			if status != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if len(pub.published) != 0 {
				t.Error("invalid batch must not publish anything")
			}
		})
	}
}
