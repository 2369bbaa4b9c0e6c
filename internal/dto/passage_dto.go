package dto

import "github.com/google/uuid"

type IngestPassageItem struct {
	Id       string                 `json:"id"`
	Text     string                 `json:"text" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type IngestPassagesRequest struct {
	Passages []IngestPassageItem `json:"passages" validate:"required,min=1,dive"`
}

type IngestPassagesResponse struct {
	Accepted int `json:"accepted"`
}

// IngestPassageMessage is the payload published on the ingestion topic.
type IngestPassageMessage struct {
	PassageId uuid.UUID              `json:"passage_id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
