package dto

type StreamChatRequest struct {
	SessionId string `query:"sessionId" validate:"required"`
	Message   string `query:"message" validate:"required"`
}

type TurnResponse struct {
	Role string `json:"role"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}
