package realtime

import "github.com/google/uuid"

type SSEEvent string

const (
	SSEEventPipelineStateChanged  SSEEvent = "PipelineStateChanged"
	SSEEventUploadProgress        SSEEvent = "UploadProgress"
	SSEEventNarrationStopped      SSEEvent = "NarrationStopped"
	SSEEventAssistantReply        SSEEvent = "AssistantReply"
	SSEEventAssistantReplyExpired SSEEvent = "AssistantReplyExpired"
	SSEEventCoursePublished       SSEEvent = "CoursePublished"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the channel every stream of a user subscribes to.
func UserChannel(userID uuid.UUID) string { return userID.String() }

// Emitter is what pipeline components publish through.
type Emitter interface {
	Emit(msg SSEMessage)
}

type EmitterFunc func(msg SSEMessage)

func (f EmitterFunc) Emit(msg SSEMessage) { f(msg) }

// NopEmitter discards every message.
var NopEmitter Emitter = EmitterFunc(func(SSEMessage) {})
