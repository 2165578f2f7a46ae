package httptransport

import (
	"context"
	"encoding/json"

	callermodels "callfile/internal/caller/models"
	consentmodels "callfile/internal/consent/models"
	"callfile/internal/conversation"
)

// CallService is the conversation surface the webhooks drive.
type CallService interface {
	StartCall(ctx context.Context, cc conversation.CallContext) (*conversation.CallStart, error)
	Dispatch(ctx context.Context, cc conversation.CallContext, tool conversation.Tool, args conversation.Args) (*conversation.ToolResult, error)
	EndCall(ctx context.Context, cc conversation.CallContext, summary json.RawMessage) error
}

type CallerReader interface {
	Get(ctx context.Context, phone string) (*callermodels.CallerRecord, error)
}

type ConsentHistory interface {
	History(ctx context.Context, phone string) ([]consentmodels.Record, error)
}

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}
