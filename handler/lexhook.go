// Package handler holds the Lambda boundaries: one per entrypoint, each
// converting raw events into calls on the core services and every failure
// into a well-formed response.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"document-search/internal/lex"
)

// TurnEngine consumes one conversation turn and renders the next response.
type TurnEngine interface {
	HandleTurn(ctx context.Context, event events.LexEvent) (events.LexResponse, error)
}

const apologyMessage = "Sorry! Something went wrong."

// TurnHandler is the DialogCodeHook Lambda boundary. Whatever fails inside a
// turn, the user always receives a terminal response; the conversation never
// crashes silently.
type TurnHandler struct {
	engine  TurnEngine
	timeout time.Duration
}

// NewTurnHandler creates a TurnHandler. timeout bounds a turn's wall clock
// when the invocation context carries no deadline of its own.
func NewTurnHandler(engine TurnEngine, timeout time.Duration) (*TurnHandler, error) {
	if engine == nil {
		return nil, fmt.Errorf("handler: turn engine must not be nil")
	}
	return &TurnHandler{engine: engine, timeout: timeout}, nil
}

// Handle processes one Lex invocation.
func (h *TurnHandler) Handle(ctx context.Context, event events.LexEvent) (resp events.LexResponse, err error) {
	if _, ok := ctx.Deadline(); !ok && h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn panicked", "panic", r)
			resp = failureResponse(event, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	out, turnErr := h.engine.HandleTurn(ctx, event)
	if turnErr != nil {
		slog.Error("turn failed", "err", turnErr)
		return failureResponse(event, turnErr), nil
	}
	return out, nil
}

func failureResponse(event events.LexEvent, cause error) events.LexResponse {
	// PlainText always validates, so the error return is unreachable here.
	resp, _ := lex.CloseResponse(event.SessionAttributes, false, lex.ContentTypePlainText,
		fmt.Sprintf("%s (%v)", apologyMessage, cause))
	return resp
}
