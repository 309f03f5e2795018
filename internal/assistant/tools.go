package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"supportline-backend/internal/store"
)

// ToolSaveContactDetails is the only tool the assistant is currently given.
const ToolSaveContactDetails = "save_contact_details"

// genericToolAck is returned for tool names we don't recognise. The run
// protocol stalls unless every requested call receives some output, so
// unknown tools get a bare acknowledgement rather than an error.
const genericToolAck = `{"success":true}`

// ToolContext carries the conversation-scoped identifiers a tool handler may
// need.
type ToolContext struct {
	OrganisationID string
	ContactID      string
}

// ToolHandler executes one tool call and returns the output string the
// assistant should receive. A returned error is converted into a failure
// output, not propagated.
type ToolHandler func(ctx context.Context, tc ToolContext, args json.RawMessage) (string, error)

// ToolRegistry maps tool names to their handlers.
type ToolRegistry struct {
	handlers map[string]ToolHandler
	log      zerolog.Logger
}

func NewToolRegistry(log zerolog.Logger) *ToolRegistry {
	return &ToolRegistry{
		handlers: make(map[string]ToolHandler),
		log:      log.With().Str("component", "tools").Logger(),
	}
}

// Register adds a handler for the given tool name.
func (r *ToolRegistry) Register(name string, h ToolHandler) {
	if _, exists := r.handlers[name]; exists {
		r.log.Warn().Str("tool", name).Msg("tool already registered, overwriting")
	}
	r.handlers[name] = h
}

// Dispatch resolves every requested tool call to exactly one output. Handler
// failures (including unparsable payloads) become failure outputs so the run
// can resume; only the outcome is logged.
func (r *ToolRegistry) Dispatch(ctx context.Context, tc ToolContext, calls []ToolCall) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		handler, known := r.handlers[call.Name]
		if !known {
			r.log.Warn().Str("tool", call.Name).Msg("unrecognised tool call, acknowledging")
			outputs = append(outputs, ToolOutput{CallID: call.ID, Output: genericToolAck})
			continue
		}

		out, err := handler(ctx, tc, call.Arguments)
		if err != nil {
			r.log.Error().Err(err).Str("tool", call.Name).Msg("tool call failed")
			out = failureOutput(err)
		}
		outputs = append(outputs, ToolOutput{CallID: call.ID, Output: out})
	}
	return outputs
}

func failureOutput(err error) string {
	encoded, mErr := json.Marshal(map[string]any{"success": false, "error": err.Error()})
	if mErr != nil {
		return `{"success":false}`
	}
	return string(encoded)
}

type contactDetailsArgs struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// SaveContactDetailsHandler updates the conversation's contact with whatever
// subset of name/email/phone the assistant extracted. The output echoes the
// applied fields back to the assistant.
func SaveContactDetailsHandler(st store.Store) ToolHandler {
	return func(ctx context.Context, tc ToolContext, args json.RawMessage) (string, error) {
		var parsed contactDetailsArgs
		if err := json.Unmarshal(args, &parsed); err != nil {
			return "", fmt.Errorf("invalid contact details payload: %w", err)
		}
		if parsed.Name == nil && parsed.Email == nil && parsed.Phone == nil {
			return "", errors.New("contact details payload contained no recognised fields")
		}

		_, err := st.UpdateContactDetails(ctx, store.UpdateContactDetailsParams{
			ID:             tc.ContactID,
			OrganisationID: tc.OrganisationID,
			Name:           parsed.Name,
			Email:          parsed.Email,
			Phone:          parsed.Phone,
		})
		if err != nil {
			return "", fmt.Errorf("update contact %s: %w", tc.ContactID, err)
		}

		echo, err := json.Marshal(parsed)
		if err != nil {
			return "", fmt.Errorf("marshal tool output: %w", err)
		}
		return string(echo), nil
	}
}
