package assistant

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunState is the lifecycle state of an assistant run.
type RunState string

const (
	RunQueued         RunState = "queued"
	RunInProgress     RunState = "in_progress"
	RunCompleted      RunState = "completed"
	RunRequiresAction RunState = "requires_action"
	RunFailed         RunState = "failed"
	RunCancelled      RunState = "cancelled"
	RunExpired        RunState = "expired"
	RunTimedOut       RunState = "timed_out" // local poll deadline, not a provider state
)

// Terminal reports whether polling can stop at this state.
func (s RunState) Terminal() bool {
	switch s {
	case RunCompleted, RunRequiresAction, RunFailed, RunCancelled, RunExpired:
		return true
	}
	return false
}

// Failure reports whether the state is a terminal failure.
func (s RunState) Failure() bool {
	switch s {
	case RunFailed, RunCancelled, RunExpired, RunTimedOut:
		return true
	}
	return false
}

// RunHandle identifies one run on one thread.
type RunHandle struct {
	ThreadID string
	RunID    string
}

// ToolCall is one tool invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolOutput is the result submitted back for one tool call.
type ToolOutput struct {
	CallID string
	Output string
}

// RunStatus is a snapshot of a run; ToolCalls is populated only in the
// requires_action state.
type RunStatus struct {
	State     RunState
	ToolCalls []ToolCall
}

// Annotation is an inline citation marker attached to a thread message.
type Annotation struct {
	Marker  string // the literal marker text embedded in the message body
	Excerpt string
	Source  string
}

// ThreadMessage is one message fetched from a provider thread.
type ThreadMessage struct {
	Role        string
	Text        string
	Annotations []Annotation
}

// Provider abstracts the conversational-AI backend so any assistant service
// with a thread/run/tool-call shape can be substituted.
type Provider interface {
	CreateAssistant(ctx context.Context, name, instructions string) (string, error)
	CreateThread(ctx context.Context) (string, error)
	UploadKnowledgeFile(ctx context.Context, filename string, content []byte) (string, error)

	Submit(ctx context.Context, threadID, assistantID, text string) (RunHandle, error)
	Poll(ctx context.Context, h RunHandle) (RunStatus, error)
	ResolveTools(ctx context.Context, h RunHandle, outputs []ToolOutput) (RunHandle, error)
	// FetchReplies returns up to limit thread messages, newest first.
	FetchReplies(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)
}

// RunError is returned when a run ends in a non-completed terminal state or
// the tool-call protocol is violated. The terminal state is kept for
// diagnostics; callers must not persist the exchange.
type RunError struct {
	State  RunState
	Reason string
}

func (e *RunError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("assistant run ended in state %q: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("assistant run ended in state %q", e.State)
}
