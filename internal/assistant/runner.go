package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"supportline-backend/internal/models"
)

// replyWindow bounds how many recent thread messages are fetched when
// collecting the assistant's replies. Multi-part replies are short; 20
// comfortably covers them while keeping the response small.
const replyWindow = 20

// Reply is one outbound assistant message with its citation metadata split
// out of the text.
type Reply struct {
	Text      string
	Citations []models.Citation
}

// Runner drives a single assistant invocation to completion: submit, poll
// until terminal, resolve at most one round of tool calls, then collect the
// assistant's replies.
type Runner struct {
	provider     Provider
	tools        *ToolRegistry
	pollInterval time.Duration
	runTimeout   time.Duration
	log          zerolog.Logger
}

func NewRunner(provider Provider, tools *ToolRegistry, pollInterval, runTimeout time.Duration, log zerolog.Logger) *Runner {
	return &Runner{
		provider:     provider,
		tools:        tools,
		pollInterval: pollInterval,
		runTimeout:   runTimeout,
		log:          log.With().Str("component", "runner").Logger(),
	}
}

// Run submits text to the thread and blocks until the run finishes. It
// returns the assistant's new messages in chronological order, or a
// *RunError when the run ends in any state other than completed.
func (r *Runner) Run(ctx context.Context, threadID, assistantID, text string, tc ToolContext) ([]Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	handle, err := r.provider.Submit(ctx, threadID, assistantID, text)
	if err != nil {
		return nil, fmt.Errorf("submit to thread %s: %w", threadID, err)
	}

	status, err := r.pollUntilTerminal(ctx, handle)
	if err != nil {
		return nil, err
	}

	if status.State == RunRequiresAction {
		outputs := r.tools.Dispatch(ctx, tc, status.ToolCalls)
		handle, err = r.provider.ResolveTools(ctx, handle, outputs)
		if err != nil {
			return nil, fmt.Errorf("submit tool outputs for run %s: %w", handle.RunID, err)
		}
		status, err = r.pollUntilTerminal(ctx, handle)
		if err != nil {
			return nil, err
		}
		// Only one round of tool resolution is supported.
		if status.State == RunRequiresAction {
			return nil, &RunError{State: RunRequiresAction, Reason: "assistant requested a second tool-call round"}
		}
	}

	if status.State != RunCompleted {
		return nil, &RunError{State: status.State}
	}

	return r.collectReplies(ctx, threadID)
}

// pollUntilTerminal polls at a fixed interval until the run reaches a
// terminal state. Hitting the run deadline maps to a timed_out RunError.
func (r *Runner) pollUntilTerminal(ctx context.Context, h RunHandle) (RunStatus, error) {
	for {
		status, err := r.provider.Poll(ctx, h)
		if err != nil {
			if ctx.Err() != nil {
				return RunStatus{}, &RunError{State: RunTimedOut, Reason: ctx.Err().Error()}
			}
			return RunStatus{}, fmt.Errorf("poll run %s: %w", h.RunID, err)
		}
		if status.State.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return RunStatus{}, &RunError{State: RunTimedOut, Reason: ctx.Err().Error()}
		case <-time.After(r.pollInterval):
		}
	}
}

// collectReplies fetches the most recent thread messages (newest first),
// takes the prefix up to the first non-assistant message, and reverses it to
// chronological order. That prefix is exactly the set of messages the
// assistant emitted since the last contact turn.
func (r *Runner) collectReplies(ctx context.Context, threadID string) ([]Reply, error) {
	messages, err := r.provider.FetchReplies(ctx, threadID, replyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch replies for thread %s: %w", threadID, err)
	}

	var batch []ThreadMessage
	for _, m := range messages {
		if m.Role != "assistant" {
			break
		}
		batch = append(batch, m)
	}

	replies := make([]Reply, 0, len(batch))
	for i := len(batch) - 1; i >= 0; i-- {
		m := batch[i]
		reply := Reply{Text: StripAnnotations(m.Text)}
		for _, a := range m.Annotations {
			reply.Citations = append(reply.Citations, models.Citation{
				Excerpt: a.Excerpt,
				Source:  a.Source,
			})
		}
		replies = append(replies, reply)
	}

	r.log.Debug().Str("thread_id", threadID).Int("replies", len(replies)).Msg("collected assistant replies")
	return replies, nil
}
