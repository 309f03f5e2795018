package assistant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts a run: each Poll pops the next status. ResolveTools
// records the submitted outputs.
type fakeProvider struct {
	statuses    []RunStatus
	replies     []ThreadMessage
	toolOutputs [][]ToolOutput
	submitted   []string
	fetchLimit  int
}

func (f *fakeProvider) CreateAssistant(context.Context, string, string) (string, error) {
	return "asst_fake", nil
}

func (f *fakeProvider) CreateThread(context.Context) (string, error) {
	return "thread_fake", nil
}

func (f *fakeProvider) UploadKnowledgeFile(context.Context, string, []byte) (string, error) {
	return "file_fake", nil
}

func (f *fakeProvider) Submit(_ context.Context, threadID, assistantID, text string) (RunHandle, error) {
	f.submitted = append(f.submitted, text)
	return RunHandle{ThreadID: threadID, RunID: "run_1"}, nil
}

func (f *fakeProvider) Poll(context.Context, RunHandle) (RunStatus, error) {
	if len(f.statuses) == 0 {
		return RunStatus{State: RunCompleted}, nil
	}
	next := f.statuses[0]
	f.statuses = f.statuses[1:]
	return next, nil
}

func (f *fakeProvider) ResolveTools(_ context.Context, h RunHandle, outputs []ToolOutput) (RunHandle, error) {
	f.toolOutputs = append(f.toolOutputs, outputs)
	return h, nil
}

func (f *fakeProvider) FetchReplies(_ context.Context, _ string, limit int) ([]ThreadMessage, error) {
	f.fetchLimit = limit
	return f.replies, nil
}

func newTestRunner(p Provider, tools *ToolRegistry) *Runner {
	if tools == nil {
		tools = NewToolRegistry(zerolog.Nop())
	}
	return NewRunner(p, tools, time.Millisecond, time.Second, zerolog.Nop())
}

func TestRunCollectsAssistantPrefixInOrder(t *testing.T) {
	p := &fakeProvider{
		statuses: []RunStatus{{State: RunInProgress}, {State: RunCompleted}},
		// Newest first, as the provider returns them.
		replies: []ThreadMessage{
			{Role: "assistant", Text: "second part"},
			{Role: "assistant", Text: "first part"},
			{Role: "user", Text: "hi"},
			{Role: "assistant", Text: "from an earlier turn"},
		},
	}
	runner := newTestRunner(p, nil)

	replies, err := runner.Run(context.Background(), "thread_1", "asst_1", "hi", ToolContext{})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "first part", replies[0].Text)
	assert.Equal(t, "second part", replies[1].Text)
	assert.Equal(t, replyWindow, p.fetchLimit)
}

func TestRunStripsAnnotationsAndKeepsCitations(t *testing.T) {
	p := &fakeProvider{
		replies: []ThreadMessage{
			{
				Role: "assistant",
				Text: "check the returns policy【4:0†policy.pdf】",
				Annotations: []Annotation{
					{Marker: "【4:0†policy.pdf】", Excerpt: "returns accepted within 30 days", Source: "policy.pdf"},
				},
			},
			{Role: "user", Text: "how do returns work?"},
		},
	}
	runner := newTestRunner(p, nil)

	replies, err := runner.Run(context.Background(), "thread_1", "asst_1", "how do returns work?", ToolContext{})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "check the returns policy", replies[0].Text)
	require.Len(t, replies[0].Citations, 1)
	assert.Equal(t, "policy.pdf", replies[0].Citations[0].Source)
	assert.Equal(t, "returns accepted within 30 days", replies[0].Citations[0].Excerpt)
}

func TestRunResolvesOneToolRound(t *testing.T) {
	st := &fakeContactStore{}
	tools := NewToolRegistry(zerolog.Nop())
	tools.Register(ToolSaveContactDetails, SaveContactDetailsHandler(st))

	p := &fakeProvider{
		statuses: []RunStatus{
			{State: RunRequiresAction, ToolCalls: []ToolCall{
				{ID: "call_1", Name: ToolSaveContactDetails, Arguments: json.RawMessage(`{"email":"a@b.com"}`)},
			}},
			{State: RunCompleted},
		},
		replies: []ThreadMessage{
			{Role: "assistant", Text: "Saved your email!"},
			{Role: "user", Text: "my email is a@b.com"},
		},
	}
	runner := newTestRunner(p, tools)

	replies, err := runner.Run(context.Background(), "thread_1", "asst_1", "my email is a@b.com", ToolContext{ContactID: "cont_1", OrganisationID: "org_1"})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Saved your email!", replies[0].Text)

	require.Len(t, p.toolOutputs, 1)
	require.Len(t, p.toolOutputs[0], 1)
	assert.JSONEq(t, `{"email":"a@b.com"}`, p.toolOutputs[0][0].Output)
	require.Len(t, st.updates, 1)
	assert.Equal(t, "a@b.com", *st.updates[0].Email)
}

func TestRunSecondToolRoundIsFailure(t *testing.T) {
	tools := NewToolRegistry(zerolog.Nop())
	p := &fakeProvider{
		statuses: []RunStatus{
			{State: RunRequiresAction},
			{State: RunRequiresAction},
		},
	}
	runner := newTestRunner(p, tools)

	_, err := runner.Run(context.Background(), "thread_1", "asst_1", "hi", ToolContext{})
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, RunRequiresAction, runErr.State)
}

func TestRunTerminalFailurePropagates(t *testing.T) {
	for _, state := range []RunState{RunFailed, RunCancelled, RunExpired} {
		p := &fakeProvider{statuses: []RunStatus{{State: state}}}
		runner := newTestRunner(p, nil)

		_, err := runner.Run(context.Background(), "thread_1", "asst_1", "hi", ToolContext{})
		var runErr *RunError
		require.ErrorAs(t, err, &runErr, "state %s", state)
		assert.Equal(t, state, runErr.State)
		assert.True(t, runErr.State.Failure())
	}
}

func TestRunDeadlineMapsToTimedOut(t *testing.T) {
	// Provider never reaches a terminal state.
	p := &fakeProvider{statuses: []RunStatus{
		{State: RunInProgress}, {State: RunInProgress}, {State: RunInProgress},
		{State: RunInProgress}, {State: RunInProgress}, {State: RunInProgress},
	}}
	tools := NewToolRegistry(zerolog.Nop())
	runner := NewRunner(p, tools, time.Millisecond, 3*time.Millisecond, zerolog.Nop())

	// Refill statuses so Poll never defaults to completed.
	for i := 0; i < 100; i++ {
		p.statuses = append(p.statuses, RunStatus{State: RunInProgress})
	}

	_, err := runner.Run(context.Background(), "thread_1", "asst_1", "hi", ToolContext{})
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, RunTimedOut, runErr.State)
}
