package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollDecodesStringEncodedToolArguments(t *testing.T) {
	// The Assistants API serializes function arguments as a JSON string, not
	// an embedded object.
	const payload = `{
		"id": "run_1",
		"status": "requires_action",
		"required_action": {
			"submit_tool_outputs": {
				"tool_calls": [{
					"id": "call_1",
					"function": {
						"name": "save_contact_details",
						"arguments": "{\"email\":\"a@b.com\"}"
					}
				}]
			}
		}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/runs/run_1", r.URL.Path)
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, zerolog.Nop())
	status, err := client.Poll(context.Background(), RunHandle{ThreadID: "thread_1", RunID: "run_1"})
	require.NoError(t, err)
	assert.Equal(t, RunRequiresAction, status.State)
	require.Len(t, status.ToolCalls, 1)
	assert.Equal(t, "call_1", status.ToolCalls[0].ID)
	assert.Equal(t, ToolSaveContactDetails, status.ToolCalls[0].Name)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(status.ToolCalls[0].Arguments))

	// The decoded call must flow through dispatch into a contact update.
	st := &fakeContactStore{}
	registry := NewToolRegistry(zerolog.Nop())
	registry.Register(ToolSaveContactDetails, SaveContactDetailsHandler(st))

	outputs := registry.Dispatch(context.Background(), testToolContext(), status.ToolCalls)
	require.Len(t, outputs, 1)
	assert.JSONEq(t, `{"email":"a@b.com"}`, outputs[0].Output)
	require.Len(t, st.updates, 1)
	require.NotNil(t, st.updates[0].Email)
	assert.Equal(t, "a@b.com", *st.updates[0].Email)
}
