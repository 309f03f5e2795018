package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultModel = "gpt-4o"

// OpenAIClient implements Provider against the OpenAI Assistants v2 API.
// One shared instance (with its connection pool) serves all requests.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient creates the shared provider client. baseURL is typically
// "https://api.openai.com/v1"; override it to point at a compatible gateway.
func NewOpenAIClient(apiKey, baseURL string, log zerolog.Logger) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   defaultModel,
		// Individual calls are short (polling, message append); run duration
		// is bounded by the runner's deadline, not per-request timeouts.
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "openai").Logger(),
	}
}

type assistantObject struct {
	ID string `json:"id"`
}

type threadObject struct {
	ID string `json:"id"`
}

type fileObject struct {
	ID string `json:"id"`
}

type runObject struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	RequiredAction *struct {
		SubmitToolOutputs struct {
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name string `json:"name"`
					// The API serializes arguments as a JSON-encoded string,
					// not an embedded object.
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value       string `json:"value"`
				Annotations []struct {
					Text         string `json:"text"`
					FileCitation *struct {
						FileID string `json:"file_id"`
						Quote  string `json:"quote"`
					} `json:"file_citation"`
				} `json:"annotations"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// doJSON performs one authenticated JSON request and decodes the response
// into out (when out is non-nil).
func (c *OpenAIClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *OpenAIClient) CreateAssistant(ctx context.Context, name, instructions string) (string, error) {
	body := map[string]any{
		"name":         name,
		"instructions": instructions,
		"model":        c.model,
		"tools": []map[string]any{
			{"type": "file_search"},
			{
				"type": "function",
				"function": map[string]any{
					"name":        ToolSaveContactDetails,
					"description": "Save the customer's contact details as they are shared",
					"parameters": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]string{"type": "string"},
							"email": map[string]string{"type": "string"},
							"phone": map[string]string{"type": "string"},
						},
					},
				},
			},
		},
	}
	var out assistantObject
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", body, &out); err != nil {
		return "", err
	}
	c.log.Info().Str("assistant_id", out.ID).Msg("assistant created")
	return out.ID, nil
}

func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	var out threadObject
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *OpenAIClient) UploadKnowledgeFile(ctx context.Context, filename string, content []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload file: unexpected status %d", resp.StatusCode)
	}

	var out fileObject
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.ID, nil
}

// Submit appends the user's message to the thread and starts a run.
func (c *OpenAIClient) Submit(ctx context.Context, threadID, assistantID, text string) (RunHandle, error) {
	msgBody := map[string]string{"role": "user", "content": text}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/messages", msgBody, nil); err != nil {
		return RunHandle{}, fmt.Errorf("append message: %w", err)
	}

	var run runObject
	runBody := map[string]string{"assistant_id": assistantID}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/runs", runBody, &run); err != nil {
		return RunHandle{}, fmt.Errorf("start run: %w", err)
	}
	return RunHandle{ThreadID: threadID, RunID: run.ID}, nil
}

func (c *OpenAIClient) Poll(ctx context.Context, h RunHandle) (RunStatus, error) {
	var run runObject
	path := "/threads/" + h.ThreadID + "/runs/" + h.RunID
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &run); err != nil {
		return RunStatus{}, err
	}

	status := RunStatus{State: RunState(run.Status)}
	if status.State == RunRequiresAction && run.RequiredAction != nil {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			status.ToolCalls = append(status.ToolCalls, ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: json.RawMessage(call.Function.Arguments),
			})
		}
	}
	return status, nil
}

func (c *OpenAIClient) ResolveTools(ctx context.Context, h RunHandle, outputs []ToolOutput) (RunHandle, error) {
	body := map[string]any{"tool_outputs": make([]map[string]string, 0, len(outputs))}
	submissions := body["tool_outputs"].([]map[string]string)
	for _, o := range outputs {
		submissions = append(submissions, map[string]string{
			"tool_call_id": o.CallID,
			"output":       o.Output,
		})
	}
	body["tool_outputs"] = submissions

	path := "/threads/" + h.ThreadID + "/runs/" + h.RunID + "/submit_tool_outputs"
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return RunHandle{}, err
	}
	return h, nil
}

func (c *OpenAIClient) FetchReplies(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	path := fmt.Sprintf("/threads/%s/messages?limit=%d&order=desc", threadID, limit)
	var list messageList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	messages := make([]ThreadMessage, 0, len(list.Data))
	for _, m := range list.Data {
		msg := ThreadMessage{Role: m.Role}
		for _, block := range m.Content {
			if block.Type != "text" {
				continue
			}
			if msg.Text != "" {
				msg.Text += "\n"
			}
			msg.Text += block.Text.Value
			for _, a := range block.Text.Annotations {
				ann := Annotation{Marker: a.Text}
				if a.FileCitation != nil {
					ann.Excerpt = a.FileCitation.Quote
					ann.Source = a.FileCitation.FileID
				}
				msg.Annotations = append(msg.Annotations, ann)
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
