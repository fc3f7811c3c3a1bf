package actions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/forgetree/forge"
)

// HTTPInput is the declared ActionDefinition.InputType for HTTPAction.
type HTTPInput struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// HTTPAction is a forge.Action that issues an HTTP request and commits the
// response status/body (ported from the teacher's tool.HTTPTool, collapsed
// from a generic Call(map) contract into Forge's typed ActionContext.Input).
type HTTPAction struct {
	client *http.Client
}

// NewHTTPAction creates an HTTPAction with a default client; request
// deadlines come entirely from the action-level timeout via ctx.
func NewHTTPAction() *HTTPAction {
	return &HTTPAction{client: &http.Client{}}
}

// RunAction implements forge.Action.
func (h *HTTPAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	input, ok := actx.Input.(HTTPInput)
	if !ok {
		return forge.ActionResponse{}, fmt.Errorf("actions: HTTPAction expects HTTPInput, got %T", actx.Input)
	}
	if input.URL == "" {
		return forge.ActionResponse{}, fmt.Errorf("actions: HTTPInput.URL is required")
	}

	method := strings.ToUpper(input.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if input.Body != "" {
		body = bytes.NewBufferString(input.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, input.URL, body)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: build request: %w", err)
	}
	for k, v := range input.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: read response body: %w", err)
	}

	return forge.ActionResponse{
		Status: "OK",
		Data: forge.FromGo(map[string]any{
			"status_code": resp.StatusCode,
			"body":        string(respBody),
		}),
	}, nil
}
