package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

// api performs authenticated requests against one provider's REST API.
type api struct {
	provider string
	baseURL  string
	client   *http.Client

	// authorize adds credentials to every request.
	authorize func(*http.Request)

	// errorDetail extracts message and code from an error body. A false
	// return keeps the raw body as the message.
	errorDetail func(body []byte) (message, code string, ok bool)
}

// call sends payload (JSON, or no body when nil) to path and returns the
// response body of a 200 reply. Any other status becomes an *APIError.
func (a *api) call(ctx context.Context, op, method, path string, payload any, accept string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, WrapError(a.provider, op, fmt.Errorf("marshal payload: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, WrapError(a.provider, op, fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, WrapError(a.provider, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.apiError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(a.provider, op, fmt.Errorf("read response: %w", err))
	}
	return data, nil
}

func (a *api) apiError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &APIError{Provider: a.provider, StatusCode: resp.StatusCode, Message: string(raw)}
	if a.errorDetail != nil {
		if msg, code, ok := a.errorDetail(raw); ok {
			e.Message, e.Code = msg, code
		}
	}
	return e
}
