package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/multipos/console/internal/domain/shared"
)

// envelope is the normalized top level of a response. The API answers
// either {success, data, summary, message} or a bare array/object.
type envelope struct {
	Data    json.RawMessage
	Summary json.RawMessage
	Message string
}

var listKeys = []string{"items", "rows", "records", "results", "data"}

func decodeEnvelope(req Request, body []byte) (envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || string(body) == "null" {
		return envelope{}, nil
	}
	if body[0] == '[' {
		return envelope{Data: body}, nil
	}

	f, err := shared.ParseFields(body)
	if err != nil {
		return envelope{}, fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
	}
	env := envelope{Message: f.String("message")}
	if f.Has("success") && !f.Bool("success") {
		code, msg, fields := extractError(body)
		if msg == "" {
			msg = "Request failed"
		}
		return env, &APIError{StatusCode: 200, Code: code, Message: msg, Method: req.Method, Path: req.Path, Fields: fields}
	}

	switch {
	case f.Has("data"):
		env.Data = f.Raw("data")
		env.Summary = f.Raw("summary")
	case f.Has("success"):
		// {success, message} with no payload, e.g. a delete confirmation.
		env.Summary = f.Raw("summary")
	default:
		env.Data = body
	}
	return env, nil
}

// fetchList runs req and decodes a list. keys name the property that holds
// the array when the payload is an object, e.g. {"companies": [...]}.
func fetchList[T any](ctx context.Context, c *Client, req Request, keys ...string) (shared.Page[T], error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return shared.Page[T]{}, err
	}
	env, err := decodeEnvelope(req, resp.Body)
	if err != nil {
		return shared.Page[T]{}, err
	}

	items, nestedSummary, err := decodeList[T](env.Data, keys)
	if err != nil {
		return shared.Page[T]{}, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	summary := env.Summary
	if isEmptyJSON(summary) {
		summary = nestedSummary
	}
	if isEmptyJSON(summary) {
		summary = nil
	}
	return shared.Page[T]{Data: items, Summary: summary}, nil
}

func decodeList[T any](data json.RawMessage, keys []string) ([]T, json.RawMessage, error) {
	items := []T{}
	if isEmptyJSON(data) {
		return items, nil, nil
	}
	if startsWith(data, '[') {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, nil, err
		}
		return items, nil, nil
	}

	f, err := shared.ParseFields(data)
	if err != nil {
		return nil, nil, err
	}
	for _, key := range append(append([]string{}, keys...), listKeys...) {
		raw := f.Raw(key)
		if !startsWith(raw, '[') {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, fmt.Errorf("decode %q: %w", key, err)
		}
		return items, f.Raw("summary"), nil
	}
	return nil, nil, fmt.Errorf("no list found in response object")
}

// fetchOne runs req and decodes a single record, unwrapping
// {"<key>": {...}} when the object sits under one of keys.
func fetchOne[T any](ctx context.Context, c *Client, req Request, keys ...string) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	env, err := decodeEnvelope(req, resp.Body)
	if err != nil {
		return out, err
	}
	if isEmptyJSON(env.Data) {
		return out, fmt.Errorf("%s %s: empty response", req.Method, req.Path)
	}

	data := env.Data
	if f, err := shared.ParseFields(data); err == nil {
		for _, key := range keys {
			if raw := f.Raw(key); startsWith(raw, '{') {
				data = raw
				break
			}
		}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}

// exec runs req and only checks for errors.
func exec(ctx context.Context, c *Client, req Request) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(req, resp.Body)
	return err
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func startsWith(raw json.RawMessage, c byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == c
}
