package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const maxResponseBytes = 4 << 20

// envelope is the remote response wrapper:
// {success, data?, error?: {code, message, details?, retry_after_seconds?} | string}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type remoteError struct {
	Code              string          `json:"code"`
	Message           string          `json:"message"`
	Details           json.RawMessage `json:"details"`
	RetryAfterSeconds *float64        `json:"retry_after_seconds"`
}

// decodeResponse converts resp into out or a classified *Error. The status
// always comes from the transport response, never from the body.
func decodeResponse(resp *http.Response, out any) *Error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return invalidResponse(resp.StatusCode, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return invalidResponse(resp.StatusCode, err)
	}

	if !env.Success || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return envelopeError(resp.StatusCode, env.Error)
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return invalidResponse(resp.StatusCode, err)
	}
	return nil
}

func invalidResponse(status int, err error) *Error {
	return &Error{
		Code:    CodeInvalidResponse,
		Status:  status,
		Message: fmt.Sprintf("Invalid response from server (HTTP %d)", status),
		Err:     err,
	}
}

func envelopeError(status int, raw json.RawMessage) *Error {
	e := &Error{Code: CodeUnknown, Status: status, Message: "Request failed"}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return e
	}

	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			e.Message = s
		}
	case '{':
		var re remoteError
		if json.Unmarshal(raw, &re) != nil {
			return e
		}
		if re.Code != "" {
			e.Code = re.Code
		}
		if re.Message != "" {
			e.Message = re.Message
		}
		if d := bytes.TrimSpace(re.Details); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
			e.Details = json.RawMessage(d)
		}
		if re.RetryAfterSeconds != nil && *re.RetryAfterSeconds > 0 {
			e.RetryAfter = time.Duration(math.Ceil(*re.RetryAfterSeconds)) * time.Second
		}
	}
	return e
}
