package graph

import (
	"encoding/json"
	"fmt"
)

// Error is a Graph API error response.
// https://developers.facebook.com/docs/graph-api/guides/error-handling
type Error struct {
	StatusCode  int    `json:"-"`
	Code        int    `json:"code"`
	Subcode     int    `json:"error_subcode,omitempty"`
	Type        string `json:"type,omitempty"`
	Message     string `json:"message"`
	UserTitle   string `json:"error_user_title,omitempty"`
	UserMessage string `json:"error_user_msg,omitempty"`
	FBTraceID   string `json:"fbtrace_id,omitempty"`
	RawBody     string `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "graph: <nil>"
	}
	msg := fmt.Sprintf("graph: (#%d) %s", e.Code, e.Message)
	if e.Subcode != 0 {
		msg += fmt.Sprintf(" [subcode %d]", e.Subcode)
	}
	if e.UserMessage != "" {
		msg += ": " + e.UserMessage
	}
	return msg
}

// IsCode reports whether the error carries the given Graph error code.
func (e *Error) IsCode(code int) bool {
	return e != nil && e.Code == code
}

// Detail is the most useful human-readable message.
func (e *Error) Detail() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &Error{StatusCode: status, Message: fmt.Sprintf("unexpected HTTP %d", status), RawBody: string(body)}
	}
	envelope.Error.StatusCode = status
	envelope.Error.RawBody = string(body)
	return envelope.Error
}
