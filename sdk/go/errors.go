package slotsdk

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageOr returns the server supplied message carried by err, or fallback
// when the error has none (transport failures, bare status codes).
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// DetailedMessage is MessageOr followed by the validation detail list.
func DetailedMessage(err error, fallback string) string {
	msg := MessageOr(err, fallback)
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		return msg + " " + strings.Join(apiErr.Errors, ", ")
	}
	return msg
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

func detailStrings(items []json.RawMessage) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Msg     string `json:"msg"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			switch {
			case obj.Msg != "":
				out = append(out, obj.Msg)
				continue
			case obj.Message != "":
				out = append(out, obj.Message)
				continue
			}
		}
		out = append(out, string(item))
	}
	return out
}
