package jsonrpc

import (
	"bytes"
	"encoding/json"

	"github.com/agentwire/a2a/pkg/errors"
)

// Version is the only JSON-RPC protocol version this package speaks.
const Version = "2.0"

// A2A method names carried over the JSON-RPC transport.
const (
	MethodMessageSend       = "message/send"
	MethodMessageStream     = "message/stream"
	MethodTasksGet          = "tasks/get"
	MethodTasksCancel       = "tasks/cancel"
	MethodTasksResubscribe  = "tasks/resubscribe"
	MethodPushConfigSet     = "tasks/pushNotificationConfig/set"
	MethodPushConfigGet     = "tasks/pushNotificationConfig/get"
	MethodPushConfigList    = "tasks/pushNotificationConfig/list"
	MethodPushConfigDelete  = "tasks/pushNotificationConfig/delete"
	MethodAgentExtendedCard = "agent/getAuthenticatedExtendedCard"
)

// StreamingMethod reports whether a method produces an SSE response.
func StreamingMethod(method string) bool {
	return method == MethodMessageStream || method == MethodTasksResubscribe
}

/*
ValidateRequest checks the structural rules of a JSON-RPC 2.0 request:
the version marker must be "2.0", the id must be a string, an integer or
null, the method must be a non-empty string, and params, when present, must
be an object without empty-string keys.
*/
func ValidateRequest(req *Request) *errors.RpcError {
	if req.JSONRPC != Version {
		return errors.ErrInvalidRequest.WithMessagef("jsonrpc must be %q", Version)
	}

	if rpcErr := validateID(req.ID); rpcErr != nil {
		return rpcErr
	}

	if req.Method == "" {
		return errors.ErrInvalidRequest.WithMessagef("method must be a non-empty string")
	}

	if rpcErr := validateParams(req.Params); rpcErr != nil {
		return rpcErr
	}

	return nil
}

func validateID(id json.RawMessage) *errors.RpcError {
	if len(id) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(id)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return errors.ErrInvalidRequest.WithMessagef("id must be a string, an integer or null")
		}
		return nil
	}

	// Numbers must be integers: a fractional id is rejected.
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return errors.ErrInvalidRequest.WithMessagef("id must be a string, an integer or null")
	}
	if _, err := n.Int64(); err != nil {
		return errors.ErrInvalidRequest.WithMessagef("id must be a string, an integer or null")
	}

	return nil
}

func validateParams(params json.RawMessage) *errors.RpcError {
	if len(params) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(params)
	if bytes.Equal(trimmed, []byte("null")) {
		return errors.ErrInvalidRequest.WithMessagef("params must be an object")
	}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.ErrInvalidRequest.WithMessagef("params must be an object")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return errors.ErrInvalidRequest.WithMessagef("params must be an object")
	}

	for key := range obj {
		if key == "" {
			return errors.ErrInvalidRequest.WithMessagef("params keys must be non-empty strings")
		}
	}

	return nil
}
