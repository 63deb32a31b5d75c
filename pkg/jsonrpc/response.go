package jsonrpc

import (
	"encoding/json"

	"github.com/agentwire/a2a/pkg/errors"
)

type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

// NewResponse wraps a result in a response mirroring the request id.
func NewResponse(id json.RawMessage, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse wraps an RpcError in a response mirroring the request id.
func NewErrorResponse(id json.RawMessage, e *errors.RpcError) Response {
	if e == nil {
		e = errors.ErrInternal
	}

	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   e,
	}
}
