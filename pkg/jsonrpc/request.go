package jsonrpc

import "encoding/json"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // accepts string | integer | null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}
