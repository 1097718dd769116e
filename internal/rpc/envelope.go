package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version carried by every envelope.
const Version = "2.0"

// JSON-RPC 2.0 error codes.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32004
)

// Request is a JSON-RPC 2.0 request. ID keeps the raw JSON so it can be
// echoed with its original type; it is nil when the member was absent.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a successful JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

// ErrorResponse is a failed JSON-RPC 2.0 response.
type ErrorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *Error          `json:"error"`
}

// Error is a JSON-RPC error object. It also implements error so handlers can
// return a specific code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewError returns an Error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewResponse builds a success envelope.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(id json.RawMessage, code int, message string) *ErrorResponse {
	return &ErrorResponse{JSONRPC: Version, ID: id, Error: NewError(code, message)}
}

// EncodeError returns the encoded error envelope. Transports use it for
// failures that never reach the dispatcher.
func EncodeError(id json.RawMessage, code int, message string) []byte {
	b, _ := json.Marshal(NewErrorResponse(id, code, message))
	return b
}
