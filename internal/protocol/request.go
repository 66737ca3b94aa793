package protocol

import (
	"context"
)

// Frame types of the control channel.
const (
	MessageTypeControlRequest       = "control_request"
	MessageTypeControlResponse      = "control_response"
	MessageTypeControlCancelRequest = "control_cancel_request"
)

// Control request subtypes.
const (
	SubtypeInitialize        = "initialize"
	SubtypeInterrupt         = "interrupt"
	SubtypeSetPermissionMode = "set_permission_mode"
	SubtypeSetModel          = "set_model"
	SubtypeCanUseTool        = "can_use_tool"
	SubtypeMCPMessage        = "mcp_message"
)

// ControlRequest is a control frame sent to, or received from, the CLI.
//
// Wire format:
//
//	{
//	  "type": "control_request",
//	  "request_id": "01J9Z3...",
//	  "request": {"subtype": "interrupt"}
//	}
type ControlRequest struct {
	Type string `json:"type"`

	// RequestID uniquely identifies this request for response correlation
	RequestID string `json:"request_id"` //nolint:tagliatelle // Claude CLI uses snake_case

	// Request holds the subtype and subtype-specific fields
	Request map[string]any `json:"request"`
}

// Subtype extracts the subtype from the nested request data.
func (r *ControlRequest) Subtype() string {
	if s, ok := r.Request["subtype"].(string); ok {
		return s
	}

	return ""
}

// ControlResponse is the reply to a control request.
//
// Wire format for success:
//
//	{
//	  "type": "control_response",
//	  "response": {"subtype": "success", "request_id": "01J9Z3...", "response": {...}}
//	}
//
// Wire format for error:
//
//	{
//	  "type": "control_response",
//	  "response": {"subtype": "error", "request_id": "01J9Z3...", "error": "message"}
//	}
type ControlResponse struct {
	Type     string         `json:"type"`
	Response map[string]any `json:"response"`
}

// IsError checks if the response is an error response.
func (r *ControlResponse) IsError() bool {
	s, _ := r.Response["subtype"].(string)

	return s == "error"
}

// ErrorMessage extracts the error message from an error response.
func (r *ControlResponse) ErrorMessage() string {
	e, _ := r.Response["error"].(string)

	return e
}

// Payload extracts the response payload from a success response.
func (r *ControlResponse) Payload() map[string]any {
	p, _ := r.Response["response"].(map[string]any)

	return p
}

// RequestID extracts the request_id from the nested response.
func (r *ControlResponse) RequestID() string {
	id, _ := r.Response["request_id"].(string)

	return id
}

// successResponse builds the reply to an incoming request handled without error.
func successResponse(requestID string, payload map[string]any) *ControlResponse {
	return &ControlResponse{
		Type: MessageTypeControlResponse,
		Response: map[string]any{
			"subtype":    "success",
			"request_id": requestID,
			"response":   payload,
		},
	}
}

// errorResponse builds the reply to an incoming request that failed.
func errorResponse(requestID, message string) *ControlResponse {
	return &ControlResponse{
		Type: MessageTypeControlResponse,
		Response: map[string]any{
			"subtype":    "error",
			"request_id": requestID,
			"error":      message,
		},
	}
}

// RequestHandler handles a control request sent by the CLI.
//
// The returned payload is wrapped in a success response; an error becomes an
// error response. ctx is cancelled when the CLI sends control_cancel_request
// for the same id or the controller stops.
type RequestHandler func(ctx context.Context, req *ControlRequest) (map[string]any, error)
