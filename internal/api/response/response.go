package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response represents a standard API response
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ReplyError is the chat widget's error body: a machine code plus a reply
// that can be shown to the visitor as is
type ReplyError struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Reply      string `json:"reply"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	Raw(w, status, Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// Raw sends body as JSON without the standard envelope
func Raw(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, message any) {
	Raw(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// Reply sends a chat error. A positive retryAfter also sets the Retry-After header.
func Reply(w http.ResponseWriter, status int, code, reply string, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	Raw(w, status, ReplyError{
		Success:    false,
		Error:      code,
		Reply:      reply,
		RetryAfter: retryAfter,
	})
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message any) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(w http.ResponseWriter, message any) {
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(w http.ResponseWriter, message any) {
	Error(w, http.StatusForbidden, message)
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message any) {
	Error(w, http.StatusNotFound, message)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter, message any) {
	Error(w, http.StatusInternalServerError, message)
}
