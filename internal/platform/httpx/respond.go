// Package httpx provides JSON response helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MessageBody is the envelope used for status and error responses. The
// dashboard SPA reads the message field verbatim.
type MessageBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends a {"message": ...} body with the given status code.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// ValidationFailed sends a 400 with the collected field messages.
func ValidationFailed(w http.ResponseWriter, messages []string) {
	JSON(w, http.StatusBadRequest, MessageBody{Message: "Validation failed", Errors: messages})
}

// DecodeJSON decodes the request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// ValidationMessages flattens a validator error into field messages.
func ValidationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+" failed on the '"+fe.Tag()+"' rule")
	}
	return messages
}
