// Package response holds the JSON shapes the handlers reply with and
// helpers for building them.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Message is a plain success or failure notice.
type Message struct {
	Message string `json:"message"`
}

// Error carries a single error string.
type Error struct {
	Error string `json:"error"`
}

// Failure is a failure notice with the underlying detail attached.
type Failure struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Availability reports whether an email can be registered.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Msg builds a Message.
func Msg(msg string) Message {
	return Message{Message: msg}
}

// Err builds an Error.
func Err(msg string) Error {
	return Error{Error: msg}
}

// Fail builds a Failure out of a notice and the error behind it.
func Fail(msg string, err error) Failure {
	return Failure{Message: msg, Detail: err.Error()}
}

// Available builds an Availability.
func Available(available bool, msg string) Availability {
	return Availability{Available: available, Message: msg}
}

// ValidationError joins the violations into one human-readable error.
func ValidationError(errs validator.ValidationErrors) Error {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error{Error: strings.Join(errsMsgs, ", ")}
}
