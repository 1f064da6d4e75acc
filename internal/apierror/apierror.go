// Package apierror replaces huma's default problem-details errors with the
// flat {"message": "..."} body the API clients expect.
package apierror

import (
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	status  int
	Message string   `json:"message" doc:"Human readable error message"`
	Errors  []string `json:"errors,omitempty" doc:"Validation details, when any"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) GetStatus() int {
	return e.status
}

// New builds an Error. Schema validation failures (422) are reported as 400
// so that every malformed request shares one status.
func New(status int, message string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) == 0 {
		details = nil
	}
	return &Error{status: status, Message: message, Errors: details}
}

var once sync.Once

// Install makes huma build every error through New.
func Install() {
	once.Do(func() {
		huma.NewError = New
	})
}
