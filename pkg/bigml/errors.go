package bigml

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrNoCredentials = errors.New("BigML credentials not found: set BIGML_USERNAME and BIGML_API_KEY or use --username and --api-key")

// APIError is returned when the API answers with an unexpected HTTP code.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Code       int
	Message    string
}

func NewAPIError(method string, url string, statusCode int, body []byte) *APIError {
	message := gjson.GetBytes(body, "status.message").String()
	if message == "" {
		message = string(body)
	}
	return &APIError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Code:       int(gjson.GetBytes(body, "status.code").Int()),
		Message:    message,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// FaultyResourceError is returned when a resource reaches the faulty status.
type FaultyResourceError struct {
	ResourceID string
	Message    string
}

func (e *FaultyResourceError) Error() string {
	return fmt.Sprintf("%s is faulty: %s", e.ResourceID, e.Message)
}

// ErrorMessage renders err as the message shown on exit, prefixed by msg.
func ErrorMessage(msg string, err error) string {
	var faulty *FaultyResourceError
	if errors.As(err, &faulty) {
		return msg + faulty.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return msg + apiErr.Message
	}
	return msg + err.Error()
}
