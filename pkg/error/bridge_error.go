package error

import (
	"errors"
	"fmt"
	"net/http"
)

// BridgeError is raised when the bridge or Cloud API vendor returns a non-2xx
// response or the request itself fails. Code carries the vendor HTTP status
// (0 for transport failures) and Body the raw error payload so callers can
// pattern-match (e.g. 403 on instance create means "already exists").
type BridgeError struct {
	Message string
	Code    int
	Body    string
}

func NewBridgeError(message string, code int, body string) BridgeError {
	return BridgeError{Message: message, Code: code, Body: body}
}

func (err BridgeError) Error() string {
	if err.Code > 0 {
		return fmt.Sprintf("%s (status %d)", err.Message, err.Code)
	}
	return err.Message
}

func (err BridgeError) ErrCode() string {
	return "VENDOR_ERROR"
}

func (err BridgeError) StatusCode() int {
	return http.StatusInternalServerError
}

// AsBridgeError unwraps err into a BridgeError when possible.
func AsBridgeError(err error) (BridgeError, bool) {
	var be BridgeError
	ok := errors.As(err, &be)
	return be, ok
}
