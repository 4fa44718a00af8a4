package kalshi_http

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidOrder is returned before any request is sent when an order is
// missing required fields.
var ErrInvalidOrder = errors.New("invalid order")

// ExchangeError is a non-2xx response from the exchange. It is recoverable:
// the calling engine logs it and moves on.
type ExchangeError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *ExchangeError) Error() string {
	msg := string(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("kalshi %s %s: status=%d body=%s", e.Method, e.Path, e.StatusCode, msg)
}

// IsExchangeError reports whether err carries an exchange response status.
func IsExchangeError(err error) (*ExchangeError, bool) {
	var xe *ExchangeError
	if errors.As(err, &xe) {
		return xe, true
	}
	return nil, false
}
