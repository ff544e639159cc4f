package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// ErrorHandlingOption options for error handling
type ErrorHandlingOption struct {
	Handler func(c echo.Context, err error)
}

// ErrorHandling recover panics and turn handler errors into uniform
// responses. Handlers downstream never see the error again
func ErrorHandling(options ...*ErrorHandlingOption) echo.MiddlewareFunc {
	var handler func(c echo.Context, err error)
	if len(options) > 0 && options[0].Handler != nil {
		handler = options[0].Handler
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if any := recover(); any != nil {
					err, ok := any.(error)
					if !ok {
						err = fmt.Errorf("%v", any)
					}
					if handler != nil {
						handler(c, err)
					}
				}
			}()
			if err := next(c); err != nil {
				if handler != nil {
					handler(c, err)
				}
			}
			return nil
		}
	}
}
