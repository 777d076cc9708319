package middleware

import "github.com/labstack/echo/v4"

// Stage is one step of a request guard. A non-nil error stops the chain and
// is rendered by the HTTP error handler.
type Stage func(c echo.Context) error

// Pipeline runs stages in order before the handler.
func Pipeline(stages ...Stage) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, stage := range stages {
				if err := stage(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
