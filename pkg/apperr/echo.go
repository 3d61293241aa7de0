package apperr

import (
	"github.com/labstack/echo/v4"
)

// ToHTTP converts an error into an echo HTTPError using the kind's status
// code. Handlers return this directly so the error middleware logs and
// serializes a consistent shape.
func ToHTTP(err error) *echo.HTTPError {
	return echo.NewHTTPError(HTTPStatus(err), err.Error())
}
