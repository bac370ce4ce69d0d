package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// intParam parses a numeric path parameter; malformed values fall through to a
// 404 rather than a 400 so probing ids and probing paths look the same.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// optIntQuery returns nil when the query parameter is absent or malformed.
func optIntQuery(ctx echo.Context, name string) *int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
