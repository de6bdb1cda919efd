package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
)

// JSONSerializer decodes request bodies with json.Number for untyped values,
// so integers in uploaded documents survive beyond 2^53 unchanged.
type JSONSerializer struct {
	echo.DefaultJSONSerializer
}

// Deserialize reads the request body into i.
func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	return dec.Decode(i)
}
