package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/filetools/internal/units"
)

// UnitResponse describes one supported unit
type UnitResponse struct {
	Name       string `json:"name"`
	Multiplier int64  `json:"multiplier"`
}

// GetUnits handles GET /api/v1/units
func (c *Controller) GetUnits(ctx echo.Context) error {
	all := units.Units()
	resp := make([]UnitResponse, 0, len(all))
	for _, u := range all {
		m, _ := units.Multiplier(u)
		resp = append(resp, UnitResponse{Name: u.String(), Multiplier: m})
	}
	return ctx.JSON(http.StatusOK, resp)
}
