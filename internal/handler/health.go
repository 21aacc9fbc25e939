package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health serves GET /healthz for load balancers and orchestration
// probes.  It reports process liveness only; the stores surface their
// own failures as StoreUnavailable on real requests.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
