package registry

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	reqctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/registry"
)

// Register registers registry routes
func Register(g *echo.Group) {
	g.GET("/registry", GetRegistry)
	g.POST("/registry/refresh", RefreshRegistry)
}

// GetRegistry describes the active snapshot
func GetRegistry(c echo.Context) error {
	ctx := c.Request().Context()

	_, store, err := ectoinject.GetContext[*registry.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	snapshot, err := store.Current()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot.Info())
}

// RefreshRegistry reloads the registry; the previous snapshot stays active on failure
func RefreshRegistry(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, store, err := ectoinject.GetContext[*registry.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, logger, err := ectoinject.GetContext[ectologger.Logger](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	logger.WithContext(ctx).WithField("user_id", reqctx.GetUserID(ctx)).Info("Registry refresh requested")

	snapshot, err := store.Refresh(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot.Info())
}
