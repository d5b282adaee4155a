package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unimap/unimap/routing"
)

// RouteController proxies walking-route requests.
type RouteController struct {
	service *routing.Service
}

// NewRouteController creates a new RouteController instance.
func NewRouteController(service *routing.Service) *RouteController {
	return &RouteController{service: service}
}

// GetRoute answers GET /api/route/?start=lat,lng&end=lat,lng.
func (r *RouteController) GetRoute(ctx *gin.Context) {
	body, err := r.service.Route(ctx.Request.Context(), ctx.Query("start"), ctx.Query("end"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, routing.ErrMissingParameter) || errors.Is(err, routing.ErrInvalidCoordinate) {
			status = http.StatusBadRequest
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.Data(http.StatusOK, "application/json", body)
}
