package httpapi

import (
	"net/http"
	"strconv"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/service"

	"github.com/gin-gonic/gin"
)

// pointFromQuery reads optional lat/lon. Both or neither must be given.
func pointFromQuery(c *gin.Context) (*service.Point, error) {
	latStr, hasLat := c.GetQuery("lat")
	lonStr, hasLon := c.GetQuery("lon")
	if !hasLat && !hasLon {
		return nil, nil
	}
	if hasLat != hasLon {
		return nil, apperr.InvalidInput("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, apperr.InvalidInput("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, apperr.InvalidInput("lon must be a number")
	}
	return &service.Point{Lat: lat, Lon: lon}, nil
}

func (h *handler) listEstablishments(c *gin.Context) {
	at, err := pointFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.Establishments.List(c.Request.Context(), at)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) searchEstablishments(c *gin.Context) {
	at, err := pointFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.Establishments.Search(c.Request.Context(), c.Query("query"), at)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) getEstablishment(c *gin.Context) {
	e, err := h.Establishments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *handler) getMenu(c *gin.Context) {
	menu, err := h.Establishments.Menu(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}
