package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// CoachingHandler serves the static coach and facility catalog.
type CoachingHandler struct {
	coachingService CoachingService
}

// NewCoachingHandler creates a CoachingHandler.
func NewCoachingHandler(coachingService CoachingService) *CoachingHandler {
	return &CoachingHandler{coachingService: coachingService}
}

// Coaches lists coaches
// @Summary      List coaches
// @Tags         coaching
// @Produce      json
// @Security     BearerAuth
// @Param        sport  query  string  false  "sport filter"
// @Success      200  {object}  response.Response{data=[]model.Coach}
// @Router       /coaching/coaches [get]
func (h *CoachingHandler) Coaches(c *gin.Context) {
	response.Success(c, h.coachingService.Coaches(c.Query("sport")))
}

// Facilities lists training facilities
// @Summary      List facilities
// @Tags         coaching
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Facility}
// @Router       /coaching/facilities [get]
func (h *CoachingHandler) Facilities(c *gin.Context) {
	response.Success(c, h.coachingService.Facilities())
}
