package apiary

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/auth"
)

// RegisterRoutes mounts apiary endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/apiaries", handler.createApiary)
	group.GET("/apiaries", handler.listApiaries)
	group.GET("/apiaries/:apiaryID", handler.getApiary)
	group.DELETE("/apiaries/:apiaryID", handler.deleteApiary)
}

type httpHandler struct {
	service *Service
}

type createApiaryRequest struct {
	Name          string   `json:"name" binding:"required"`
	Type          string   `json:"type" binding:"omitempty,max=50"`
	CoordinateLat *float64 `json:"coordinate_lat" binding:"omitempty,gte=-90,lte=90"`
	CoordinateLon *float64 `json:"coordinate_lon" binding:"omitempty,gte=-180,lte=180"`
	Address       *string  `json:"address" binding:"omitempty,max=255"`
	PostalCode    *string  `json:"postal_code" binding:"omitempty,max=20"`
	City          *string  `json:"city" binding:"omitempty,max=100"`
	CountryCode   *string  `json:"country_code" binding:"omitempty,len=2"`
	Continent     *string  `json:"continent" binding:"omitempty,max=20"`
}

func (h *httpHandler) createApiary(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createApiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), Apiary{
		OwnerID:       userID,
		Name:          req.Name,
		Type:          req.Type,
		CoordinateLat: req.CoordinateLat,
		CoordinateLon: req.CoordinateLon,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		CountryCode:   req.CountryCode,
		Continent:     req.Continent,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create apiary"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listApiaries(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	apiaries, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list apiaries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"apiaries": apiaries})
}

func (h *httpHandler) getApiary(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	apiaryID, err := uuid.Parse(c.Param("apiaryID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid apiary id"})
		return
	}

	a, err := h.service.Get(c.Request.Context(), userID, apiaryID)
	if err != nil {
		if err == ErrApiaryNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "apiary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch apiary"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *httpHandler) deleteApiary(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	apiaryID, err := uuid.Parse(c.Param("apiaryID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid apiary id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, apiaryID); err != nil {
		switch err {
		case ErrApiaryNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "apiary not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete apiary"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
