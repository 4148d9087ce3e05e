package hive

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/auth"
)

// RegisterRoutes mounts hive endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/hives", handler.createHive)
	group.GET("/hives", handler.listHives)
	group.GET("/hives/:hiveID", handler.getHive)
	group.DELETE("/hives/:hiveID", handler.deleteHive)
}

type httpHandler struct {
	service *Service
}

type createHiveRequest struct {
	Name        string     `json:"name" binding:"required"`
	ApiaryID    *uuid.UUID `json:"apiary_id" binding:"omitempty"`
	Type        string     `json:"type" binding:"omitempty,max=50"`
	Color       *string    `json:"color" binding:"omitempty,max=20"`
	BroodLayers int        `json:"brood_layers" binding:"omitempty,gte=0"`
	HoneyLayers int        `json:"honey_layers" binding:"omitempty,gte=0"`
	FrameCount  int        `json:"frame_count" binding:"omitempty,gte=0"`
}

func (h *httpHandler) createHive(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createHiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), Hive{
		OwnerID:     userID,
		ApiaryID:    req.ApiaryID,
		Name:        req.Name,
		Type:        req.Type,
		Color:       req.Color,
		BroodLayers: req.BroodLayers,
		HoneyLayers: req.HoneyLayers,
		FrameCount:  req.FrameCount,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create hive"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listHives(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hives, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list hives"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hives": hives})
}

func (h *httpHandler) getHive(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hiveID, err := uuid.Parse(c.Param("hiveID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hive id"})
		return
	}

	found, err := h.service.Get(c.Request.Context(), userID, hiveID)
	if err != nil {
		if err == ErrHiveNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "hive not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch hive"})
		return
	}

	c.JSON(http.StatusOK, found)
}

func (h *httpHandler) deleteHive(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hiveID, err := uuid.Parse(c.Param("hiveID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hive id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, hiveID); err != nil {
		switch err {
		case ErrHiveNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "hive not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete hive"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
