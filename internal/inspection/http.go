package inspection

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/auth"
)

// RegisterRoutes mounts inspection endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/inspections", handler.createInspection)
	group.GET("/inspections", handler.listInspections)
	group.GET("/inspections/:inspectionID", handler.getInspection)
	group.DELETE("/inspections/:inspectionID", handler.deleteInspection)
}

type httpHandler struct {
	service *Service
}

type createItemRequest struct {
	DefinitionID uuid.UUID `json:"definition_id" binding:"required"`
	Value        string    `json:"value" binding:"required"`
}

type createInspectionRequest struct {
	HiveID       *uuid.UUID          `json:"hive_id" binding:"omitempty"`
	Impression   *int                `json:"impression" binding:"omitempty,gte=-1,lte=5"`
	Attention    *int                `json:"attention" binding:"omitempty,gte=-1,lte=1"`
	Reminder     *string             `json:"reminder" binding:"omitempty,max=500"`
	ReminderDate *time.Time          `json:"reminder_date" binding:"omitempty"`
	Notes        *string             `json:"notes" binding:"omitempty,max=2000"`
	Items        []createItemRequest `json:"items" binding:"omitempty,dive"`
}

func (h *httpHandler) createInspection(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ins := Inspection{
		OwnerID:      userID,
		HiveID:       req.HiveID,
		Impression:   req.Impression,
		Attention:    req.Attention,
		Reminder:     req.Reminder,
		ReminderDate: req.ReminderDate,
		Notes:        req.Notes,
	}
	for _, item := range req.Items {
		ins.Items = append(ins.Items, Item{DefinitionID: item.DefinitionID, Value: item.Value})
	}

	created, err := h.service.Create(c.Request.Context(), ins)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create inspection"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listInspections(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inspections, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list inspections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inspections": inspections})
}

func (h *httpHandler) getInspection(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inspectionID, err := uuid.Parse(c.Param("inspectionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection id"})
		return
	}

	ins, err := h.service.Get(c.Request.Context(), userID, inspectionID)
	if err != nil {
		if err == ErrInspectionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "inspection not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inspection"})
		return
	}

	c.JSON(http.StatusOK, ins)
}

func (h *httpHandler) deleteInspection(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inspectionID, err := uuid.Parse(c.Param("inspectionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, inspectionID); err != nil {
		switch err {
		case ErrInspectionNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "inspection not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete inspection"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
