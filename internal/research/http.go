package research

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/auth"
	"github.com/openbeelab/beemon/internal/consent"
)

// RegisterRoutes mounts research endpoints for authenticated users.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/research", handler.listResearch)
	group.GET("/research/:researchID", handler.getResearch)
	group.POST("/research/:researchID/consent", handler.recordConsent)
}

// RegisterAdminRoutes mounts study management and reporting endpoints.
func RegisterAdminRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/research", handler.createResearch)
	group.PUT("/research/:researchID", handler.updateResearch)
	group.DELETE("/research/:researchID", handler.deleteResearch)
	group.GET("/research/:researchID/users", handler.listGrantedUsers)
	group.GET("/research/:researchID/report", handler.report)
}

type httpHandler struct {
	service *Service
}

type researchRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    *string   `json:"description" binding:"omitempty,max=2000"`
	URL            *string   `json:"url" binding:"omitempty,url"`
	Institution    *string   `json:"institution" binding:"omitempty,max=255"`
	TypeOfDataUsed *string   `json:"type_of_data_used" binding:"omitempty,max=255"`
	StartDate      time.Time `json:"start_date" binding:"required"`
	EndDate        time.Time `json:"end_date" binding:"required"`
}

func (h *httpHandler) createResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), Research{
		Name:           req.Name,
		Description:    req.Description,
		URL:            req.URL,
		Institution:    req.Institution,
		TypeOfDataUsed: req.TypeOfDataUsed,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidDateRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end date must be after start date"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create research"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listResearch(c *gin.Context) {
	studies, err := h.service.List(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list research"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"research": studies})
}

func (h *httpHandler) getResearch(c *gin.Context) {
	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	res, err := h.service.Get(c.Request.Context(), researchID)
	if err != nil {
		if errors.Is(err, ErrResearchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch research"})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *httpHandler) updateResearch(c *gin.Context) {
	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), Research{
		ID:             researchID,
		Name:           req.Name,
		Description:    req.Description,
		URL:            req.URL,
		Institution:    req.Institution,
		TypeOfDataUsed: req.TypeOfDataUsed,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrResearchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
		case errors.Is(err, ErrInvalidDateRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "end date must be after start date"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update research"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) deleteResearch(c *gin.Context) {
	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), researchID); err != nil {
		if errors.Is(err, ErrResearchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete research"})
		return
	}

	c.Status(http.StatusNoContent)
}

type consentRequest struct {
	Consent *bool `json:"consent" binding:"required"`
}

func (h *httpHandler) recordConsent(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.service.RecordConsent(c.Request.Context(), researchID, userID, *req.Consent)
	if err != nil {
		switch {
		case errors.Is(err, ErrResearchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
		case errors.Is(err, consent.ErrEventConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "consent already recorded at this timestamp"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record consent"})
		}
		return
	}

	c.JSON(http.StatusCreated, ev)
}

func (h *httpHandler) listGrantedUsers(c *gin.Context) {
	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	users, err := h.service.GrantedUsers(c.Request.Context(), researchID)
	if err != nil {
		if errors.Is(err, ErrResearchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list consenting users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *httpHandler) report(c *gin.Context) {
	researchID, err := uuid.Parse(c.Param("researchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid research id"})
		return
	}

	var userIDs []uuid.UUID
	if raw := c.Query("user_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id in selection"})
				return
			}
			userIDs = append(userIDs, id)
		}
	}

	if c.Query("download") == "true" {
		artifact, err := h.service.Export(c.Request.Context(), researchID, userIDs)
		if err != nil {
			h.reportError(c, err)
			return
		}
		c.JSON(http.StatusOK, artifact)
		return
	}

	rep, err := h.service.Report(c.Request.Context(), researchID, userIDs)
	if err != nil {
		h.reportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"research_id": rep.ResearchID,
		"start_date":  rep.StartDate,
		"end_date":    rep.EndDate,
		"user_ids":    rep.UserIDs,
		"buckets":     rep.NewestFirst(),
	})
}

func (h *httpHandler) reportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrResearchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "research not found"})
	case errors.Is(err, ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "research has an invalid date range"})
	case errors.Is(err, ErrNoConsentingUsers):
		c.JSON(http.StatusNotFound, gin.H{"error": "no consenting users for research"})
	case errors.Is(err, ErrExportFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate export"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
	}
}
