package device

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/auth"
	"github.com/openbeelab/beemon/internal/telemetry"
)

// RegisterRoutes mounts device endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/devices", handler.createDevice)
	group.GET("/devices", handler.listDevices)
	group.GET("/devices/:deviceID", handler.getDevice)
	group.DELETE("/devices/:deviceID", handler.deleteDevice)
	group.GET("/devices/:deviceID/data.csv", handler.downloadCSV)
}

type httpHandler struct {
	service *Service
}

type createDeviceRequest struct {
	Name            string     `json:"name" binding:"required"`
	Key             string     `json:"key" binding:"required,max=100"`
	HiveID          *uuid.UUID `json:"hive_id" binding:"omitempty"`
	HardwareID      *string    `json:"hardware_id" binding:"omitempty,max=100"`
	FirmwareVersion *string    `json:"firmware_version" binding:"omitempty,max=50"`
}

func (h *httpHandler) createDevice(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), Device{
		OwnerID:         userID,
		HiveID:          req.HiveID,
		Name:            req.Name,
		Key:             req.Key,
		HardwareID:      req.HardwareID,
		FirmwareVersion: req.FirmwareVersion,
	})
	if err != nil {
		switch err {
		case ErrKeyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "device key already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create device"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listDevices(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	devices, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (h *httpHandler) getDevice(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deviceID, err := uuid.Parse(c.Param("deviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	d, err := h.service.Get(c.Request.Context(), userID, deviceID)
	if err != nil {
		if err == ErrDeviceNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch device"})
		return
	}

	c.JSON(http.StatusOK, d)
}

func (h *httpHandler) deleteDevice(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deviceID, err := uuid.Parse(c.Param("deviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, deviceID); err != nil {
		switch err {
		case ErrDeviceNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete device"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// excluded from CSV output; they carry series metadata, not measurements
var csvMetaColumns = map[string]struct{}{"sensor": {}, "key": {}}

func (h *httpHandler) downloadCSV(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deviceID, err := uuid.Parse(c.Param("deviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return
	}

	separator := c.DefaultQuery("separator", ";")
	var fields []string
	if raw := c.Query("measurements"); raw != "" && raw != "*" {
		fields = strings.Split(raw, ",")
	}

	set, err := h.service.Samples(c.Request.Context(), userID, deviceID, fields, from, to)
	if err != nil {
		switch {
		case err == ErrDeviceNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		case errors.Is(err, telemetry.ErrNoData):
			c.JSON(http.StatusNotFound, gin.H{"error": "no telemetry data in range"})
		case errors.Is(err, telemetry.ErrInvalidField):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement selection"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "telemetry store unavailable"})
		}
		return
	}

	body := renderCSV(set, separator)

	c.Header("Content-Disposition", `attachment; filename="device-data.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

func renderCSV(set telemetry.SampleSet, separator string) string {
	keep := make([]int, 0, len(set.Columns))
	header := make([]string, 0, len(set.Columns))
	for i, col := range set.Columns {
		if _, meta := csvMetaColumns[col]; meta {
			continue
		}
		keep = append(keep, i)
		header = append(header, `"`+col+`"`)
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, separator))
	b.WriteString("\r\n")

	for _, row := range set.Rows {
		cells := make([]string, 0, len(keep))
		for _, i := range keep {
			if i >= len(row) || row[i] == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprintf("%v", row[i]))
		}
		b.WriteString(strings.Join(cells, separator))
		b.WriteString("\r\n")
	}

	return b.String()
}
