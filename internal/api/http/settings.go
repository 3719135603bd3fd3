package http

import (
	"net/http"

	"github.com/GriffinCanCode/menuterm/backend/internal/providers/settings"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// GetSettings returns the current settings
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

// UpdateSettings applies the fields present in the body to the current
// settings. Out-of-range values are clamped.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Invalid settings: "+err.Error())
		return
	}

	var bindErr error
	saved, err := h.settings.Modify(func(next *settings.Settings) error {
		bindErr = binding.JSON.BindBody(raw, next)
		return bindErr
	})
	if bindErr != nil {
		badRequest(c, "Invalid settings: "+bindErr.Error())
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SetPinned toggles whether the window stays open on focus loss
func (h *Handlers) SetPinned(c *gin.Context) {
	var req struct {
		Pinned *bool `json:"pinned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var (
		saved settings.Settings
		err   error
	)
	if saved, err = h.settings.SetPinned(*req.Pinned); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pinned":  saved.Pinned,
	})
}
