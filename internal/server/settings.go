package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
)

func (s *Server) GetFeeSettings(c *gin.Context) {
	settings, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if settings == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (s *Server) UpdateFeeSettings(c *gin.Context) {
	var req feesettingsdomain.UpdateFeeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	settings, err := s.settingsSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settings})
}
