package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/pesantrenhub/sppbill/internal/report/domain"
)

func (s *Server) GetArrearsReport(c *gin.Context) {
	classFilter := strings.TrimSpace(c.Query("class"))

	report, err := s.reportSvc.GetArrearsReport(c.Request.Context(), classFilter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetPeriodReport(c *gin.Context) {
	year, err := strconv.Atoi(strings.TrimSpace(c.Query("year")))
	if err != nil {
		AbortWithError(c, reportdomain.ErrInvalidPeriod)
		return
	}
	month, err := strconv.Atoi(strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, reportdomain.ErrInvalidPeriod)
		return
	}

	status := reportdomain.PeriodStatusFilter(strings.TrimSpace(c.DefaultQuery("status", "all")))
	classFilter := strings.TrimSpace(c.Query("class"))

	report, err := s.reportSvc.GetPeriodReport(c.Request.Context(), year, month, status, classFilter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
