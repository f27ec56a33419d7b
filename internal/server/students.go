package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"github.com/pesantrenhub/sppbill/pkg/db/pagination"
)

func (s *Server) ListStudents(c *gin.Context) {
	filter := studentdomain.ListStudentFilter{
		Class:      strings.TrimSpace(c.Query("class")),
		ActiveOnly: c.Query("active") == "true",
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	students, pageInfo, err := s.studentSvc.ListPage(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": students, "page_info": pageInfo})
}

func (s *Server) GetStudent(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, studentdomain.ErrNotFound)
		return
	}

	student, err := s.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": student})
}

func (s *Server) CreateStudent(c *gin.Context) {
	var req studentdomain.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	student, err := s.studentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": student})
}
