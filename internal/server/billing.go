package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
)

// RunBilling triggers the period gate + generator outside the scheduler,
// for operators and external cron.
func (s *Server) RunBilling(c *gin.Context) {
	result, err := s.generationSvc.CheckAndGenerateBills(c.Request.Context(), time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) CreateManualBill(c *gin.Context) {
	var req generationdomain.ManualBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	bill, err := s.generationSvc.GenerateManualBill(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": billView(bill)})
}

func (s *Server) ListBills(c *gin.Context) {
	studentID, err := snowflake.ParseString(strings.TrimSpace(c.Query("student_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	bills, err := s.ledgerSvc.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]gin.H, 0, len(bills))
	for _, bill := range bills {
		views = append(views, billView(bill))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

type applyPaymentRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) ApplyPayment(c *gin.Context) {
	billID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, billdomain.ErrBillNotFound)
		return
	}

	var req applyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	bill, err := s.ledgerSvc.ApplyPayment(c.Request.Context(), billID, req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": billView(bill)})
}

// billView decorates the stored bill with the derived settlement state the
// storage schema intentionally does not persist.
func billView(bill *billdomain.Bill) gin.H {
	state := string(bill.Status)
	if bill.Partial() {
		state = "partial"
	}
	return gin.H{
		"bill":          bill,
		"remaining":     bill.Remaining(),
		"derived_state": state,
	}
}
