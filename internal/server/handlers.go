package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/invoice"
	"github.com/rezonia/fattura-processor/internal/model"
	xmlparser "github.com/rezonia/fattura-processor/internal/parser/xml"
)

func (s *Server) handleParse(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	fileName := uploadName(c)

	if c.Query("strict") == "true" {
		inv, err := xmlparser.Parse(body, fileName)
		if err != nil {
			writeError(c, err)
			return
		}
		_, warnings := xmlparser.Inspect(inv)
		c.JSON(http.StatusOK, newParseResponse(&model.ParseResult{
			Success:  true,
			Data:     inv,
			Errors:   []model.Issue{},
			Warnings: nonNil(warnings),
		}))
		return
	}

	result := xmlparser.ParseSafe(body, fileName)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, newParseResponse(result))
}

func newParseResponse(result *model.ParseResult) ParseResponse {
	resp := ParseResponse{
		Success:  result.Success,
		Invoice:  result.Data,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
	if result.Success && result.Data != nil {
		amounts := invoice.ComputeAmounts(result.Data)
		resp.Amounts = &amounts
		resp.Installments = invoice.ExtractInstallments(result.Data)
	}
	return resp
}

func (s *Server) handleValidate(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	result := xmlparser.ParseSafe(body, uploadName(c))
	c.JSON(http.StatusOK, ValidationResponse{
		Valid:    result.Success,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleImport(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result := s.pipeline.Import(ctx, body, uploadName(c))
	if result.Error != nil {
		writeError(c, result.Error)
		return
	}
	if !result.OK() {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	accountRef := req.DefaultAccountRef
	if accountRef == "" {
		accountRef = s.config.DefaultAccountRef
	}

	rec, err := s.matcher.CreateFromPayload(c.Request.Context(), req.SupplierPayload, accountRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleGetSupplier(c *gin.Context) {
	rec, err := s.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleClosureTotals(c *gin.Context) {
	var req ClosureTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	rate := s.config.VATRate
	if req.VATRate != nil {
		rate = *req.VATRate
	}

	c.JSON(http.StatusOK, closure.ComputeClosureTotals(req.Stations, req.Expenses, rate, s.totalsOptions()...))
}

func (s *Server) handlePostClosure(c *gin.Context) {
	var req PostClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	result, err := s.poster.Post(c.Request.Context(), &req.Closure, req.ActorID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PostClosureResponse{
		PostingResult: *result,
		Totals:        closure.Totals(&req.Closure, s.config.VATRate, s.totalsOptions()...),
	})
}

func (s *Server) handleListEntries(c *gin.Context) {
	closureID := c.Param("id")
	entries, err := s.poster.Entries(c.Request.Context(), closureID)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}

	c.JSON(http.StatusOK, EntriesResponse{
		ClosureID: closureID,
		Entries:   entries,
		Totals:    *closure.Summarize(entries),
	})
}

func (s *Server) handleReverseClosure(c *gin.Context) {
	closureID := c.Param("id")
	n, err := s.poster.Reverse(c.Request.Context(), closureID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"closure_id": closureID,
		"deleted":    n,
	})
}

// totalsOptions applies the configured threshold; zero keeps the default
func (s *Server) totalsOptions() []closure.TotalsOption {
	if s.config.DifferenceThreshold.IsZero() {
		return nil
	}
	return []closure.TotalsOption{closure.WithDifferenceThreshold(s.config.DifferenceThreshold)}
}

// Helper functions

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}
	return body, true
}

func uploadName(c *gin.Context) string {
	if name := c.Query("file_name"); name != "" {
		return name
	}
	return c.GetHeader("X-File-Name")
}

func nonNil(issues []model.Issue) []model.Issue {
	if issues == nil {
		return []model.Issue{}
	}
	return issues
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized
// is a 500 carrying the original message.
func writeError(c *gin.Context, err error) {
	var (
		perr *model.ParseError
		verr *model.ValidationError
	)

	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: perr.Message, Code: perr.Code, Details: perr.Path})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Details: verr.Field})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrDuplicateSupplier), errors.Is(err, model.ErrClosureAlreadyPosted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrEnvelopeNotSupported):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: err.Error()})
	default:
		l := requestLog(c)
		l.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
