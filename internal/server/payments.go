package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payrelay/internal/observability/logger"
	"github.com/smallbiznis/payrelay/internal/payment/domain"
	"github.com/smallbiznis/payrelay/internal/providers/cpi"
	"go.uber.org/zap"
)

// submitResponse is the acknowledgement contract for POST /payments. Callers
// key on Status and Created; Message is informational only.
type submitResponse struct {
	Status      string `json:"status"`
	Reference   string `json:"reference,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	Message     string `json:"message"`
	Created     bool   `json:"created"`
	CPIHTTPCode int    `json:"cpi_http_code,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// SubmitPayment validates the inbound instruction, records it exactly once
// per reference and optionally relays it downstream. Duplicate references
// are acknowledged with the original request id and created=false.
func (s *Server) SubmitPayment(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, submitResponse{
			Status:  "ERROR",
			Message: "Validation Error: unreadable request body.",
		})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.obsMetrics.RecordValidationFailure(ctx, "malformed_body")
		c.JSON(http.StatusBadRequest, submitResponse{
			Status:  "ERROR",
			Message: "Validation Error: request body is not valid JSON.",
		})
		return
	}

	if missing := s.missingFields(payload); len(missing) > 0 {
		s.obsMetrics.RecordValidationFailure(ctx, "missing_fields")
		c.JSON(http.StatusBadRequest, submitResponse{
			Status:  "ERROR",
			Message: fmt.Sprintf("Validation Error: Missing required fields: %s.", strings.Join(missing, ", ")),
		})
		return
	}

	amount, ok := parseAmount(payload["amount"])
	if !ok || amount <= 0 {
		s.obsMetrics.RecordValidationFailure(ctx, "invalid_amount")
		c.JSON(http.StatusBadRequest, submitResponse{
			Status:  "FAILED",
			Message: "Validation Error: Amount must be positive.",
		})
		return
	}

	reference := stringField(payload, "reference")
	if reference == "" {
		reference = stringField(payload, "invoice")
	}

	result, err := s.paymentSvc.Record(ctx, domain.SubmitPayment{
		Reference:         reference,
		VendorID:          stringField(payload, "vendorId"),
		Amount:            amount,
		Currency:          stringField(payload, "currency"),
		CompanyCode:       stringField(payload, "companyCode"),
		PayerAccount:      stringField(payload, "payerAccount"),
		PayerIFSC:         stringField(payload, "payerIfsc"),
		VendorBankAccount: stringField(payload, "vendorBankAccount"),
		VendorIFSC:        stringField(payload, "vendorIfsc"),
		CardNumber:        stringField(payload, "cardNumber"),
		DueDate:           stringField(payload, "dueDate"),
		RawPayload:        body,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, submitResponse{
				Status:    "FAILED",
				Reference: reference,
				Message:   "Payment store unavailable. Retry the submission.",
			})
		case errors.Is(err, domain.ErrInsertFailed):
			c.JSON(http.StatusInternalServerError, submitResponse{
				Status:    "FAILED",
				Reference: reference,
				Message:   "Payment could not be recorded.",
			})
		default:
			AbortWithError(c, err)
		}
		return
	}

	if result.Created && s.forwarder.Enabled() {
		if _, fwdErr := s.forwarder.Forward(ctx, body); fwdErr != nil {
			var fe *cpi.ForwardError
			if !errors.As(fwdErr, &fe) {
				fe = &cpi.ForwardError{Detail: fwdErr.Error()}
			}
			s.obsMetrics.RecordForwardFailure(ctx, fe.StatusCode)
			log.Warn("payment recorded but downstream forward failed",
				zap.String("reference", reference),
				zap.String("request_id", result.RequestID.String()),
				zap.Int("cpi_http_code", fe.StatusCode),
			)
			c.JSON(http.StatusBadGateway, submitResponse{
				Status:      "FAILED",
				Reference:   reference,
				RequestID:   result.RequestID.String(),
				Message:     "Payment recorded but downstream forward failed.",
				Created:     true,
				CPIHTTPCode: fe.StatusCode,
				ErrorDetail: fe.Detail,
			})
			return
		}
		if err := s.paymentSvc.MarkForwarded(ctx, result.RequestID); err != nil {
			log.Warn("failed to mark payment as forwarded",
				zap.String("request_id", result.RequestID.String()),
				zap.Error(err),
			)
		}
	}

	s.obsMetrics.RecordPayment(ctx, result.Created)

	message := "Payment request accepted."
	if !result.Created {
		message = "Payment request already recorded for this reference."
	}

	c.JSON(http.StatusAccepted, submitResponse{
		Status:    "ACCEPTED",
		Reference: reference,
		RequestID: result.RequestID.String(),
		Message:   message,
		Created:   result.Created,
	})
}

// GetPaymentByRequestID returns the stored record for a previously accepted
// submission.
func (s *Server) GetPaymentByRequestID(c *gin.Context) {
	record, err := s.paymentSvc.GetByRequestID(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

type settlementRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	UTR       string `json:"utr"`
}

// ReceiveSettlementConfirmation applies a downstream settlement report onto
// the matching record.
func (s *Server) ReceiveSettlementConfirmation(c *gin.Context) {
	var req settlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.paymentSvc.ApplySettlement(c.Request.Context(), domain.SettlementConfirmation{
		Reference: req.Reference,
		Status:    req.Status,
		UTR:       req.UTR,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordSettlement(c.Request.Context(), string(record.Status))

	c.JSON(http.StatusOK, gin.H{
		"status":         "ACKNOWLEDGED",
		"reference":      record.Reference,
		"request_id":     record.RequestID.String(),
		"payment_status": record.Status,
	})
}

// missingFields reports the required submission keys absent from the
// payload. invoice and reference are interchangeable identifiers.
func (s *Server) missingFields(payload map[string]any) []string {
	var missing []string
	for _, field := range []string{"vendorId", "amount", "currency"} {
		if !hasField(payload, field) {
			missing = append(missing, field)
		}
	}
	if !hasField(payload, "invoice") && !hasField(payload, "reference") {
		missing = append(missing, "invoice")
	}
	if s.cfg.CompanyCodeRequired && !hasField(payload, "companyCode") {
		missing = append(missing, "companyCode")
	}
	return missing
}

func hasField(payload map[string]any, key string) bool {
	v, ok := payload[key]
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
		return false
	}
	return true
}

func stringField(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// parseAmount accepts the numeric forms callers actually send. Anything
// non-numeric fails validation rather than defaulting to zero.
func parseAmount(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
