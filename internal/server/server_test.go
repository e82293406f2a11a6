package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	accountrepo "github.com/smallbiznis/payrelay/internal/account/repository"
	accountservice "github.com/smallbiznis/payrelay/internal/account/service"
	"github.com/smallbiznis/payrelay/internal/clock"
	"github.com/smallbiznis/payrelay/internal/config"
	"github.com/smallbiznis/payrelay/internal/observability"
	paymentrepo "github.com/smallbiznis/payrelay/internal/payment/repository"
	paymentservice "github.com/smallbiznis/payrelay/internal/payment/service"
	"github.com/smallbiznis/payrelay/internal/providers/cpi"
	"github.com/smallbiznis/payrelay/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ackBody struct {
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	RequestID   string `json:"request_id"`
	Message     string `json:"message"`
	Created     bool   `json:"created"`
	CPIHTTPCode int    `json:"cpi_http_code"`
	ErrorDetail string `json:"error_detail"`
}

type fixture struct {
	engine *gin.Engine
	db     *gorm.DB
	node   *snowflake.Node
}

func newFixture(t *testing.T, cfg config.Config, forwarder cpi.Forwarder) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:srvdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE payment_requests (
			request_id BIGINT PRIMARY KEY,
			reference TEXT NOT NULL,
			vendor_id TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL,
			company_code TEXT,
			status TEXT NOT NULL,
			payer_account TEXT,
			payer_ifsc TEXT,
			vendor_bank_account TEXT,
			vendor_ifsc TEXT,
			card_number TEXT,
			due_date TEXT,
			utr TEXT,
			raw_payload TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payment_requests_reference ON payment_requests(reference)`,
		`CREATE TABLE accounts (
			id BIGINT PRIMARY KEY,
			type TEXT NOT NULL,
			acc_no TEXT NOT NULL,
			holder_name TEXT NOT NULL,
			bank_name TEXT,
			ifsc TEXT,
			currency TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_accounts_type_acc_no ON accounts(type, acc_no)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  paymentrepo.Provide(),
	})
	accountSvc := accountservice.New(accountservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: accountrepo.Provide(),
	})

	if forwarder == nil {
		forwarder = cpi.NewClient(cpi.Config{}, zap.NewNop())
	}

	engine := server.NewEngine(observability.Config{LogLevel: "info"})
	server.NewServer(server.ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		DB:         db,
		GenID:      node,
		PaymentSvc: paymentSvc,
		AccountSvc: accountSvc,
		Forwarder:  forwarder,
	})

	return &fixture{engine: engine, db: db, node: node}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	var raw map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	}
	return rec, raw
}

func (f *fixture) submit(t *testing.T, body string) (*httptest.ResponseRecorder, ackBody) {
	t.Helper()

	rec, _ := f.do(t, http.MethodPost, "/payments", body)
	var ack ackBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	return rec, ack
}

func TestSubmitPaymentIdempotentResubmit(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	payload := `{"vendorId":"V1","invoice":"INV-100","amount":250.00,"currency":"INR"}`

	rec, first := f.submit(t, payload)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ACCEPTED", first.Status)
	assert.Equal(t, "INV-100", first.Reference)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.RequestID)

	rec, second := f.submit(t, payload)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ACCEPTED", second.Status)
	assert.False(t, second.Created)
	assert.Equal(t, first.RequestID, second.RequestID)

	var count int64
	require.NoError(t, f.db.Raw("SELECT COUNT(1) FROM payment_requests").Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitPaymentRejectsInvalidAmount(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	rec, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-101","amount":-10,"currency":"INR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FAILED", ack.Status)
	assert.Contains(t, ack.Message, "Amount")

	for _, amount := range []string{"0", "-5"} {
		rec, ack := f.submit(t, fmt.Sprintf(`{"vendorId":"V1","invoice":"INV-101","amount":%s,"currency":"INR"}`, amount))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FAILED", ack.Status)
	}

	rec, ack = f.submit(t, `{"vendorId":"V1","invoice":"INV-102","amount":0.01,"currency":"INR"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ACCEPTED", ack.Status)
}

func TestSubmitPaymentMissingFields(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	rec, ack := f.submit(t, `{"amount":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERROR", ack.Status)
	assert.Contains(t, ack.Message, "vendorId")
	assert.Contains(t, ack.Message, "currency")
	assert.Contains(t, ack.Message, "invoice")
	assert.NotContains(t, ack.Message, "amount")
}

func TestSubmitPaymentCompanyCodeRequired(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay", CompanyCodeRequired: true}, nil)

	rec, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-110","amount":10,"currency":"INR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERROR", ack.Status)
	assert.Contains(t, ack.Message, "companyCode")

	rec, ack = f.submit(t, `{"vendorId":"V1","invoice":"INV-110","amount":10,"currency":"INR","companyCode":"C9"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ACCEPTED", ack.Status)
}

func TestSubmitPaymentReferenceOverridesInvoice(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	rec, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-120","reference":"REF-120","amount":10,"currency":"INR"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "REF-120", ack.Reference)
}

func TestGetPaymentReadBack(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	_, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-130","amount":42.50,"currency":"INR"}`)

	rec, body := f.do(t, http.MethodGet, "/payments/"+ack.RequestID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(body["data"], &record))
	assert.Equal(t, "INV-130", record["reference"])
	assert.Equal(t, "INITIATED", record["status"])

	rec, _ = f.do(t, http.MethodGet, "/payments/424242", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/payments/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettlementConfirmation(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	_, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-140","amount":10,"currency":"INR"}`)

	rec, body := f.do(t, http.MethodPost, "/payments/settlements", `{"reference":"INV-140","status":"SUCCESS","utr":"UTR-9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"ACKNOWLEDGED"`, string(body["status"]))

	rec, readBody := f.do(t, http.MethodGet, "/payments/"+ack.RequestID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(readBody["data"], &record))
	assert.Equal(t, "SETTLED", record["status"])
	assert.Equal(t, "UTR-9", record["utr"])

	rec, _ = f.do(t, http.MethodPost, "/payments/settlements", `{"reference":"INV-MISSING","status":"SUCCESS"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/payments/settlements", `{"reference":"INV-140","status":"MAYBE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForwardFailureSurfacesGatewayError(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"cpi unavailable"}`))
	}))
	defer downstream.Close()

	forwarder := cpi.NewClient(cpi.Config{Enabled: true, URL: downstream.URL}, zap.NewNop())
	f := newFixture(t, config.Config{AppName: "payrelay"}, forwarder)

	rec, ack := f.submit(t, `{"vendorId":"V1","invoice":"INV-150","amount":10,"currency":"INR"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "FAILED", ack.Status)
	assert.True(t, ack.Created)
	assert.Equal(t, http.StatusInternalServerError, ack.CPIHTTPCode)
	assert.Contains(t, ack.ErrorDetail, "cpi unavailable")

	// The record stands even though the forward failed.
	rec, _ = f.do(t, http.MethodGet, "/payments/"+ack.RequestID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForwardHappensOncePerReference(t *testing.T) {
	var forwards int32
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&forwards, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	forwarder := cpi.NewClient(cpi.Config{Enabled: true, URL: downstream.URL}, zap.NewNop())
	f := newFixture(t, config.Config{AppName: "payrelay"}, forwarder)

	payload := `{"vendorId":"V1","invoice":"INV-160","amount":10,"currency":"INR"}`

	rec, ack := f.submit(t, payload)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, ack.Created)

	rec, ack = f.submit(t, payload)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, ack.Created)

	assert.Equal(t, int32(1), atomic.LoadInt32(&forwards))

	rec, body := f.do(t, http.MethodGet, "/payments/"+ack.RequestID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(body["data"], &record))
	assert.Equal(t, "FORWARDED", record["status"])
}

func TestGetAccount(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	now := time.Now().UTC()
	require.NoError(t, f.db.Exec(
		`INSERT INTO accounts (id, type, acc_no, holder_name, bank_name, ifsc, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), "vendor", "5566778899", "Acme Supplies", "State Bank", "SBIN0001", "INR", now, now,
	).Error)

	rec, body := f.do(t, http.MethodGet, "/accounts/vendor/5566778899", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var account map[string]any
	require.NoError(t, json.Unmarshal(body["data"], &account))
	assert.Equal(t, "Acme Supplies", account["holder_name"])

	rec, _ = f.do(t, http.MethodGet, "/accounts/vendor/0000000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/accounts/merchant/5566778899", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, config.Config{AppName: "payrelay"}, nil)

	rec, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"OK"`, string(body["status"]))
	assert.Equal(t, `"Online"`, string(body["db_status"]))
	assert.Equal(t, `0`, string(body["db_code"]))
}
