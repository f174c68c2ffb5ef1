package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp/internal/apperror"
	"erp/internal/middleware"
	"erp/internal/model"
	"erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "handler-secret"

type envelope struct {
	Status     string                 `json:"status"`
	StatusCode int                    `json:"status_code"`
	Data       json.RawMessage        `json:"data"`
	Error      string                 `json:"error"`
	Details    map[string]interface{} `json:"details"`
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "22222222-2222-2222-2222-222222222222",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func do(t *testing.T, r *gin.Engine, method, path, body, role string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w, env
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.InitAuth(testSecret, false)
	return gin.New()
}

// stubPerformaService answers ConvertToSales with a canned result; other
// methods are not used by these tests.
type stubPerformaService struct {
	service.PerformaService
	convertErr error
	gotUser    string
	gotID      string
}

func (s *stubPerformaService) ConvertToSales(ctx context.Context, userID, id string) (service.InvoiceResponse, error) {
	s.gotUser, s.gotID = userID, id
	if s.convertErr != nil {
		return service.InvoiceResponse{}, s.convertErr
	}
	return service.InvoiceResponse{ID: "inv-1", InvoiceNo: "INV-20240301-00001"}, nil
}

func TestConvertToSalesStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"converted", nil, http.StatusCreated, ""},
		{"insufficient stock", apperror.InsufficientStock("Widget", 3, 5), http.StatusBadRequest, "available"},
		{"already converted", apperror.InvalidStateTransition("performa invoice", model.PerformaConvertedToSales, "convert"), http.StatusConflict, ""},
		{"customer gone", apperror.MissingReference("customer", "c-1"), http.StatusNotFound, ""},
		{"bad id", apperror.Validation("id", "must be a valid UUID"), http.StatusBadRequest, "field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubPerformaService{convertErr: tt.err}
			r := newEngine()
			NewPerformaHandler(stub).RegisterRoutes(&r.RouterGroup)

			w, env := do(t, r, http.MethodPost, "/api/performa-invoices/p-1/convert", "", model.RoleManager)
			if w.Code != tt.wantStatus || env.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d/%d, want %d (body %s)", w.Code, env.StatusCode, tt.wantStatus, w.Body.String())
			}
			if tt.wantDetail != "" {
				if _, ok := env.Details[tt.wantDetail]; !ok {
					t.Errorf("details = %v, want key %q", env.Details, tt.wantDetail)
				}
			}
			if stub.gotID != "p-1" || stub.gotUser != "22222222-2222-2222-2222-222222222222" {
				t.Errorf("service called with user=%q id=%q", stub.gotUser, stub.gotID)
			}
		})
	}
}

func TestConvertToSalesRequiresPermission(t *testing.T) {
	stub := &stubPerformaService{}
	r := newEngine()
	NewPerformaHandler(stub).RegisterRoutes(&r.RouterGroup)

	w, _ := do(t, r, http.MethodPost, "/api/performa-invoices/p-1/convert", "", model.RoleStaff)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if stub.gotID != "" {
		t.Error("service reached without permission")
	}
}

type stubPaymentService struct {
	service.PaymentService
	err error
	got service.ApplyPaymentRequest
}

func (s *stubPaymentService) ApplyPayment(ctx context.Context, userID string, req service.ApplyPaymentRequest) (service.PaymentResult, error) {
	s.got = req
	if s.err != nil {
		return service.PaymentResult{}, s.err
	}
	return service.PaymentResult{Invoice: service.InvoiceResponse{PaymentStatus: model.PaymentPaid}}, nil
}

func TestApplyPaymentHandler(t *testing.T) {
	t.Run("over payment", func(t *testing.T) {
		stub := &stubPaymentService{err: apperror.OverPayment("100.00", "60.00", "40.01")}
		r := newEngine()
		NewPaymentHandler(stub).RegisterRoutes(&r.RouterGroup)

		w, env := do(t, r, http.MethodPost, "/api/payments", `{"invoice_id":"i-1","amount":"40.01"}`, model.RoleStaff)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if env.Details["total"] != "100.00" || env.Details["amount"] != "40.01" {
			t.Errorf("details = %v", env.Details)
		}
		if stub.got.InvoiceID != "i-1" || stub.got.Amount != "40.01" {
			t.Errorf("request = %+v", stub.got)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		stub := &stubPaymentService{}
		r := newEngine()
		NewPaymentHandler(stub).RegisterRoutes(&r.RouterGroup)

		w, env := do(t, r, http.MethodPost, "/api/payments", `{"amount":"10"}`, model.RoleStaff)
		if w.Code != http.StatusBadRequest || env.Status != "error" {
			t.Fatalf("status = %d (%s), want 400", w.Code, env.Status)
		}
	})

	t.Run("applied", func(t *testing.T) {
		stub := &stubPaymentService{}
		r := newEngine()
		NewPaymentHandler(stub).RegisterRoutes(&r.RouterGroup)

		w, env := do(t, r, http.MethodPost, "/api/payments", `{"invoice_id":"i-1","amount":"10"}`, model.RoleStaff)
		if w.Code != http.StatusCreated || env.Status != "success" {
			t.Fatalf("status = %d (%s), want 201", w.Code, env.Status)
		}
		var result service.PaymentResult
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if result.Invoice.PaymentStatus != model.PaymentPaid || result.Payment != nil {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestRespondErrorHidesUnexpectedInRelease(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	for _, mode := range []string{gin.TestMode, gin.ReleaseMode} {
		t.Run(mode, func(t *testing.T) {
			gin.SetMode(mode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, apperror.Unexpected("failed to fetch invoices", errors.New("pq: connection refused")))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			leaked := strings.Contains(w.Body.String(), "connection refused")
			if mode == gin.ReleaseMode && leaked {
				t.Errorf("release response leaks cause: %s", w.Body.String())
			}
			if mode != gin.ReleaseMode && !leaked {
				t.Errorf("debug response hides cause: %s", w.Body.String())
			}
		})
	}
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("boom"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
