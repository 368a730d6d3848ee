package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirasaad/escrow/internal/fixtures/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_MemoryDeployment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("PAYMENT_PROVIDER_DRIVER", "mock")
	t.Setenv("PAYMENT_PROVIDER_STRIPE_SIGNING_SECRET", "whsec_test")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "0")

	body := `{"sellerUsername":"seller","buyerUsername":"buyer","profileProductId":"` +
		catalog.GuitarID.String() + `","units":1}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/transaction/create-transaction", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	Handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Status string `json:"status"`
		Data   struct {
			TransactionCode string `json:"transactionCode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "SUCCESS", env.Status)
	assert.Equal(t, "T-000001", env.Data.TransactionCode)
}
