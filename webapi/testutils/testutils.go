// Package testutils runs the HTTP surface over the in-memory escrow
// environment.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/amirasaad/escrow/infra/initializer"
	"github.com/amirasaad/escrow/internal/fixtures"
	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

// Envelope is a decoded response body; Data is left raw for the caller.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

// E2ETestSuite serves the escrow API over a fresh in-memory environment
// per test.
type E2ETestSuite struct {
	suite.Suite
	Env  *fixtures.Escrow
	Svcs fixtures.Services
	App  *fiber.App
	Cfg  *config.App
}

// TestConfig is the configuration the suite's app is built with.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		RateLimit: &config.RateLimit{},
		Metrics:   &config.Metrics{Enabled: true, Path: "/metrics"},
	}
}

// SetupTest builds the environment and app.
func (s *E2ETestSuite) SetupTest() {
	s.Env = fixtures.NewEscrow(s.T())
	s.Svcs = s.Env.Services()
	if s.Cfg == nil {
		s.Cfg = TestConfig()
	}
	s.App = NewApp(s.Env, s.Svcs, s.Cfg)
}

// NewApp serves svcs over env with cfg.
func NewApp(env *fixtures.Escrow, svcs fixtures.Services, cfg *config.App) *fiber.App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escrow_test_up",
		Help: "Marks the test registry.",
	}))
	return webapi.SetupApp(&initializer.Deps{
		Config:       cfg,
		Logger:       env.Deps.Logger,
		Provider:     env.Provider,
		Gatherer:     reg,
		Transactions: svcs.Transactions,
		Payments:     svcs.Payments,
		Settlement:   svcs.Settlement,
	})
}

// MakeRequest sends body as JSON and returns the response.
func (s *E2ETestSuite) MakeRequest(method, path string, body any) *http.Response {
	return s.MakeRawRequest(method, path, s.encode(body), nil)
}

// MakeRawRequest sends payload with extra headers.
func (s *E2ETestSuite) MakeRawRequest(method, path string, payload []byte, headers map[string]string) *http.Response {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, r)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.App.Test(req, int((5 * time.Second).Milliseconds()))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// Decode reads an envelope from resp.
func (s *E2ETestSuite) Decode(resp *http.Response) Envelope {
	var env Envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// DecodeData reads an envelope from resp and unmarshals its data into out.
func (s *E2ETestSuite) DecodeData(resp *http.Response, out any) Envelope {
	env := s.Decode(resp)
	s.Require().NoError(json.Unmarshal(env.Data, out))
	return env
}

func (s *E2ETestSuite) encode(body any) []byte {
	if body == nil {
		return nil
	}
	b, err := json.Marshal(body)
	s.Require().NoError(err)
	return b
}
