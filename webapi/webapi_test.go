package webapi_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/webapi/common"
	"github.com/amirasaad/escrow/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	testutils.E2ETestSuite
}

func (s *AppTestSuite) TestHealth() {
	resp := s.MakeRequest(fiber.MethodGet, "/", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *AppTestSuite) TestUnknownRoute() {
	resp := s.MakeRequest(fiber.MethodGet, "/transactions/nope/nothing", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(common.StatusNotFound, s.Decode(resp).Status)
}

func (s *AppTestSuite) TestMetrics() {
	resp := s.MakeRequest(fiber.MethodGet, "/metrics", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "escrow_test_up")
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

type RateLimitTestSuite struct {
	testutils.E2ETestSuite
}

func (s *RateLimitTestSuite) SetupTest() {
	s.Cfg = testutils.TestConfig()
	s.Cfg.RateLimit = &config.RateLimit{MaxRequests: 5, Window: time.Second}
	s.E2ETestSuite.SetupTest()
}

func (s *RateLimitTestSuite) TestRateLimit() {
	for i := range 6 {
		resp := s.MakeRequest(fiber.MethodGet, "/", nil)
		if i < 5 {
			s.Equal(fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		} else {
			s.Equal(fiber.StatusTooManyRequests, resp.StatusCode, "request %d", i+1)
		}
	}

	resp := s.MakeRawRequest(fiber.MethodGet, "/", nil, map[string]string{"X-Forwarded-For": "10.0.0.2, 10.0.0.1"})
	s.Equal(fiber.StatusOK, resp.StatusCode, "other clients keep their own budget")

	time.Sleep(1100 * time.Millisecond)
	resp = s.MakeRequest(fiber.MethodGet, "/", nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func TestRateLimitTestSuite(t *testing.T) {
	suite.Run(t, new(RateLimitTestSuite))
}
