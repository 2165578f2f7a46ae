package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	callermodels "callfile/internal/caller/models"
	consentmodels "callfile/internal/consent/models"
	"callfile/internal/conversation"
	"callfile/internal/platform/metrics"
	"callfile/internal/transport/http/mocks"
	dErrors "callfile/pkg/domain-errors"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/testutil"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

const (
	user     = "platform"
	password = "s3cret"
)

type RouterSuite struct {
	suite.Suite
	calls    *mocks.MockCallService
	callers  *mocks.MockCallerReader
	consents *mocks.MockConsentHistory
	db       *mocks.MockPinger
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)

	s.calls = mocks.NewMockCallService(ctrl)
	s.callers = mocks.NewMockCallerReader(ctrl)
	s.consents = mocks.NewMockConsentHistory(ctrl)
	s.db = mocks.NewMockPinger(ctrl)

	reg := prometheus.NewRegistry()
	s.router = NewRouter(RouterConfig{
		Calls:          NewCallHandler(s.calls, logger),
		Admin:          NewAdminHandler(s.callers, s.consents, logger),
		Logger:         logger,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: 5 * time.Second,
		Username:       user,
		PasswordHash:   string(hash),
		Health:         map[string]Pinger{"postgres": s.db},
	})
}

func (s *RouterSuite) do(method, path, body string, auth bool) *httptest.ResponseRecorder {
	var creds testutil.Credentials
	if auth {
		creds = testutil.Credentials{Username: user, Password: password}
	}
	return testutil.Do(s.router, testutil.NewRequest(s.T(), method, path, body, creds))
}

func (s *RouterSuite) TestStartCall() {
	s.calls.EXPECT().
		StartCall(gomock.Any(), conversation.CallContext{CallID: "c1", Phone: "+15551234567"}).
		Return(&conversation.CallStart{CallID: "c1", Greeting: conversation.GreetingKnownName, Step: conversation.StepGreeting}, nil)

	rec := s.do(http.MethodPost, "/calls", `{"call_id":"c1","phone":"+15551234567"}`, true)

	s.Equal(http.StatusOK, rec.Code)
	got := testutil.DecodeResponse[conversation.CallStart](s.T(), rec)
	s.Equal(conversation.GreetingKnownName, got.Greeting)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestStartCallRequiresCallID() {
	rec := s.do(http.MethodPost, "/calls", `{"phone":"+15551234567"}`, true)
	testutil.AssertError(s.T(), rec, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *RouterSuite) TestWebhooksRequireCredentials() {
	rec := s.do(http.MethodPost, "/calls", `{"call_id":"c1"}`, false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestDispatchTool() {
	s.calls.EXPECT().
		Dispatch(gomock.Any(), conversation.CallContext{CallID: "c1", Phone: "+15551234567"}, conversation.ToolSubmitAddress, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ conversation.CallContext, _ conversation.Tool, args conversation.Args) (*conversation.ToolResult, error) {
			s.Equal("123 Main St", args.Address)
			s.Require().NotNil(args.Confirmed)
			s.True(*args.Confirmed)
			return &conversation.ToolResult{
				Tool:    conversation.ToolSubmitAddress,
				Outcome: conversation.OutcomeConfirmed,
				Next:    conversation.StepAddressValidation,
				Reply:   conversation.Reply{Code: conversation.ReplyAddressCaptured, Address: "123 Main St"},
			}, nil
		})

	rec := s.do(http.MethodPost, "/calls/c1/tools/submit_address",
		`{"phone":"+15551234567","args":{"address":"123 Main St","confirmed":true}}`, true)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"next_step":"address_validation"`)
}

func (s *RouterSuite) TestDispatchErrorsMapToStatus() {
	cases := []struct {
		err  error
		want int
		code dErrors.Code
	}{
		{dErrors.Wrap(conversation.ErrToolNotActive, dErrors.CodeInvalidState, "not active"), http.StatusConflict, dErrors.CodeInvalidState},
		{dErrors.Wrap(conversation.ErrUnknownTool, dErrors.CodeNotFound, "unknown"), http.StatusNotFound, dErrors.CodeNotFound},
		{dErrors.Wrap(conversation.ErrInvalidArgs, dErrors.CodeBadRequest, "confirmed is required"), http.StatusBadRequest, dErrors.CodeBadRequest},
		{errors.New("boom"), http.StatusInternalServerError, dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.calls.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)
		rec := s.do(http.MethodPost, "/calls/c1/tools/validate_email", `{}`, true)
		testutil.AssertError(s.T(), rec, tc.want, string(tc.code))
	}
}

func (s *RouterSuite) TestSummaryEndsCall() {
	s.calls.EXPECT().
		EndCall(gomock.Any(), conversation.CallContext{CallID: "c1"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ conversation.CallContext, summary json.RawMessage) error {
			s.JSONEq(`{"post_prompt_data":{"raw":"done"}}`, string(summary))
			return nil
		})

	rec := s.do(http.MethodPost, "/calls/c1/summary", `{"post_prompt_data":{"raw":"done"}}`, true)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *RouterSuite) TestSummaryMustBeJSON() {
	rec := s.do(http.MethodPost, "/calls/c1/summary", `not json`, true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestGetCaller() {
	name := "Jane Doe"
	s.callers.EXPECT().Get(gomock.Any(), "+15551234567").
		Return(&callermodels.CallerRecord{Phone: "+15551234567", OwnerName: &name}, nil)

	rec := s.do(http.MethodGet, "/admin/callers/15551234567", "", true)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"owner_name":"Jane Doe"`)
}

func (s *RouterSuite) TestGetCallerNotFound() {
	s.callers.EXPECT().Get(gomock.Any(), "+15551234567").Return(nil, sentinel.ErrNotFound)

	rec := s.do(http.MethodGet, "/admin/callers/+15551234567", "", true)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestGetCallerBadPhone() {
	rec := s.do(http.MethodGet, "/admin/callers/12", "", true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestListConsents() {
	s.consents.EXPECT().History(gomock.Any(), "+15551234567").Return([]consentmodels.Record{
		{Phone: "+15551234567", CallID: "c1", Type: consentmodels.ConsentEmailSend, Decision: true},
	}, nil)

	rec := s.do(http.MethodGet, "/admin/callers/15551234567/consents", "", true)

	s.Equal(http.StatusOK, rec.Code)
	got := testutil.DecodeResponse[consentListResponse](s.T(), rec)
	s.Require().Len(got.Consents, 1)
	s.Equal(consentmodels.ConsentEmailSend, got.Consents[0].Type)
}

func (s *RouterSuite) TestHealth() {
	s.db.EXPECT().Ping(gomock.Any()).Return(nil)
	rec := s.do(http.MethodGet, "/healthz", "", false)
	s.Equal(http.StatusOK, rec.Code)

	s.db.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rec = s.do(http.MethodGet, "/healthz", "", false)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "degraded")
}

func (s *RouterSuite) TestMetricsExposeRequestCounts() {
	s.do(http.MethodPost, "/calls", `{}`, true)

	rec := s.do(http.MethodGet, "/metrics", "", false)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `callfile_http_requests_total{method="POST",route="/calls",status="400"} 1`)
}
