package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"

	"vetra/internal/domain"
	"vetra/internal/transport/http/mocks"
	"vetra/pkg/testutil"
)

var signingKey = []byte("router-test-signing-key")

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	service := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(New(service, logger), signingKey, logger), service
}

func operatorToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRouterAuthBoundary(t *testing.T) {
	testutil.Given(t, "the assembled router", func(t *testing.T) {
		router, service := newTestRouter(t)

		testutil.When(t, "probing the health endpoint without a token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it should respond OK", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "scraping metrics without a token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it should respond OK", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "listing cases without a token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cases", nil))

			testutil.Then(t, "it should be refused", func(t *testing.T) {
				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
				}
			})
		})

		testutil.When(t, "listing cases with a garbage token", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cases", nil)
			req.Header.Set("Authorization", "Bearer not-a-token")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should be refused", func(t *testing.T) {
				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
				}
			})
		})

		testutil.When(t, "listing cases with a signed operator token", func(t *testing.T) {
			service.EXPECT().List(gomock.Any()).Return([]domain.Projection{}, nil)

			req := httptest.NewRequest(http.MethodGet, "/cases", nil)
			req.Header.Set("Authorization", "Bearer "+operatorToken(t, "ops@vetra"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should reach the service and echo a request ID", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
				if rec.Header().Get("X-Request-ID") == "" {
					t.Fatal("expected an X-Request-ID header on the response")
				}
			})
		})
	})
}
