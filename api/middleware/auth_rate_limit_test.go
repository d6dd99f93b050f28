package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
)

type memoryRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryRateStore) RateLimitKey(parts ...string) string {
	return strings.Join(parts, ":")
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func attempt(h http.Handler, ip, phone string) *httptest.ResponseRecorder {
	body := `{"phone":"` + phone + `","password":"parola1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitBuckets(t *testing.T) {
	cases := []struct {
		name   string
		policy RateLimitPolicy
		calls  [][2]string // ip, phone
		want   []int
	}{
		{
			name:   "phone bucket across addresses",
			policy: RateLimitPolicy{Name: "login", Window: time.Minute, PerPhone: 2},
			calls:  [][2]string{{"10.0.0.1", "0740123456"}, {"10.0.0.2", "0740123456"}, {"10.0.0.3", "0740123456"}},
			want:   []int{200, 200, 429},
		},
		{
			name:   "ip bucket across phones",
			policy: RateLimitPolicy{Name: "register", Window: time.Minute, PerIP: 1},
			calls:  [][2]string{{"10.0.0.9", "0741000000"}, {"10.0.0.9", "0741000001"}},
			want:   []int{200, 429},
		},
		{
			name:   "phone spacing shares a counter",
			policy: RateLimitPolicy{Name: "login", Window: time.Minute, PerPhone: 1},
			calls:  [][2]string{{"10.0.0.1", "0740123456"}, {"10.0.0.1", "0740 123 456"}},
			want:   []int{200, 429},
		},
		{
			name:   "distinct phones stay independent",
			policy: RateLimitPolicy{Name: "login", Window: time.Minute, PerPhone: 1},
			calls:  [][2]string{{"10.0.0.1", "0740123456"}, {"10.0.0.1", "0740654321"}},
			want:   []int{200, 200},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := AuthRateLimit(tc.policy, &memoryRateStore{}, nil)(http.HandlerFunc(okHandler))
			for i, call := range tc.calls {
				assert.Equal(t, tc.want[i], attempt(h, call[0], call[1]).Code, "call %d", i)
			}
		})
	}
}

func TestAuthRateLimitRejectionEnvelope(t *testing.T) {
	h := AuthRateLimit(RateLimitPolicy{Name: "login", Window: time.Minute, PerIP: 1}, &memoryRateStore{}, nil)(http.HandlerFunc(okHandler))
	attempt(h, "10.1.1.1", "0740123456")
	rec := attempt(h, "10.1.1.1", "0740123456")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
}

func TestAuthRateLimitRestoresBody(t *testing.T) {
	var seen string
	h := AuthRateLimit(RateLimitPolicy{Name: "login", Window: time.Minute, PerPhone: 5}, &memoryRateStore{}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			seen = string(body)
		}))

	attempt(h, "10.2.2.2", "0740 123 456")
	assert.JSONEq(t, `{"phone":"0740 123 456","password":"parola1"}`, seen)
}

func TestAuthRateLimitStoreFailure(t *testing.T) {
	store := &memoryRateStore{err: errors.New("redis down")}
	h := AuthRateLimit(RateLimitPolicy{Name: "login", Window: time.Minute, PerIP: 5}, store, nil)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler ran while the limiter was unavailable")
		}))

	assert.Equal(t, http.StatusServiceUnavailable, attempt(h, "10.3.3.3", "0740123456").Code)
}

func TestAuthRateLimitDisabledPolicy(t *testing.T) {
	store := &memoryRateStore{err: errors.New("never consulted")}
	h := AuthRateLimit(RateLimitPolicy{Name: "login"}, store, nil)(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusOK, attempt(h, "10.4.4.4", "0740123456").Code)
}
