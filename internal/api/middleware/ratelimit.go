package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/livecharge/livecharge/internal/api/models"
)

// RateLimit is a fixed request budget per client over a sliding window.
type RateLimit struct {
	// Scope names the budget in the 429 problem detail.
	Scope    string
	Requests int
	Window   time.Duration
}

// Budgets applied by the router.
var (
	LoginRateLimit    = RateLimit{Scope: "login", Requests: 10, Window: time.Minute}
	VoteRateLimit     = RateLimit{Scope: "votes", Requests: 60, Window: time.Minute}
	StandardRateLimit = RateLimit{Scope: "reads", Requests: 300, Window: time.Minute}
)

// ByIP limits each client address, as resolved by chi's RealIP.
func (l RateLimit) ByIP() func(http.Handler) http.Handler {
	return l.limiter(httprate.KeyByRealIP)
}

// BySession limits each signed-in username, falling back to the client
// address for anonymous requests. Mount it after Session.
func (l RateLimit) BySession() func(http.Handler) http.Handler {
	return l.limiter(func(r *http.Request) (string, error) {
		if username := GetUsername(r.Context()); username != "" {
			return "session:" + username, nil
		}
		return httprate.KeyByRealIP(r)
	})
}

func (l RateLimit) limiter(key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(
		l.Requests,
		l.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(l.exceeded()),
	)
}

// exceeded writes a 429 problem. httprate does not expose the reset time to
// the limit handler, so Retry-After is the whole window.
func (l RateLimit) exceeded() http.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(l.Window.Seconds())))
	detail := "Rate limit exceeded. Please try again later."
	if l.Scope != "" {
		detail = fmt.Sprintf("Rate limit for %s exceeded (%d per %s). Please try again later.", l.Scope, l.Requests, l.Window)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.ForStatus(http.StatusTooManyRequests, GetRequestID(r.Context()), detail).
			WithInstance(r.URL.Path).
			Write(w)
	}
}
