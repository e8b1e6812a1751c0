package proxy

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/proxy/ratelimit"
)

// ServiceName identifies the proxy in health replies.
const ServiceName = "commitcoach-proxy"

// RouterDeps holds what BuildRouter wires together.
type RouterDeps struct {
	Version     string
	Completer   ai.Completer
	Limiter     ratelimit.Limiter
	CORSOrigins []string
	// TrustedProxies whose X-Forwarded-For is believed; none when empty.
	TrustedProxies []string
	Logger         zerolog.Logger
}

// BuildRouter returns the proxy's gin engine. A nil Limiter disables rate limiting.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedOrNil(dep.TrustedProxies)); err != nil {
		dep.Logger.Error().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(RequestLogger(dep.Logger))
	if len(dep.CORSOrigins) > 0 {
		r.Use(CORS(dep.CORSOrigins))
	}
	if dep.Limiter != nil {
		r.Use(RateLimit(dep.Limiter))
	}

	NewHealthHandler(ServiceName, dep.Version, dep.Completer.Name()).RegisterRoutes(r)
	NewHandler(dep.Completer).RegisterRoutes(r)

	return r
}

func trustedOrNil(proxies []string) []string {
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}
