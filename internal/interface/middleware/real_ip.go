package middleware

import (
	"github.com/gin-gonic/gin"
)

// clientIPHeaders are consulted in order once the direct peer is a trusted
// proxy. X-Forwarded-For yields its right-most untrusted hop.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// TrustProxies sets how engine resolves c.ClientIP(): client IP headers are
// honored only when the peer address is in proxies. nil trusts no proxy, so
// the peer address is always used.
func TrustProxies(engine *gin.Engine, proxies []string) error {
	engine.ForwardedByClientIP = true
	engine.RemoteIPHeaders = append([]string(nil), clientIPHeaders...)
	return engine.SetTrustedProxies(proxies)
}

// RealIP stores the caller's address in the Gin context (key: "real_ip") for
// the rate limiter and access log.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
