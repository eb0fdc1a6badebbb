package webhook

import (
	"crypto/subtle"
	"net/http"

	"hipotecas_portal_backend/platform/config"
	"hipotecas_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// SecretAuthMiddleware validates the pre-shared ingestion secret, supplied
// either as the X-Webhook-Secret header or the ?secret= query parameter.
// The comparison is constant-time.
func SecretAuthMiddleware(cfg config.WebhookConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("X-Webhook-Secret")
		if secret == "" {
			secret = c.Query("secret")
		}
		if secret == "" {
			log.WebhookRejected(c.Request.URL.Path, "missing secret", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing secret"})
			return
		}

		expected := cfg.GetWebhookSecret()
		if subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) != 1 {
			log.WebhookRejected(c.Request.URL.Path, "invalid secret", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid secret"})
			return
		}

		c.Next()
	}
}

// ValoradorCORS applies the widget allow-list policy: the Origin header is
// echoed back only when allow-listed; unmatched origins fall back to the
// configured default (which may be empty, granting nothing). Pre-flight
// OPTIONS requests are answered with the same policy.
func ValoradorCORS(cfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		granted := ""

		if origin != "" {
			for _, allowed := range cfg.GetValoradorOrigins() {
				if origin == allowed {
					granted = origin
					break
				}
			}
		}
		if granted == "" {
			granted = cfg.GetValoradorFallbackOrigin()
		}

		if granted != "" {
			c.Header("Access-Control-Allow-Origin", granted)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Webhook-Secret")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
