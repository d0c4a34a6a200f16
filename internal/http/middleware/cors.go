package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/straye-as/gallery/internal/config"
	"go.uber.org/zap"
)

func isDevelopment(environment string) bool {
	return environment == "development" || environment == "local" || environment == ""
}

func allowAnyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}

func denyAllOrigins(r *http.Request, origin string) bool {
	return false
}

// CORS returns a CORS middleware configured from the application config.
// The gallery pages are same-origin; this governs cross-origin form posts.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAnyOrigin

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case isDevelopment(environment):
		options.AllowOriginFunc = allowAnyOrigin
		logger.Info("CORS configured to allow all origins in development mode")

	default:
		// An empty AllowedOrigins means "*" to go-chi/cors
		options.AllowOriginFunc = denyAllOrigins
		logger.Info("CORS configured with no allowed origins, cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
