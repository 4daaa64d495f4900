package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var localDevOrigins = []string{
	"http://localhost:5001",
	"http://localhost:3000",
	"http://localhost:5174",
	"http://localhost:5173",
	"http://127.0.0.1:5001",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5174",
	"http://127.0.0.1:5173",
}

// CORS allows the local dev servers plus any configured origins. A single
// "*" entry allows every origin without credentials.
func CORS(extra ...string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders: []string{
			"X-Request-Id",
			"X-Trace-Id",
			OutcomeHeader,
		},
	}
	if slices.Contains(extra, "*") {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = append(slices.Clone(localDevOrigins), extra...)
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// OutcomeHeader tells clients whether /decompose served a real plan or the
// fallback. The body is a plan either way.
const OutcomeHeader = "X-Mate-Outcome"
