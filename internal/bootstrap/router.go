package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	httpapi "github.com/shopgraph/shop-graph-backend/internal/api/http"
	"github.com/shopgraph/shop-graph-backend/internal/api/http/middleware"
	recshttp "github.com/shopgraph/shop-graph-backend/internal/api/http/recs"
	"github.com/shopgraph/shop-graph-backend/internal/recs"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Graph       httpapi.Pinger
	Recs        *recs.Service

	// Requests per second the API accepts; zero disables limiting.
	RateLimit float64
	Burst     int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.RequestIDMiddleware())
	if dep.RateLimit > 0 {
		burst := dep.Burst
		if burst < 1 {
			burst = 1
		}
		r.Use(middleware.RateLimitMiddleware(rate.Limit(dep.RateLimit), burst))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Graph)
	healthHandler.RegisterRoutes(r)

	recsHandler := recshttp.NewHandler(dep.Recs)
	recsHandler.RegisterRoutes(r)

	return r
}
