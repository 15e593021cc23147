// Package server exposes the ledger engine over JSON HTTP for the host
// process. It owns no ledger state: every handler validates its input,
// invokes one ledger operation, and renders the result or the typed failure.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hirorogo/fusaikanri/internal/ledger"
)

var ledgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fusaikanri_ledger_operations_total",
	Help: "Ledger operations, by operation and outcome.",
}, []string{"op", "outcome"})

// Server routes HTTP requests to ledger operations.
type Server struct {
	ledger *ledger.Ledger
}

// New creates a Server backed by the given ledger.
func New(l *ledger.Ledger) *Server {
	return &Server{ledger: l}
}

// Register mounts all routes on the router. protected middleware (if any)
// guards the ledger API; health and metrics stay open for probes and
// scrapers.
func (s *Server) Register(r *gin.Engine, protected ...gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", protected...)
	v1.POST("/debts", s.addDebt)
	v1.POST("/debts/pay", s.payDebt)
	v1.POST("/debts/pay-on-behalf", s.payOnBehalf)
	v1.POST("/debts/transfer", s.transferDebt)
	v1.GET("/balance", s.balance)
	v1.GET("/users/:id/debts", s.userDebts)
	v1.GET("/history", s.history)
	v1.GET("/summary", s.summary)
	v1.GET("/users/:id/transfer", s.transferEnabled)
	v1.PUT("/users/:id/transfer", s.setTransferEnabled)
	v1.GET("/guilds/:id/log-channel", s.logChannel)
	v1.PUT("/guilds/:id/log-channel", s.setLogChannel)
}
