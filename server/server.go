package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bundler/bundler"
	"bundler/config"
	"bundler/db"
	"bundler/jito"
	"bundler/logger"
	"bundler/sol"
	"bundler/types"
	"bundler/utils"
)

// Server exposes the bundle pipeline over HTTP: submission endpoints,
// cached result lookups, and prometheus metrics.
type Server struct {
	engine   *gin.Engine
	cache    *utils.ResultCache
	database db.Database
	timeout  time.Duration

	// Factories, swappable in tests.
	newRelay func(endpoint string) (bundler.Relay, error)
	newChain func(endpoint string) sol.ChainReader
	newDex   func() (bundler.InstructionSource, error)
}

func New(cache *utils.ResultCache, database db.Database) *Server {
	s := &Server{
		cache:    cache,
		database: database,
		timeout:  config.BUNDLE_OUTCOME_TIMEOUT,
		newRelay: func(endpoint string) (bundler.Relay, error) {
			return jito.NewClient(endpoint)
		},
		newChain: func(endpoint string) sol.ChainReader {
			return sol.NewClient(endpoint)
		},
		newDex: func() (bundler.InstructionSource, error) {
			return bundler.NewHTTPInstructionSourceFromConfig()
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/api/jito-bundle", s.handleJitoBundle)
	engine.GET("/api/bundle-result/:bundleId", s.handleBundleResult)
	engine.GET("/api/bundle-result", s.handleBundleResultMissingId)
	engine.POST("/api/distribute-sol", s.handleDistributeSol)
	engine.POST("/api/pump-seller", s.handlePumpSeller)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

func (s *Server) Run(port int) error {
	logger.ServerLogger.Info("HTTP server listening", "port", port)
	return s.engine.Run(fmt.Sprintf(":%d", port))
}

// Handler returns the underlying http.Handler for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

// WarmCache preloads the result cache from recently persisted
// submissions so lookups survive a restart. Best effort: a cold cache is
// fully functional, it just misses more.
func (s *Server) WarmCache() {
	if s.database == nil {
		return
	}
	submissions, err := s.database.QueryRecentSubmissions(config.RESULT_CACHE_WARM_LIMIT)
	if err != nil {
		logger.ServerLogger.Warn("Cache warm-up query failed", "err", err)
		return
	}
	for _, sub := range submissions {
		accepted := 0
		if sub.Status == types.OutcomeAccepted {
			accepted = 1
		}
		s.cache.Put(sub.BundleId, &types.BundleOutcome{
			BundleId:  sub.BundleId,
			Status:    sub.Status,
			Slot:      sub.Slot,
			Accepted:  accepted,
			Timestamp: sub.Timestamp,
		})
	}
	logger.ServerLogger.Info("Result cache warmed", "entries", len(submissions))
}

// recordSubmission persists one resolved outcome. Persistence is best
// effort and never fails the request that produced the outcome.
func (s *Server) recordSubmission(outcome *types.BundleOutcome, blockEngine string, txCount int, tipLamports uint64) {
	processedBundlesCounter.WithLabelValues(outcome.Status).Inc()
	submittedTransactionsCounter.WithLabelValues(outcome.Status).Add(float64(txCount))

	if s.database == nil {
		return
	}
	err := s.database.InsertSubmissions(types.BundleSubmissions{{
		BundleId:    outcome.BundleId,
		BlockEngine: blockEngine,
		Status:      outcome.Status,
		Slot:        outcome.Slot,
		TxCount:     uint64(txCount),
		TipLamports: tipLamports,
		Timestamp:   outcome.Timestamp,
	}})
	if err != nil {
		logger.ServerLogger.Warn("Failed to persist submission", "bundleId", outcome.BundleId, "err", err)
	}
}
