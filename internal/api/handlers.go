package api

import (
	"net/http"
	"time"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/api/middleware"
	"github.com/WattMatt/greencalc-sa-sub011/internal/observability/metrics"
	"github.com/gin-gonic/gin"
)

// detect handles POST /api/v1/detect
func (s *server) detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	c.JSON(http.StatusOK, analysis.DetectFormat(req.Content))
}

// profile handles POST /api/v1/profile
func (s *server) profile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	runID := c.GetString(middleware.RequestIDKey)
	cfg := req.Config
	if cfg.VoltageV == 0 {
		cfg.VoltageV = s.defaults.VoltageV
	}
	if cfg.PowerFactor == 0 {
		cfg.PowerFactor = s.defaults.PowerFactor
	}
	if cfg.DateOrder == "" {
		cfg.DateOrder = s.defaults.DateOrder
	}
	if cfg.ValueUnit == "" {
		cfg.ValueUnit = s.defaults.ValueUnit
	}
	cfg.Logger = analysis.NewSlogLogger(s.log.With("run_id", runID))

	start := time.Now()
	res := analysis.Run(req.Headers, req.Rows, cfg)
	verdict := s.validator.Validate(res.Profile)
	metrics.ObserveProfile("http", string(verdict.ReasonCode), res.Profile.DataPoints, res.ParseErrors, time.Since(start))

	c.JSON(http.StatusOK, ProfileResponse{
		RunID:   runID,
		Profile: res.Profile,
		Verdict: verdict,
		Diagnostics: Diagnostics{
			Roles:       res.Roles,
			Unit:        res.Unit,
			UnitClass:   res.Class,
			DateOrder:   res.DateOrder,
			RowsSeen:    res.RowsSeen,
			ParseErrors: res.ParseErrors,
		},
	})
}

// validate handles POST /api/v1/validate
func (s *server) validate(c *gin.Context) {
	var p analysis.LoadProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	c.JSON(http.StatusOK, s.validator.Validate(p))
}

// deltas handles POST /api/v1/deltas
func (s *server) deltas(c *gin.Context) {
	var req DeltasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	policy, err := analysis.ParseNegativePolicy(req.NegativePolicy)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_POLICY", err.Error())
		return
	}
	values := req.Values
	if req.Cumulative {
		values = analysis.CumulativeToDeltas(values)
	}
	c.JSON(http.StatusOK, DeltasResponse{Values: analysis.ApplyNegativePolicy(values, policy)})
}
