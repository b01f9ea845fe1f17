package api

import "github.com/WattMatt/greencalc-sa-sub011/internal/analysis"

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DetectRequest is the raw text of an export as uploaded by the mapping UI.
type DetectRequest struct {
	Content string `json:"content" binding:"required"`
}

// ProfileRequest is a table already split into cells plus the mapping chosen
// by the user.
type ProfileRequest struct {
	Headers []string        `json:"headers" binding:"required"`
	Rows    [][]string      `json:"rows"`
	Config  analysis.Config `json:"config"`
}

// ProfileResponse pairs the profile with its verdict and the choices the
// pipeline made on the way.
type ProfileResponse struct {
	RunID       string                     `json:"runId"`
	Profile     analysis.LoadProfile       `json:"profile"`
	Verdict     analysis.ValidationVerdict `json:"verdict"`
	Diagnostics Diagnostics                `json:"diagnostics"`
}

// Diagnostics mirrors analysis.Result minus the profile.
type Diagnostics struct {
	Roles       analysis.ColumnRoles `json:"roles"`
	Unit        analysis.Unit        `json:"unit"`
	UnitClass   analysis.UnitClass   `json:"unitClass"`
	DateOrder   analysis.DateOrder   `json:"dateOrder"`
	RowsSeen    int                  `json:"rowsSeen"`
	ParseErrors int                  `json:"parseErrors"`
}

// DeltasRequest converts a register series before profiling.
type DeltasRequest struct {
	Values         []float64 `json:"values" binding:"required"`
	Cumulative     bool      `json:"cumulative"`
	NegativePolicy string    `json:"negativePolicy"`
}

// DeltasResponse holds the converted series.
type DeltasResponse struct {
	Values []float64 `json:"values"`
}
