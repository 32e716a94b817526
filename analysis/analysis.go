// Package analysis produces advisory reports on flows, from a hosted language model or
// from local heuristics. Nothing in the compiler depends on its output.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/meikuraledutech/walletflow"
)

var (
	ErrInvalidRequest  = errors.New("analysis: invalid request")
	ErrInvalidResponse = errors.New("analysis: invalid response structure")
	ErrEmptyResponse   = errors.New("analysis: empty response")
)

// Provider analyzes a flow.
type Provider interface {
	Analyze(ctx context.Context, req Request) (*Report, error)
}

// Options steer the analysis.
type Options struct {
	AnalysisType string `json:"analysisType" validate:"omitempty,oneof=trading arbitrage general"`
	Depth        string `json:"depth" validate:"omitempty,oneof=basic detailed comprehensive"`
}

// DefaultOptions is applied when a request carries none.
var DefaultOptions = Options{AnalysisType: "trading", Depth: "detailed"}

// Request is one analysis job.
type Request struct {
	Flow    *walletflow.Flow   `json:"flow" validate:"required"`
	Network walletflow.Network `json:"network" validate:"omitempty,oneof=devnet testnet mainnet"`
	Options Options            `json:"options"`
}

// Opportunity is a trade idea attached to a report.
type Opportunity struct {
	Type            string `json:"type"`
	Route           string `json:"route,omitempty"`
	Asset           string `json:"asset,omitempty"`
	Direction       string `json:"direction,omitempty"`
	EstimatedProfit string `json:"estimatedProfit"`
	Risk            string `json:"risk"`
	TimeWindow      string `json:"timeWindow"`
}

// Report is the outcome of an analysis.
type Report struct {
	FlowComplexity         string        `json:"flowComplexity"`
	RiskAssessment         string        `json:"riskAssessment"`
	EstimatedProfitability string        `json:"estimatedProfitability"`
	Suggestions            []string      `json:"suggestions"`
	MarketInsights         []string      `json:"marketInsights"`
	TradingOpportunities   []Opportunity `json:"tradingOpportunities"`
}

var validate = validator.New()

// Normalize fills in default options and validates the request.
func (r *Request) Normalize() error {
	if r.Options.AnalysisType == "" {
		r.Options.AnalysisType = DefaultOptions.AnalysisType
	}
	if r.Options.Depth == "" {
		r.Options.Depth = DefaultOptions.Depth
	}
	if err := validate.Struct(r); err != nil {
		return formatValidationError(err)
	}
	if r.Flow.Nodes == nil {
		return fmt.Errorf("%w: flow nodes are required", ErrInvalidRequest)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
