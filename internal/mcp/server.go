package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"scenario-sim/internal/assembler"
	"scenario-sim/internal/simulation"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const (
	ToolRunSimulation     = "run_scenario_simulation"
	ToolDescribeScenarios = "describe_scenarios"
)

// Simulator is the part of the assembler the MCP tools depend on.
type Simulator interface {
	Run(ctx context.Context, req assembler.SimulationRequest) (*assembler.Response, error)
}

// Server exposes the simulation pipeline as MCP tools.
type Server struct {
	sim    Simulator
	charts bool
	server *sdk.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer(sim Simulator, enableCharts bool, version string) (*Server, error) {
	s := &Server{
		sim:    sim,
		charts: enableCharts,
		server: sdk.NewServer(&sdk.Implementation{Name: "scenario-sim", Version: version}, nil),
	}

	schema, err := jsonschema.For[assembler.SimulationRequest](nil)
	if err != nil {
		return nil, err
	}
	sdk.AddTool(s.server, &sdk.Tool{
		Name: ToolRunSimulation,
		Description: "Run a Monte-Carlo simulation of a business idea's monthly cash flow under optimistic, realistic and pessimistic scenarios.\n\n" +
			"Returns per-scenario outcome statistics (mean, median, percentiles), monthly projections, risk metrics " +
			"(probability of loss, VaR, expected shortfall, break-even month) and a one-at-a-time sensitivity analysis of every variable.\n" +
			"Variables: type is one of normal, lognormal (mean, stdDev), uniform (min, max) or triangular (min, max, mode); " +
			"impact is one of revenue, costs, growth_rate, market_share (multiplicative factors around 1.0) or churn_rate (monthly fraction lost).\n" +
			"Do not restate numbers that are not in the result.",
		InputSchema: schema,
	}, s.handleRunSimulation)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolDescribeScenarios,
		Description: "List the scenario names and the macro multipliers each applies to every simulated month.",
	}, s.handleDescribeScenarios)

	return s, nil
}

// Run serves the tools over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("MCP server starting stdio loop")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) handleRunSimulation(ctx context.Context, _ *sdk.CallToolRequest, in assembler.SimulationRequest) (*sdk.CallToolResult, any, error) {
	resp, err := s.sim.Run(ctx, in)
	if err != nil {
		var ve *assembler.ValidationError
		if !errors.As(err, &ve) {
			log.Error().Err(err).Msg("Simulation tool failed")
		}
		return errorResult(err), nil, nil
	}

	content := []sdk.Content{&sdk.TextContent{Text: formatResult(resp)}}
	if s.charts {
		if chart := renderCharts(resp); chart != "" {
			content = append(content, &sdk.TextContent{Text: chart})
		}
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}

type scenarioInfo struct {
	Name        string                 `json:"name"`
	Multipliers simulation.Multipliers `json:"multipliers"`
}

func (s *Server) handleDescribeScenarios(_ context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, any, error) {
	var out []scenarioInfo
	for _, name := range simulation.ScenarioNames() {
		m, err := simulation.LookupScenario(name)
		if err != nil {
			return errorResult(err), nil, nil
		}
		out = append(out, scenarioInfo{Name: name, Multipliers: m})
	}
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: formatResult(out)}}}, nil, nil
}

func errorResult(err error) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: formatResult(assembler.ErrorResponse{Error: err.Error()})}},
	}
}

func formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
