package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"scenario-sim/internal/events"
	"scenario-sim/internal/insight"
	"scenario-sim/internal/metrics"
	"scenario-sim/internal/recorder"
	"scenario-sim/internal/simulation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultPersistTimeout = 30 * time.Second

// Options wires the collaborators of an Assembler. Nil collaborators are replaced by no-ops.
type Options struct {
	Engine         *simulation.Engine
	Insight        insight.Generator
	InsightTimeout time.Duration
	Recorder       recorder.Recorder
	Publisher      events.Publisher
	// PersistTimeout bounds the background record and publish of one response.
	PersistTimeout time.Duration
	Metrics        *metrics.Metrics
	Limits         Limits
	Now            func() time.Time
}

// Assembler validates requests, runs the simulation pipeline and packages the response.
type Assembler struct {
	engine         *simulation.Engine
	insight        insight.Generator
	insightTimeout time.Duration
	recorder       recorder.Recorder
	publisher      events.Publisher
	persistTimeout time.Duration
	metrics        *metrics.Metrics
	limits         Limits
	now            func() time.Time

	pending sync.WaitGroup
}

func New(opts Options) *Assembler {
	a := &Assembler{
		engine:         opts.Engine,
		insight:        opts.Insight,
		insightTimeout: opts.InsightTimeout,
		recorder:       opts.Recorder,
		publisher:      opts.Publisher,
		persistTimeout: opts.PersistTimeout,
		metrics:        opts.Metrics,
		limits:         opts.Limits,
		now:            opts.Now,
	}
	if a.engine == nil {
		a.engine = simulation.NewEngine(simulation.EngineConfig{})
	}
	if a.insight == nil {
		a.insight = insight.Local{}
	}
	if a.insightTimeout <= 0 {
		a.insightTimeout = 20 * time.Second
	}
	if a.recorder == nil {
		a.recorder = recorder.NewNoopRecorder()
	}
	if a.publisher == nil {
		a.publisher = events.NewNoopPublisher()
	}
	if a.persistTimeout <= 0 {
		a.persistTimeout = defaultPersistTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Limits reports the request limits enforced by Run.
func (a *Assembler) Limits() Limits {
	return a.limits
}

// Run serves one simulation request. Validation failures are returned as *ValidationError
// before any computation starts; insight, recorder and publisher failures never fail the call.
func (a *Assembler) Run(ctx context.Context, req SimulationRequest) (*Response, error) {
	start := time.Now()
	id := uuid.NewString()
	logger := log.With().Str("request_id", id).Logger()

	p, err := buildPlan(req, a.limits)
	if err != nil {
		logger.Info().Err(err).Msg("Rejected simulation request")
		a.metrics.ObserveSimulation(metrics.OutcomeInvalid, time.Since(start), 0)
		return nil, err
	}

	logger.Info().
		Str("title", p.title).
		Strs("scenarios", p.scenarios).
		Int("iterations", p.params.Iterations).
		Int("horizon", p.params.TimeHorizon).
		Int("variables", len(p.params.Variables)).
		Uint64("seed", p.params.Seed).
		Msg("Simulation started")

	resp, err := a.simulate(ctx, id, p, logger)
	var nf *simulation.NonFiniteError
	if errors.As(err, &nf) {
		verr := invalid("simulationParams.variables", "%s", nf.Error())
		logger.Info().Err(verr).Msg("Rejected simulation request")
		a.metrics.ObserveSimulation(metrics.OutcomeInvalid, time.Since(start), 0)
		return nil, verr
	}
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		logger.Warn().Err(err).Msg("Simulation failed")
		a.metrics.ObserveSimulation(outcome, time.Since(start), 0)
		return nil, err
	}

	resp.Metadata.DurationMs = time.Since(start).Milliseconds()
	a.metrics.ObserveSimulation(metrics.OutcomeSuccess, time.Since(start), resp.Metadata.TotalIterations)
	a.persist(ctx, resp, logger)

	logger.Info().Int64("duration_ms", resp.Metadata.DurationMs).Msg("Simulation completed")
	return resp, nil
}

func (a *Assembler) simulate(ctx context.Context, id string, p *plan, logger zerolog.Logger) (*Response, error) {
	raw, err := a.engine.RunScenarios(ctx, p.baseline, p.params, p.scenarios)
	if err != nil {
		return nil, fmt.Errorf("run scenarios: %w", err)
	}

	realistic, err := simulation.LookupScenario(simulation.ScenarioRealistic)
	if err != nil {
		return nil, err
	}
	sens, err := a.engine.AnalyzeSensitivity(ctx, p.baseline, p.params, realistic)
	if err != nil {
		return nil, fmt.Errorf("sensitivity analysis: %w", err)
	}

	results := make(map[string]simulation.Result, len(raw))
	for name, r := range raw {
		results[name] = roundResult(r)
	}
	sensitivity := roundSensitivity(sens)

	resp := &Response{
		IdeaTitle:             p.title,
		SimulationParams:      p.echo,
		Results:               results,
		SensitivityAnalysis:   sensitivity,
		MostSensitiveVariable: simulation.MostSensitive(sensitivity),
		GeneratedAt:           a.now().UTC(),
		Metadata: Metadata{
			SimulationID:      id,
			TotalIterations:   p.params.Iterations * len(p.scenarios),
			TimeHorizon:       p.params.TimeHorizon,
			ConfidenceLevel:   p.params.ConfidenceLevel,
			Seed:              p.params.Seed,
			FactorAttribution: a.engine.Attribution(),
		},
	}
	resp.Insights = a.narrate(ctx, insight.NewInput(p.title, p.params.TimeHorizon, p.scenarios, results, sensitivity), logger)
	return resp, nil
}

// narrate asks the insight collaborator within the configured timeout and falls back
// to the local summary on any failure.
func (a *Assembler) narrate(ctx context.Context, in insight.Input, logger zerolog.Logger) string {
	ictx, cancel := context.WithTimeout(ctx, a.insightTimeout)
	defer cancel()

	text, err := a.insight.Generate(ictx, in)
	if err == nil && text != "" {
		return text
	}
	if err == nil {
		err = errors.New("empty insight")
	}
	logger.Warn().Err(err).Msg("Insight generation failed, using local summary")
	a.metrics.InsightFailed()
	return insight.Summarize(in)
}

// persist encodes the record and the completion event, then stores and publishes
// them in the background. The work outlives ctx cancellation and is bounded by
// the persist timeout; failures are logged only. Wait drains it.
func (a *Assembler) persist(ctx context.Context, resp *Response, logger zerolog.Logger) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode simulation record")
		return
	}
	rec := recorder.Record{
		ID:        resp.Metadata.SimulationID,
		Title:     resp.IdeaTitle,
		CreatedAt: resp.GeneratedAt,
		Payload:   payload,
	}
	evt := completedEvent(resp)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.persistTimeout)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer cancel()
		if err := a.recorder.Record(pctx, rec); err != nil {
			logger.Warn().Err(err).Msg("Failed to record simulation")
		}
		if err := a.publisher.Publish(pctx, evt); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish completion event")
		}
	}()
}

func completedEvent(resp *Response) events.CompletedEvent {
	evt := events.CompletedEvent{
		SimulationID: resp.Metadata.SimulationID,
		IdeaTitle:    resp.IdeaTitle,
		Scenarios:    make([]string, 0, len(resp.Results)),
		GeneratedAt:  resp.GeneratedAt,
	}
	for _, name := range simulation.ScenarioNames() {
		if _, ok := resp.Results[name]; ok {
			evt.Scenarios = append(evt.Scenarios, name)
		}
	}
	if r, ok := resp.Results[simulation.ScenarioRealistic]; ok {
		mean := r.Statistics.Mean
		loss := r.RiskMetrics.ProbabilityOfLoss
		evt.RealisticMean = &mean
		evt.ProbabilityOfLoss = &loss
	}
	return evt
}

// Wait blocks until every background record and publish has finished.
func (a *Assembler) Wait() {
	a.pending.Wait()
}

// Lookup returns a previously recorded response payload.
func (a *Assembler) Lookup(ctx context.Context, id string) (recorder.Record, error) {
	return a.recorder.Get(ctx, id)
}
