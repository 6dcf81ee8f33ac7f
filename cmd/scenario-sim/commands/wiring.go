package commands

import (
	"errors"

	"scenario-sim/internal/assembler"
	"scenario-sim/internal/config"
	"scenario-sim/internal/events"
	"scenario-sim/internal/insight"
	"scenario-sim/internal/metrics"
	"scenario-sim/internal/recorder"
	"scenario-sim/internal/simulation"

	"github.com/rs/zerolog/log"
)

// pipeline is the assembled simulation stack of one process.
type pipeline struct {
	assembler *assembler.Assembler
	recorder  recorder.Recorder
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func newPipeline(cfg *config.AppConfig) (*pipeline, error) {
	p := &pipeline{metrics: metrics.New()}

	if cfg.Recorder.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath)
		if err != nil {
			return nil, err
		}
		p.recorder = rec
	} else {
		p.recorder = recorder.NewNoopRecorder()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p.publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		p.publisher = events.NewNoopPublisher()
	}

	var gen insight.Generator = insight.Local{}
	if cfg.Insight.URL != "" {
		gen = insight.NewHTTPGenerator(insight.Config{
			URL:     cfg.Insight.URL,
			APIKey:  cfg.Insight.APIKey,
			Model:   cfg.Insight.Model,
			Timeout: cfg.Insight.Timeout,
		})
	}

	p.assembler = assembler.New(assembler.Options{
		Engine:         simulation.NewEngine(simulation.EngineConfig{Workers: cfg.Workers, Attribution: cfg.Attribution}),
		Insight:        gen,
		InsightTimeout: cfg.Insight.Timeout,
		Recorder:       p.recorder,
		Publisher:      p.publisher,
		Metrics:        p.metrics,
		Limits:         assembler.Limits{MaxIterations: cfg.MaxIterations, MaxTimeHorizon: cfg.MaxTimeHorizon},
	})

	log.Debug().
		Int("workers", cfg.Workers).
		Str("attribution", string(cfg.Attribution)).
		Bool("sqlite", cfg.Recorder.SQLitePath != "").
		Bool("kafka", len(cfg.Kafka.Brokers) > 0).
		Bool("remote_insight", cfg.Insight.URL != "").
		Msg("Simulation pipeline ready")
	return p, nil
}

// Close drains pending records and events before closing their sinks.
func (p *pipeline) Close() error {
	p.assembler.Wait()
	return errors.Join(p.publisher.Close(), p.recorder.Close())
}
