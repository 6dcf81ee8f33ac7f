package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scenario-sim/internal/assembler"
	"scenario-sim/internal/recorder"
	"scenario-sim/internal/simulation"

	"github.com/spf13/cobra"
)

func TestScheduleRetention(t *testing.T) {
	rec := recorder.NewNoopRecorder()

	if _, err := scheduleRetention(context.Background(), rec, "@daily", time.Hour); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	if _, err := scheduleRetention(context.Background(), rec, "every other tuesday", time.Hour); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestPruneRecords(t *testing.T) {
	ctx := context.Background()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()

	old := recorder.Record{ID: "old", Title: "Old", CreatedAt: time.Now().Add(-48 * time.Hour), Payload: []byte(`{}`)}
	fresh := recorder.Record{ID: "fresh", Title: "Fresh", CreatedAt: time.Now(), Payload: []byte(`{}`)}
	for _, r := range []recorder.Record{old, fresh} {
		if err := rec.Record(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.ID, err)
		}
	}

	pruneRecords(ctx, rec, 24*time.Hour)

	if _, err := rec.Get(ctx, "old"); !errors.Is(err, recorder.ErrNotFound) {
		t.Errorf("old record should be pruned, got err=%v", err)
	}
	if _, err := rec.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh record should survive: %v", err)
	}
}

func TestRunSimulate(t *testing.T) {
	a := assembler.New(assembler.Options{
		Engine: simulation.NewEngine(simulation.EngineConfig{Workers: 2}),
		Limits: assembler.Limits{MaxIterations: 10000, MaxTimeHorizon: 120},
	})
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	in := strings.NewReader(`{
		"ideaData": {"title": "Bakery", "pricing": 100, "monthly_costs": 50, "initial_investment": 10000},
		"simulationParams": {"timeHorizon": 12, "iterations": 200, "confidenceLevel": 0.95, "seed": 7},
		"scenarioTypes": ["realistic"]
	}`)
	var out bytes.Buffer
	if err := runSimulate(cmd, a, in, &out); err != nil {
		t.Fatalf("runSimulate: %v", err)
	}

	var resp assembler.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if resp.IdeaTitle != "Bakery" {
		t.Errorf("title = %q", resp.IdeaTitle)
	}
	if _, ok := resp.Results["realistic"]; !ok {
		t.Errorf("missing realistic result: %v", resp.Results)
	}

	if err := runSimulate(cmd, a, strings.NewReader("{"), &out); err == nil {
		t.Error("expected decode error")
	}
}
