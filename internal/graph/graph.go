// Package graph implements the stage-graph executor: stages declare named
// dependencies, jobs select subsets of the graph, and runs execute the
// selection in topological order, strictly sequentially. A stage gets the
// tables produced by its dependencies, returns a new table, and may attach
// diagnostic metadata to its result. The executor is the single point that
// turns a failed stage into a halted pipeline: once a stage fails, nothing
// downstream runs, and the run as a whole reports FAILED while retaining the
// outputs of already-succeeded stages for diagnostics.
package graph

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"wikietl/internal/metrics"
	"wikietl/internal/table"
)

// Status is the per-stage state machine: PENDING → RUNNING → {SUCCEEDED,
// FAILED}. Stages cut off by an upstream failure stay PENDING.
type Status int

const (
	Pending Status = iota
	Running
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Input is one dependency's contribution to a downstream stage: the table it
// produced plus the diagnostic metadata it attached. Passing the metadata
// along is what lets a degraded fallback tag travel to the export stage.
type Input struct {
	Table table.Table
	Meta  Meta
}

// Inputs carries the outputs of a stage's declared dependencies, keyed by
// stage name.
type Inputs map[string]Input

// Meta is the ephemeral per-stage diagnostic metadata. It is reported in the
// run result and never persisted unless a stage explicitly materializes it
// as output columns.
type Meta map[string]any

// RunFunc is one stage's body. It must not mutate its inputs.
type RunFunc func(ctx context.Context, in Inputs, meta Meta) (table.Table, error)

// Stage is one named, idempotent transformation step.
type Stage struct {
	Name string
	Deps []string
	Run  RunFunc
}

// Job is a named, ordered sub-selection of the stage graph. Running a job
// executes the selected stages plus any declared dependencies the selection
// left out.
type Job struct {
	Name        string
	Description string
	Stages      []string
}

// Graph holds the registered stages and jobs.
type Graph struct {
	stages map[string]Stage
	jobs   map[string]Job
}

// New constructs an empty graph.
func New() *Graph {
	return &Graph{stages: map[string]Stage{}, jobs: map[string]Job{}}
}

// AddStage registers a stage. Duplicate names are wiring errors.
func (g *Graph) AddStage(s Stage) error {
	if s.Name == "" {
		return fmt.Errorf("graph: stage name must not be empty")
	}
	if s.Run == nil {
		return fmt.Errorf("graph: stage %q has no run function", s.Name)
	}
	if _, dup := g.stages[s.Name]; dup {
		return fmt.Errorf("graph: stage %q registered twice", s.Name)
	}
	g.stages[s.Name] = s
	return nil
}

// AddJob registers a job over previously added stages.
func (g *Graph) AddJob(j Job) error {
	if j.Name == "" {
		return fmt.Errorf("graph: job name must not be empty")
	}
	if _, dup := g.jobs[j.Name]; dup {
		return fmt.Errorf("graph: job %q registered twice", j.Name)
	}
	for _, name := range j.Stages {
		if _, ok := g.stages[name]; !ok {
			return fmt.Errorf("graph: job %q selects unknown stage %q", j.Name, name)
		}
	}
	g.jobs[j.Name] = j
	return nil
}

// Job looks up a registered job by name.
func (g *Graph) Job(name string) (Job, bool) {
	j, ok := g.jobs[name]
	return j, ok
}

// Jobs lists registered jobs sorted by name.
func (g *Graph) Jobs() []Job {
	out := make([]Job, 0, len(g.jobs))
	for _, j := range g.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Resolve expands a job's selection with its transitive dependencies and
// returns the execution order: topological, with the job's own selection
// order used as the tie-break so runs stay deterministic.
func (g *Graph) Resolve(j Job) ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := map[string]int{}
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("graph: dependency cycle through stage %q", name)
		}
		s, ok := g.stages[name]
		if !ok {
			return fmt.Errorf("graph: unknown stage %q", name)
		}
		state[name] = visiting
		for _, dep := range s.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range j.Stages {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// StageResult reports one stage of a run.
type StageResult struct {
	Name     string
	Status   Status
	Output   table.Table
	Meta     Meta
	Err      error
	Duration time.Duration
}

// Report is the outcome of one job run.
type Report struct {
	RunID   string
	Job     string
	Results []StageResult // in execution order; cut-off stages stay PENDING
	Err     error         // error of the failed stage, if any
}

// Succeeded reports whether every executed stage succeeded.
func (r Report) Succeeded() bool { return r.Err == nil }

// Result returns the result for a stage by name.
func (r Report) Result(name string) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return StageResult{}, false
}

// Run executes the job's resolved stage order, strictly sequentially, one
// attempt per stage. Outputs propagate to downstream stages through their
// declared dependencies. On the first failure the remaining stages are left
// PENDING and the report carries the stage error.
func (g *Graph) Run(ctx context.Context, j Job) (Report, error) {
	order, err := g.Resolve(j)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		RunID:   uuid.NewString(),
		Job:     j.Name,
		Results: make([]StageResult, 0, len(order)),
	}
	outputs := make(map[string]Input, len(order))

	log.Printf("graph: run %s job=%s stages=%d", rep.RunID, j.Name, len(order))

	halted := false
	for _, name := range order {
		if halted {
			rep.Results = append(rep.Results, StageResult{Name: name, Status: Pending})
			continue
		}
		s := g.stages[name]

		in := make(Inputs, len(s.Deps))
		for _, dep := range s.Deps {
			in[dep] = outputs[dep]
		}
		meta := Meta{}

		res := StageResult{Name: name, Status: Running, Meta: meta}
		start := time.Now()
		out, err := s.Run(ctx, in, meta)
		res.Duration = time.Since(start)
		metrics.RecordStage(j.Name, name, err, res.Duration)

		if err != nil {
			res.Status = Failed
			res.Err = err
			rep.Err = fmt.Errorf("stage %q: %w", name, err)
			halted = true
			log.Printf("graph: run %s stage=%s status=%s err=%v", rep.RunID, name, res.Status, err)
		} else {
			res.Status = Succeeded
			res.Output = out
			outputs[name] = Input{Table: out, Meta: meta}
			metrics.RecordRows(j.Name, name, out.Len())
			log.Printf("graph: run %s stage=%s status=%s rows=%d in %s",
				rep.RunID, name, res.Status, out.Len(), res.Duration.Truncate(time.Millisecond))
		}
		rep.Results = append(rep.Results, res)
	}

	return rep, rep.Err
}
