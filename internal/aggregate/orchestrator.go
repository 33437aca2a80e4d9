// Package aggregate sequences the pipeline: per-document directives,
// schema-driven structure synthesis, derivation rules, base-property
// population and, when requested, strategy-based combination.
package aggregate

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/bounds"
	"github.com/agentic-research/collate/internal/derive"
	"github.com/agentic-research/collate/internal/directive"
	"github.com/agentic-research/collate/internal/frontmatter"
	"github.com/agentic-research/collate/internal/inventory"
	"github.com/agentic-research/collate/internal/pathmodel"
	"github.com/agentic-research/collate/internal/resolver"
	"github.com/agentic-research/collate/internal/strategy"
)

// Options tune one run.
type Options struct {
	// Workers is the parallel batch width; <=1 runs sequentially.
	Workers int
	// Strategy, when non-nil, bypasses schema-driven placement and
	// combines payloads with the named strategy.
	Strategy *strategy.Kind
	// StrategyOptions apply to explicit and fallback strategies.
	StrategyOptions strategy.Options
	// MaxHeapBytes bounds the heap between batches; 0 disables.
	MaxHeapBytes uint64
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Data           map[string]any
	SourceCount    int
	StrategyName   string
	ExecutionTime  time.Duration
	DocumentErrors []DocumentError
	RuleReport     derive.ConversionReport
	Index          *inventory.Index
}

// Metadata describes a run for the caller-side writer.
type Metadata struct {
	SchemaPath             string
	TemplatePath           string
	OutputPath             string
	InputPaths             []string
	ProcessedDocumentCount int
	ExecutionTime          time.Duration
}

// Orchestrator drives one aggregation run. Not reusable: create one per
// invocation.
type Orchestrator struct {
	loader *frontmatter.Loader
	schema *api.Schema
	opts   Options
	state  State
	log    *zap.Logger
}

func New(loader *frontmatter.Loader, schema *api.Schema, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		loader: loader,
		schema: schema,
		opts:   opts,
		state:  StateSchemaResolved,
		log:    log,
	}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) advance(s State) {
	o.state = s
	o.log.Debug("stage complete", zap.Stringer("state", s))
}

func (o *Orchestrator) fail(stage State, err error) (*Result, error) {
	o.state = StateFailed
	return nil, &StageError{Stage: stage, Err: err}
}

// Run executes the pipeline over the given input paths.
func (o *Orchestrator) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	monitor := &bounds.Monitor{MaxHeapBytes: o.opts.MaxHeapBytes}

	payloads, docErrs, err := o.processDocuments(ctx, paths, monitor)
	if err != nil {
		return o.fail(StateDirectivesApplied, err)
	}
	if len(paths) == 1 && len(docErrs) == 1 {
		// A single input has nothing to fall back to: surface its
		// failure immediately.
		return o.fail(StateDirectivesApplied, docErrs[0])
	}
	if len(paths) > 0 && len(payloads) == 0 {
		return o.fail(StateDirectivesApplied, ErrAggregationFailed)
	}
	ix := inventory.New()
	for _, p := range payloads {
		ix.Add(pathmodel.New(p))
	}
	o.advance(StateDirectivesApplied)

	data, strategyName, err := o.combine(payloads)
	if err != nil {
		return o.fail(StateStructureSynthesized, err)
	}
	o.advance(StateStructureSynthesized)

	report := derive.ConvertRules(o.schema)
	if len(report.Failed) > 0 {
		o.log.Warn("derivation rule conversion failures",
			zap.Int("failed", len(report.Failed)),
			zap.Int("succeeded", len(report.Rules)))
	}
	model := derive.Apply(pathmodel.New(data), report.Rules)
	o.advance(StateRulesApplied)

	model, err = o.populateDefaults(model)
	if err != nil {
		return o.fail(StatePopulated, err)
	}
	o.advance(StatePopulated)

	o.advance(StateDone)
	return &Result{
		Data:           model.Raw(),
		SourceCount:    len(payloads),
		StrategyName:   strategyName,
		ExecutionTime:  time.Since(start),
		DocumentErrors: docErrs,
		RuleReport:     report,
		Index:          ix,
	}, nil
}

type docResult struct {
	payload map[string]any
	err     error
}

// processDocuments loads and transforms every input. Documents are
// handled sequentially or in fixed-size batches of ceil(n/workers);
// within a batch all documents run concurrently and independently, and
// the accumulation buffer is written only after the batch completes.
// The bounds monitor is consulted after each batch (each file when
// sequential); exceeding it aborts the whole run.
func (o *Orchestrator) processDocuments(ctx context.Context, paths []string, monitor *bounds.Monitor) ([]map[string]any, []DocumentError, error) {
	results := make([]*docResult, len(paths))

	workers := o.opts.Workers
	if workers <= 1 {
		for i, path := range paths {
			results[i] = o.processOne(path)
			if err := monitor.Check(); err != nil {
				return nil, nil, err
			}
		}
	} else {
		batchSize := (len(paths) + workers - 1) / workers
		for start := 0; start < len(paths); start += batchSize {
			end := start + batchSize
			if end > len(paths) {
				end = len(paths)
			}
			batch := make([]*docResult, end-start)

			g, _ := errgroup.WithContext(ctx)
			for i, path := range paths[start:end] {
				g.Go(func() error {
					batch[i] = o.processOne(path)
					return nil
				})
			}
			_ = g.Wait() // per-document failures are carried in results

			// Batch-synchronized flush: the next batch never starts
			// before these writes land.
			copy(results[start:end], batch)

			if err := monitor.Check(); err != nil {
				return nil, nil, err
			}
		}
	}

	payloads := make([]map[string]any, 0, len(paths))
	var docErrs []DocumentError
	for i, r := range results {
		if r.err != nil {
			o.log.Warn("document skipped", zap.String("path", paths[i]), zap.Error(r.err))
			docErrs = append(docErrs, DocumentError{Path: paths[i], Err: r.err})
			continue
		}
		payloads = append(payloads, r.payload)
	}
	return payloads, docErrs, nil
}

func (o *Orchestrator) processOne(path string) *docResult {
	doc, err := o.loader.Load(path)
	if err != nil {
		return &docResult{err: err}
	}
	model, err := directive.Apply(doc.Frontmatter, o.schema)
	if err != nil {
		return &docResult{err: err}
	}
	if o.schema != nil {
		if missing := o.schema.MissingRequired(model.Raw()); len(missing) > 0 {
			o.log.Warn("missing required frontmatter keys",
				zap.String("path", path), zap.Strings("missing", missing))
		}
	}
	return &docResult{payload: model.Raw()}
}

// combine reduces the payloads to one structure: explicit strategy when
// requested, schema-driven placement otherwise, with a direct merge as
// the fallback for schemas without insertion points.
func (o *Orchestrator) combine(payloads []map[string]any) (map[string]any, string, error) {
	if o.opts.Strategy != nil {
		s := strategy.New(*o.opts.Strategy, o.opts.StrategyOptions)
		data, err := s.Combine(payloads)
		return data, s.Name(), err
	}

	data, err := resolver.Resolve(o.schema, payloads)
	if errors.Is(err, resolver.ErrNoInsertionPoints) {
		o.log.Debug("no insertion points in schema, falling back to merge")
		s := strategy.New(strategy.MergeAggregation, o.opts.StrategyOptions)
		data, err := s.Combine(payloads)
		return data, s.Name(), err
	}
	if err != nil {
		return nil, "", err
	}
	return data, "schema-placement", nil
}

// populateDefaults fills top-level schema properties that declare a
// default and are absent from the aggregated structure.
func (o *Orchestrator) populateDefaults(model pathmodel.Model) (pathmodel.Model, error) {
	if o.schema == nil {
		return model, nil
	}
	names := make([]string, 0, len(o.schema.Properties))
	for name := range o.schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop := o.schema.Properties[name]
		if prop.Default == nil {
			continue
		}
		if _, ok := model.Raw()[name]; ok {
			continue
		}
		next, err := model.Set(name, prop.Default)
		if err != nil {
			return model, err
		}
		model = next
	}
	return model, nil
}
