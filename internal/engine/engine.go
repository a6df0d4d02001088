package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/config"
	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/monitoring"
	"github.com/bibharvest/bibharvest/internal/record"
	"github.com/bibharvest/bibharvest/internal/sandbox"
	"github.com/bibharvest/bibharvest/internal/translator"
)

// Terminal caller-visible outcomes. All per-candidate faults are recovered
// locally; only these two surface.
var (
	// ErrNoMatch: no descriptor's URL pattern matched.
	ErrNoMatch = errors.New("no translator matched the url")
	// ErrNoExtraction: every matching candidate probed negative or
	// extracted nothing.
	ErrNoExtraction = errors.New("no translator could extract")
)

// Request describes one extraction invocation.
type Request struct {
	URL string
	// HTML, when set, skips the upstream fetch and parses this text.
	HTML string
	// Headers are sent with the upstream page fetch.
	Headers map[string]string
	// Timeout bounds the upstream fetch-and-parse step only; once
	// extraction begins, cancellation is limited to the grace-period
	// cutoff.
	Timeout time.Duration
}

// Outcome is a successful extraction: the winning translator's label and
// its finalized records.
type Outcome struct {
	Translator string            `json:"translator"`
	Records    []record.Snapshot `json:"records"`
}

// Engine resolves candidate translators for a URL and runs their probe and
// extraction phases in priority order. Candidates for one URL run strictly
// sequentially; different URLs share nothing but the catalog and fetcher.
type Engine struct {
	catalog *translator.Catalog
	fetcher *sandbox.Fetcher
	cfg     config.EngineConfig
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// New creates an engine. metrics may be nil.
func New(catalog *translator.Catalog, fetcher *sandbox.Fetcher, cfg config.EngineConfig, metrics *monitoring.Metrics, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{
		catalog: catalog,
		fetcher: fetcher,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
	}
}

// Extract runs the full pipeline for one URL: resolve candidates, probe each
// in order, extract with the first positive prober, finish with the first
// candidate yielding at least one finalized record.
func (e *Engine) Extract(ctx context.Context, req Request) (*Outcome, error) {
	log := e.log.With(zap.String("run", uuid.NewString()), zap.String("url", req.URL))

	doc, err := e.loadDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("could not obtain document: %w", err)
	}

	candidates := e.catalog.Resolve(req.URL)
	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}
	log.Debug("candidates resolved", zap.Int("count", len(candidates)))

	for _, cand := range candidates {
		clog := log.With(zap.String("translator", cand.Label))

		if !e.probe(ctx, cand, doc, req.URL, clog) {
			continue
		}

		records := e.extract(ctx, cand, doc, req.URL, clog)
		if len(records) > 0 {
			clog.Info("extraction succeeded", zap.Int("records", len(records)))
			return &Outcome{Translator: cand.Label, Records: records}, nil
		}
	}

	return nil, ErrNoExtraction
}

// loadDocument obtains the page document: pre-fetched text when provided,
// otherwise a network fetch bounded by the request timeout.
func (e *Engine) loadDocument(ctx context.Context, req Request) (*document.Document, error) {
	if req.HTML != "" {
		return document.Parse(req.HTML, req.URL)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	return e.fetcher.Page(ctx, req.URL, req.Headers)
}

// probe runs the candidate's detection entry point. Any fault, timeout or
// falsy result advances to the next candidate; nothing aborts resolution
// for the others.
func (e *Engine) probe(ctx context.Context, cand *translator.Translator, doc *document.Document, url string, log *logging.Logger) bool {
	rt, err := sandbox.NewRuntime(sandbox.Options{
		Ctx:      ctx,
		Document: doc,
		PageURL:  url,
		Fetcher:  e.fetcher,
		Log:      log,
	})
	if err != nil {
		e.countProbe("fault")
		return false
	}
	if err := rt.Load(cand.Body); err != nil {
		log.Debug("probe skipped: load failed", zap.Error(err))
		e.countProbe("fault")
		return false
	}

	type probeResult struct {
		token    string
		positive bool
		err      error
	}
	ch := make(chan probeResult, 1)
	go func() {
		token, positive, err := rt.Probe()
		ch <- probeResult{token: token, positive: positive, err: err}
	}()

	timer := time.NewTimer(e.cfg.ProbeTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		switch {
		case res.err != nil:
			log.Debug("probe fault", zap.Error(res.err))
			e.countProbe("fault")
			return false
		case !res.positive:
			e.countProbe("negative")
			return false
		default:
			// The token is advisory only; it is not load-bearing here.
			log.Debug("probe positive", zap.String("kind", res.token))
			e.countProbe("positive")
			return true
		}
	case <-timer.C:
		rt.Interrupt("probe timeout")
		<-ch
		e.countProbe("timeout")
		return false
	case <-ctx.Done():
		rt.Interrupt("cancelled")
		<-ch
		e.countProbe("cancelled")
		return false
	}
}

// extract runs the candidate's extraction entry point, collecting finalized
// records as they are emitted. The run finishes when the entry goroutine
// returns; the grace period is only the fallback bound, after which the VM
// is interrupted and whatever was emitted by then is kept. Records emitted
// after the interrupt are lost. A thrown fault degrades to zero records and
// never propagates.
func (e *Engine) extract(ctx context.Context, cand *translator.Translator, doc *document.Document, url string, log *logging.Logger) []record.Snapshot {
	agg := record.NewAggregator()
	rt, err := sandbox.NewRuntime(sandbox.Options{
		Ctx:      ctx,
		Document: doc,
		PageURL:  url,
		Fetcher:  e.fetcher,
		Log:      log,
		Emit: func(s record.Snapshot) {
			agg.Add(s)
			if e.metrics != nil {
				e.metrics.RecordsEmitted.Inc()
			}
		},
	})
	if err != nil {
		e.countExtraction("fault")
		return nil
	}
	if err := rt.Load(cand.Body); err != nil {
		log.Debug("extraction skipped: load failed", zap.Error(err))
		e.countExtraction("fault")
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- rt.Extract()
	}()

	timer := time.NewTimer(e.cfg.GracePeriod)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			log.Warn("extraction fault", zap.Error(err))
			e.countExtraction("fault")
			return nil
		}
		if agg.Count() == 0 {
			e.countExtraction("empty")
			return nil
		}
		e.countExtraction("success")
		return agg.Records()
	case <-timer.C:
		rt.Interrupt("grace period elapsed")
		<-done
		if e.metrics != nil {
			e.metrics.GraceTimeouts.Inc()
		}
		log.Warn("extraction interrupted at grace period", zap.Int("records", agg.Count()))
		e.countExtraction("timeout")
		return agg.Records()
	case <-ctx.Done():
		rt.Interrupt("cancelled")
		<-done
		e.countExtraction("cancelled")
		return agg.Records()
	}
}

func (e *Engine) countProbe(outcome string) {
	if e.metrics != nil {
		e.metrics.ProbesTotal.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) countExtraction(outcome string) {
	if e.metrics != nil {
		e.metrics.ExtractionsTotal.WithLabelValues(outcome).Inc()
	}
}
