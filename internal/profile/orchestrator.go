// Package profile builds one company profile from one website: it fetches
// the seed page, picks the links worth following, extracts facts from each
// page and merges them in a final model call.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
)

// State is a step of a run.
type State string

const (
	StateSeedFetch   State = "SEED_FETCH"
	StateSeedExtract State = "SEED_EXTRACT_AND_LINK_SELECT"
	StatePageFanOut  State = "PAGE_FAN_OUT"
	StateConsolidate State = "CONSOLIDATE"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Options bounds a run.
type Options struct {
	MaxLinks     int
	MinTextChars int
	ListCap      int
	// RunBudget bounds the whole run; LinkTimeout bounds each followed link.
	RunBudget   time.Duration
	LinkTimeout time.Duration
	// OnState is called as the run enters each state.
	OnState func(State)
}

// DefaultOptions returns the run bounds used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxLinks:     DefaultMaxLinks,
		MinTextChars: DefaultMinTextChars,
		ListCap:      model.DefaultListCap,
		RunBudget:    150 * time.Second,
		LinkTimeout:  45 * time.Second,
	}
}

// StageTiming records how long a state took.
type StageTiming struct {
	Stage    State
	Duration time.Duration
}

// Result is the outcome of a run. On failure it still carries the pages
// visited and the usage spent so far, but no profile.
type Result struct {
	Profile       *model.CompanyProfile
	Pages         []model.PageOutcome
	SelectedLinks []string
	Usage         llm.Usage
	Stages        []StageTiming
}

// Orchestrator runs the fetch, select, extract and consolidate sequence.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	fetcher      fetch.Fetcher
	extractor    *Extractor
	selector     *Selector
	consolidator *Consolidator
	opts         Options
}

// NewOrchestrator creates an Orchestrator. Zero option fields take defaults.
func NewOrchestrator(f fetch.Fetcher, c llm.Completer, opts Options) *Orchestrator {
	def := DefaultOptions()
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = def.MaxLinks
	}
	if opts.MinTextChars <= 0 {
		opts.MinTextChars = def.MinTextChars
	}
	if opts.ListCap <= 0 {
		opts.ListCap = def.ListCap
	}
	if opts.RunBudget <= 0 {
		opts.RunBudget = def.RunBudget
	}
	if opts.LinkTimeout <= 0 {
		opts.LinkTimeout = def.LinkTimeout
	}
	return &Orchestrator{
		fetcher:      f,
		extractor:    NewExtractor(c, opts.MinTextChars, opts.ListCap),
		selector:     NewSelector(c, opts.MaxLinks),
		consolidator: NewConsolidator(c, opts.ListCap),
		opts:         opts,
	}
}

// run is the per-run state: the conversation, the accumulating result and
// the lock guarding both.
type run struct {
	seedURL string
	conv    *model.Conversation
	log     *zap.Logger

	mu  sync.Mutex
	res *Result

	state      State
	stateStart time.Time
	onState    func(State)
}

func (r *run) enter(s State) {
	now := time.Now()
	if r.state != "" {
		r.res.Stages = append(r.res.Stages, StageTiming{Stage: r.state, Duration: now.Sub(r.stateStart)})
	}
	r.state, r.stateStart = s, now
	if r.onState != nil {
		r.onState(s)
	}
}

func (r *run) addUsage(u llm.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Usage.Add(u)
}

// appendPartial records a page's extraction in the conversation. A partial
// with no fields adds nothing to the merge and is left out.
func (r *run) appendPartial(pageURL string, p *model.CompanyProfile) error {
	if p.IsEmpty() {
		r.log.Debug("profile: empty extraction", zap.String("page", pageURL))
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.conv.Append(model.Entry{Role: model.RoleUser, Source: pageURL, Content: string(raw)})
	return nil
}

// Run builds the profile for seedURL. A non-nil error is always a
// *RunError; the returned Result is never nil.
func (o *Orchestrator) Run(ctx context.Context, seedURL string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.opts.RunBudget)
	defer cancel()

	r := &run{
		seedURL: seedURL,
		conv:    model.NewConversation(MergeInstruction),
		log:     zap.L().With(zap.String("url", seedURL)),
		res:     &Result{},
		onState: o.opts.OnState,
	}

	profile, err := o.run(runCtx, r)
	if err != nil {
		re := o.classify(runCtx, r, err)
		r.enter(StateFailed)
		r.log.Warn("profile: run failed",
			zap.String("kind", string(re.Kind)),
			zap.String("stage", string(re.Stage)),
			zap.Error(re.Err),
		)
		return r.res, re
	}

	r.res.Profile = profile
	r.enter(StateDone)
	r.log.Info("profile: run complete",
		zap.Int("fields", profile.FilledFields()),
		zap.Int("pages", len(r.res.Pages)),
		zap.Float64("cost_usd", r.res.Usage.CostUSD),
	)
	return r.res, nil
}

// classify converts a stage error to a RunError. Exhausting the run budget
// is a timeout whatever stage it interrupted.
func (o *Orchestrator) classify(runCtx context.Context, r *run, err error) *RunError {
	re, ok := AsRunError(err)
	if !ok {
		re = &RunError{Kind: model.FailureConsolidation, URL: r.seedURL, Stage: r.state, Err: err}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		re.Kind = model.FailureTimeout
	}
	return re
}

func (o *Orchestrator) run(ctx context.Context, r *run) (*model.CompanyProfile, error) {
	r.enter(StateSeedFetch)
	seed, err := o.fetcher.Fetch(ctx, r.seedURL)
	if err != nil {
		r.res.Pages = append(r.res.Pages, model.PageOutcome{URL: r.seedURL, Status: pageFailureStatus(ctx, model.PageStatusFetchFailed), Error: err.Error()})
		return nil, &RunError{Kind: model.FailureFetch, URL: r.seedURL, Stage: StateSeedFetch, Err: err}
	}

	r.enter(StateSeedExtract)
	links, err := o.seedStage(ctx, r, seed)
	if err != nil {
		return nil, err
	}
	r.res.SelectedLinks = links

	r.enter(StatePageFanOut)
	o.fanOut(ctx, r, links)
	if ctx.Err() != nil {
		return nil, &RunError{Kind: model.FailureTimeout, URL: r.seedURL, Stage: StatePageFanOut, Err: ctx.Err()}
	}

	r.enter(StateConsolidate)
	if r.conv.Len() == 0 {
		r.log.Info("profile: no informative pages, skipping consolidation")
		return &model.CompanyProfile{WebsiteLink: r.seedURL}, nil
	}
	merged, usage, err := o.consolidator.Consolidate(ctx, r.conv)
	r.addUsage(usage)
	if err != nil {
		return nil, &RunError{Kind: model.FailureConsolidation, URL: r.seedURL, Stage: StateConsolidate, Err: err}
	}
	// The seed URL is the profile's identity whatever the model reported.
	merged.WebsiteLink = r.seedURL
	merged.Normalize(o.opts.ListCap)
	return merged, nil
}

// seedStage extracts the seed page and selects links concurrently. Only an
// extraction error is fatal; a failed selection degrades to no links.
func (o *Orchestrator) seedStage(ctx context.Context, r *run, seed *fetch.Page) ([]string, error) {
	pageURL := seed.URL
	if pageURL == "" {
		pageURL = r.seedURL
	}

	var (
		partial *model.CompanyProfile
		links   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, usage, err := o.extractor.Extract(gctx, pageURL, seed.Markdown)
		r.addUsage(usage)
		if err != nil {
			return &RunError{Kind: model.FailureExtraction, URL: r.seedURL, Stage: StateSeedExtract, Err: err}
		}
		partial = p
		return nil
	})
	g.Go(func() error {
		selected, usage, err := o.selector.Select(gctx, r.seedURL, seed.Links)
		r.addUsage(usage)
		if err != nil {
			r.log.Warn("profile: link selection failed, continuing with seed only",
				zap.String("stage", string(StateSeedExtract)),
				zap.Error(err),
			)
			return nil
		}
		links = selected
		return nil
	})
	if err := g.Wait(); err != nil {
		r.res.Pages = append(r.res.Pages, model.PageOutcome{URL: pageURL, Status: pageFailureStatus(ctx, model.PageStatusExtractFailed), Error: err.Error()})
		return nil, err
	}

	status := model.PageStatusLowSignal
	if partial != nil {
		if err := r.appendPartial(pageURL, partial); err != nil {
			return nil, &RunError{Kind: model.FailureExtraction, URL: r.seedURL, Stage: StateSeedExtract, Err: err}
		}
		status = model.PageStatusExtracted
	}
	r.res.Pages = append(r.res.Pages, model.PageOutcome{URL: pageURL, Status: status})
	return links, nil
}

// fanOut fetches and extracts every selected link concurrently. Failures
// are recorded per page and never abort the run.
func (o *Orchestrator) fanOut(ctx context.Context, r *run, links []string) {
	if len(links) == 0 {
		return
	}
	outcomes := make([]model.PageOutcome, len(links))

	var g errgroup.Group
	g.SetLimit(o.opts.MaxLinks)
	for i, link := range links {
		g.Go(func() error {
			outcomes[i] = o.visit(ctx, r, link)
			return nil
		})
	}
	_ = g.Wait()

	r.res.Pages = append(r.res.Pages, outcomes...)
}

func (o *Orchestrator) visit(ctx context.Context, r *run, link string) model.PageOutcome {
	linkCtx, cancel := context.WithTimeout(ctx, o.opts.LinkTimeout)
	defer cancel()
	log := r.log.With(zap.String("link", link), zap.String("stage", string(StatePageFanOut)))

	page, err := o.fetcher.Fetch(linkCtx, link)
	if err != nil {
		status := pageFailureStatus(linkCtx, model.PageStatusFetchFailed)
		log.Info("profile: link fetch failed", zap.String("status", string(status)), zap.Error(err))
		return model.PageOutcome{URL: link, Status: status, Error: err.Error()}
	}
	if !o.extractor.Informative(page.Markdown) {
		return model.PageOutcome{URL: link, Status: model.PageStatusLowSignal}
	}

	partial, usage, err := o.extractor.Extract(linkCtx, link, page.Markdown)
	r.addUsage(usage)
	if err != nil {
		status := pageFailureStatus(linkCtx, model.PageStatusExtractFailed)
		log.Info("profile: link extraction failed", zap.String("status", string(status)), zap.Error(err))
		return model.PageOutcome{URL: link, Status: status, Error: err.Error()}
	}
	if partial == nil {
		return model.PageOutcome{URL: link, Status: model.PageStatusLowSignal}
	}
	if err := r.appendPartial(link, partial); err != nil {
		return model.PageOutcome{URL: link, Status: model.PageStatusExtractFailed, Error: err.Error()}
	}
	return model.PageOutcome{URL: link, Status: model.PageStatusExtracted}
}

func pageFailureStatus(ctx context.Context, fallback model.PageStatus) model.PageStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.PageStatusTimeout
	}
	return fallback
}
