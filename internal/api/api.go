// Package api serves the asynchronous profile API: submit a website, poll
// the run, read stored profiles.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/internal/store"
)

// Runner creates and executes runs.
type Runner interface {
	CreateRun(ctx context.Context, company model.Company) (*model.Run, error)
	Execute(ctx context.Context, run *model.Run) (*model.Run, error)
}

// Reader is the read side of the store the API exposes.
type Reader interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
	GetProfile(ctx context.Context, url string) (*model.ProfileRecord, error)
}

// Options configures a Server.
type Options struct {
	MaxInflight    int
	CORSOrigins    []string
	RequestsPerMin int
}

// Server executes submitted runs in the background, at most MaxInflight at
// a time.
type Server struct {
	runner Runner
	reader Reader
	opts   Options

	// base is the lifetime of background runs.
	base     context.Context
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New creates a Server. Background runs are cancelled when ctx is done.
func New(ctx context.Context, runner Runner, reader Reader, opts Options) *Server {
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = 10
	}
	if opts.RequestsPerMin <= 0 {
		opts.RequestsPerMin = 60
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		runner:   runner,
		reader:   reader,
		opts:     opts,
		base:     ctx,
		inflight: make(chan struct{}, opts.MaxInflight),
	}
}

// Wait blocks until every background run has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Handler returns the router with middleware and every operation mounted.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	router.Use(middleware.RequestSize(64 * 1024))
	router.Use(httprate.LimitByIP(s.opts.RequestsPerMin, time.Minute))

	api := humachi.New(router, huma.DefaultConfig("Company Profile API", "1.0.0"))
	s.register(api)
	return router
}

func (s *Server) register(api huma.API) {
	huma.Get(api, "/healthz", s.health)
	huma.Register(api, huma.Operation{
		OperationID:   "create-profile",
		Method:        http.MethodPost,
		Path:          "/v1/profiles",
		Summary:       "Start a profile run for a website",
		DefaultStatus: http.StatusAccepted,
	}, s.createProfile)
	huma.Get(api, "/v1/profiles", s.getProfile)
	huma.Get(api, "/v1/runs", s.listRuns)
	huma.Get(api, "/v1/runs/{id}", s.getRun)
}

// HealthOutput is the liveness response.
type HealthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func (s *Server) health(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// CreateProfileInput is the submission body.
type CreateProfileInput struct {
	Body struct {
		URL  string `json:"url" minLength:"1" doc:"Company website"`
		Name string `json:"name,omitempty" doc:"Company name hint"`
	}
}

// CreateProfileOutput acknowledges a queued run.
type CreateProfileOutput struct {
	Body struct {
		RunID  string          `json:"run_id"`
		URL    string          `json:"url"`
		Status model.RunStatus `json:"status"`
	}
}

func (s *Server) createProfile(ctx context.Context, in *CreateProfileInput) (*CreateProfileOutput, error) {
	select {
	case s.inflight <- struct{}{}:
	default:
		return nil, huma.Error429TooManyRequests("too many runs in flight")
	}

	run, err := s.runner.CreateRun(ctx, model.Company{URL: in.Body.URL, Name: in.Body.Name})
	if err != nil {
		<-s.inflight
		if errors.Is(err, pipeline.ErrInvalidURL) {
			return nil, huma.Error422UnprocessableEntity("url is not a valid website address")
		}
		zap.L().Error("api: create run failed", zap.String("url", in.Body.URL), zap.Error(err))
		return nil, huma.Error500InternalServerError("could not create run")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.inflight }()
		if _, err := s.runner.Execute(s.base, run); err != nil {
			zap.L().Warn("api: background run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	out := &CreateProfileOutput{}
	out.Body.RunID = run.ID
	out.Body.URL = run.Company.URL
	out.Body.Status = run.Status
	return out, nil
}

// RunFailure is the public form of a failure: kind and stage only.
type RunFailure struct {
	Kind  model.FailureKind `json:"kind"`
	Stage string            `json:"stage"`
}

// RunView is the public form of a run.
type RunView struct {
	ID          string                `json:"id"`
	URL         string                `json:"url"`
	Status      model.RunStatus       `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	FieldsFound int                   `json:"fields_found,omitempty"`
	CostUSD     float64               `json:"cost_usd,omitempty"`
	Profile     *model.CompanyProfile `json:"profile,omitempty"`
	Failure     *RunFailure           `json:"failure,omitempty"`
}

func viewRun(r *model.Run, withProfile bool) RunView {
	v := RunView{
		ID:        r.ID,
		URL:       r.Company.URL,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Result != nil {
		v.FieldsFound = r.Result.FieldsFound
		v.CostUSD = r.Result.Usage.Cost
		if withProfile {
			v.Profile = r.Result.Profile
		}
	}
	if r.Failure != nil {
		v.Failure = &RunFailure{Kind: r.Failure.Kind, Stage: r.Failure.Stage}
	}
	return v
}

// GetRunInput identifies a run.
type GetRunInput struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetRunOutput is one run.
type GetRunOutput struct {
	Body RunView
}

func (s *Server) getRun(ctx context.Context, in *GetRunInput) (*GetRunOutput, error) {
	run, err := s.reader.GetRun(ctx, in.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("run not found")
	}
	if err != nil {
		zap.L().Error("api: get run failed", zap.String("run_id", in.ID), zap.Error(err))
		return nil, huma.Error500InternalServerError("could not load run")
	}
	return &GetRunOutput{Body: viewRun(run, true)}, nil
}

// ListRunsInput filters the run list.
type ListRunsInput struct {
	Status string `query:"status" doc:"Filter by run status"`
	URL    string `query:"url" doc:"Filter by company URL"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	Offset int    `query:"offset" default:"0" minimum:"0"`
}

// ListRunsOutput is a page of runs, newest first.
type ListRunsOutput struct {
	Body struct {
		Runs []RunView `json:"runs"`
	}
}

func (s *Server) listRuns(ctx context.Context, in *ListRunsInput) (*ListRunsOutput, error) {
	runs, err := s.reader.ListRuns(ctx, store.RunFilter{
		Status:     model.RunStatus(in.Status),
		CompanyURL: in.URL,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		return nil, huma.Error500InternalServerError("could not list runs")
	}
	out := &ListRunsOutput{}
	out.Body.Runs = make([]RunView, 0, len(runs))
	for i := range runs {
		out.Body.Runs = append(out.Body.Runs, viewRun(&runs[i], false))
	}
	return out, nil
}

// GetProfileInput selects a stored profile by website.
type GetProfileInput struct {
	URL string `query:"url" required:"true" minLength:"1" doc:"Company website"`
}

// GetProfileOutput is a stored profile.
type GetProfileOutput struct {
	Body *model.ProfileRecord
}

func (s *Server) getProfile(ctx context.Context, in *GetProfileInput) (*GetProfileOutput, error) {
	rec, err := s.reader.GetProfile(ctx, in.URL)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("profile not found")
	}
	if err != nil {
		zap.L().Error("api: get profile failed", zap.String("url", in.URL), zap.Error(err))
		return nil, huma.Error500InternalServerError("could not load profile")
	}
	return &GetProfileOutput{Body: rec}, nil
}
