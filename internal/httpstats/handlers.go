package httpstats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/pipeline"
)

// Server is the optional debug/inspection HTTP surface. It never
// touches a pipeline's data path; Register/Unregister feed it sessions
// and an engine.Factory per kind backs the isConfigSupported probes.
type Server struct {
	cfg        config.HTTPConfig
	registry   *Registry
	factories  map[engine.PipelineKind]engine.Factory
	startTime  time.Time
	router     *chi.Mux
	api        huma.API
	httpServer *http.Server
	logger     *slog.Logger
	supportSF  singleflight.Group
}

// NewServer wires a chi router and a Huma API over it, the same way
// the host application's own HTTP server does, and registers every
// inspection route.
func NewServer(cfg config.HTTPConfig, registry *Registry, factories map[engine.PipelineKind]engine.Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestID)

	humaConfig := huma.DefaultConfig("webcodecs-core introspection", "dev")
	humaConfig.Info.Description = "Read-only pipeline inspection and isConfigSupported probes"
	api := humachi.New(router, humaConfig)

	s := &Server{
		cfg:       cfg,
		registry:  registry,
		factories: factories,
		startTime: time.Now(),
		router:    router,
		api:       api,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

// Router exposes the underlying chi router for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Start begins serving on cfg.Addr. It blocks until the server stops;
// run it in a goroutine and call Shutdown to stop it. A blank Addr
// disables the surface entirely by returning nil immediately.
func (s *Server) Start() error {
	if s.cfg.Addr == "" {
		return nil
	}
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}
	s.logger.Info("starting introspection HTTP server", slog.String("address", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops a running server. Safe to call even if
// Start was never invoked.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type emptyInput struct{}

type healthOutput struct {
	Body struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptimeSeconds"`
	}
}

type sessionsOutput struct {
	Body struct {
		Sessions []SessionSnapshot `json:"sessions"`
	}
}

type supportInput struct {
	Body supportRequest
}

type supportRequest struct {
	Codec                string `json:"codec"`
	Width                int    `json:"width,omitempty"`
	Height               int    `json:"height,omitempty"`
	DisplayWidth         *int   `json:"displayWidth,omitempty"`
	DisplayHeight        *int   `json:"displayHeight,omitempty"`
	HardwareAcceleration string `json:"hardwareAcceleration,omitempty"`
	OptimizeForLatency   bool   `json:"optimizeForLatency,omitempty"`
	ScalabilityMode      string `json:"scalabilityMode,omitempty"`
	BitstreamFormat      string `json:"bitstreamFormat,omitempty"`
	BitrateBps           int    `json:"bitrateBps,omitempty"`
	SampleRate           int    `json:"sampleRate,omitempty"`
	NumberOfChannels     int    `json:"numberOfChannels,omitempty"`
}

type supportOutput struct {
	Body struct {
		Supported bool `json:"supported"`
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, s.getHealth)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List registered pipeline sessions",
		Tags:        []string{"Sessions"},
	}, s.listSessions)

	s.registerSupportRoute("checkVideoEncoderSupport", "/support/video-encoder", engine.KindVideoEncoder,
		func(req supportRequest) (engine.SupportReport, error) {
			return callSupport(s.factories, engine.KindVideoEncoder, func(f engine.Factory) engine.SupportReport {
				return pipeline.IsVideoEncoderConfigSupported(f, pipeline.VideoEncoderConfig{
					Codec: req.Codec, Width: req.Width, Height: req.Height,
					DisplayWidth: req.DisplayWidth, DisplayHeight: req.DisplayHeight,
					HardwareAcceleration: req.HardwareAcceleration, OptimizeForLatency: req.OptimizeForLatency,
					ScalabilityMode: req.ScalabilityMode, BitstreamFormat: req.BitstreamFormat, BitrateBps: req.BitrateBps,
				})
			})
		})

	s.registerSupportRoute("checkVideoDecoderSupport", "/support/video-decoder", engine.KindVideoDecoder,
		func(req supportRequest) (engine.SupportReport, error) {
			return callSupport(s.factories, engine.KindVideoDecoder, func(f engine.Factory) engine.SupportReport {
				var w, h *int
				if req.Width > 0 {
					w = &req.Width
				}
				if req.Height > 0 {
					h = &req.Height
				}
				return pipeline.IsVideoDecoderConfigSupported(f, pipeline.VideoDecoderConfig{
					Codec: req.Codec, CodedWidth: w, CodedHeight: h,
					DisplayWidth: req.DisplayWidth, DisplayHeight: req.DisplayHeight,
					HardwareAcceleration: req.HardwareAcceleration, OptimizeForLatency: req.OptimizeForLatency,
				})
			})
		})

	s.registerSupportRoute("checkAudioEncoderSupport", "/support/audio-encoder", engine.KindAudioEncoder,
		func(req supportRequest) (engine.SupportReport, error) {
			return callSupport(s.factories, engine.KindAudioEncoder, func(f engine.Factory) engine.SupportReport {
				return pipeline.IsAudioEncoderConfigSupported(f, pipeline.AudioEncoderConfig{
					Codec: req.Codec, SampleRate: req.SampleRate, NumberOfChannels: req.NumberOfChannels, BitrateBps: req.BitrateBps,
				})
			})
		})

	s.registerSupportRoute("checkAudioDecoderSupport", "/support/audio-decoder", engine.KindAudioDecoder,
		func(req supportRequest) (engine.SupportReport, error) {
			return callSupport(s.factories, engine.KindAudioDecoder, func(f engine.Factory) engine.SupportReport {
				return pipeline.IsAudioDecoderConfigSupported(f, pipeline.AudioDecoderConfig{
					Codec: req.Codec, SampleRate: req.SampleRate, NumberOfChannels: req.NumberOfChannels,
				})
			})
		})
}

func (s *Server) registerSupportRoute(operationID, path string, kind engine.PipelineKind, check func(supportRequest) (engine.SupportReport, error)) {
	huma.Register(s.api, huma.Operation{
		OperationID: operationID,
		Method:      http.MethodPost,
		Path:        path,
		Summary:     "Static isConfigSupported probe for " + string(kind),
		Tags:        []string{"Support"},
	}, func(ctx context.Context, input *supportInput) (*supportOutput, error) {
		report, err := s.checkSupportCoalesced(operationID, input.Body, check)
		if err != nil {
			return nil, huma.Error404NotFound(err.Error())
		}
		out := &supportOutput{}
		out.Body.Supported = report.Supported
		return out, nil
	})
}

// checkSupportCoalesced collapses concurrent identical isConfigSupported
// probes (same operation, same request body) into a single call to
// check, since it's a pure function of its input and safe to share.
// Bursts of clients polling the same support query see one call land
// instead of one per caller.
func (s *Server) checkSupportCoalesced(operationID string, req supportRequest, check func(supportRequest) (engine.SupportReport, error)) (engine.SupportReport, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return check(req)
	}
	key := operationID + ":" + string(body)

	result, err, _ := s.supportSF.Do(key, func() (any, error) {
		return check(req)
	})
	if err != nil {
		return engine.SupportReport{}, err
	}
	report, ok := result.(engine.SupportReport)
	if !ok {
		return engine.SupportReport{}, fmt.Errorf("unexpected singleflight result type %T", result)
	}
	return report, nil
}

func callSupport(factories map[engine.PipelineKind]engine.Factory, kind engine.PipelineKind, fn func(engine.Factory) engine.SupportReport) (engine.SupportReport, error) {
	factory, ok := factories[kind]
	if !ok {
		return engine.SupportReport{}, errNoEngineForKind(kind)
	}
	return fn(factory), nil
}

type noEngineError struct{ kind engine.PipelineKind }

func (e noEngineError) Error() string { return "no engine registered for " + string(e.kind) }

func errNoEngineForKind(kind engine.PipelineKind) error { return noEngineError{kind: kind} }

func (s *Server) getHealth(ctx context.Context, _ *emptyInput) (*healthOutput, error) {
	out := &healthOutput{}
	out.Body.Status = "healthy"
	out.Body.UptimeSeconds = time.Since(s.startTime).Seconds()
	return out, nil
}

func (s *Server) listSessions(ctx context.Context, _ *emptyInput) (*sessionsOutput, error) {
	snapshot := s.registry.Snapshot()
	s.logger.Debug("listed sessions", slog.String("request_id", requestIDFromContext(ctx)), slog.Int("count", len(snapshot)))
	out := &sessionsOutput{}
	out.Body.Sessions = snapshot
	return out, nil
}
