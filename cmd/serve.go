package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/internal"
	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/internal/query"
	"github.com/gnolang/tgrep/internal/sink"
	"github.com/gnolang/tgrep/internal/source"
	"github.com/gnolang/tgrep/search"
)

const defaultServeAddr = ":8089"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve searches over HTTP",
	Long: `Starts an HTTP server answering POST /api/search with a JSON body such as
{"query": "(= Unix)", "source": "manual", "context": 10, "pages": ["page one", "page two"]}
Example) tgrep serve --addr :8089`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runServe(ctx, logger, serveAddr); err != nil {
			logger.Error("Server failed", zap.Error(err))
			stop()
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "Address to listen on")
}

func runServe(ctx context.Context, logger *zap.Logger, addr string) error {
	srv := newSearchServer(logger)
	srv.ctx = ctx
	server := &fasthttp.Server{
		Handler:      srv.Handler,
		Name:         "tgrep",
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		errc <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		return server.Shutdown()
	}
}

type searchServer struct {
	// ctx bounds every search; it is cancelled on shutdown.
	ctx    context.Context
	logger *zap.Logger
	parser fastjson.ParserPool
}

func newSearchServer(logger *zap.Logger) *searchServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &searchServer{ctx: context.Background(), logger: logger}
}

func (s *searchServer) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	case "/api/search":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleSearch(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

type searchRequest struct {
	query   string
	source  string
	context int
	pages   [][]string
}

func (s *searchServer) parseRequest(body []byte) (searchRequest, error) {
	p := s.parser.Get()
	defer s.parser.Put(p)

	req := searchRequest{source: "request", context: match.DefaultContext}
	v, err := p.ParseBytes(body)
	if err != nil {
		return req, fmt.Errorf("invalid json: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return req, errors.New("request body must be a json object")
	}

	req.query = string(v.GetStringBytes("query"))
	if req.query == "" {
		return req, errors.New(`"query" is required`)
	}
	if src := v.GetStringBytes("source"); len(src) > 0 {
		req.source = string(src)
	}
	if n := v.Get("context"); n != nil {
		req.context, err = n.Int()
		if err != nil || req.context < 0 {
			return req, errors.New(`"context" must be a non-negative integer`)
		}
	}
	req.pages, err = source.PagesFromJSON(v)
	if err != nil {
		return req, err
	}
	return req, nil
}

func (s *searchServer) handleSearch(ctx *fasthttp.RequestCtx) {
	req, err := s.parseRequest(ctx.PostBody())
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	engine, err := internal.NewEngine(req.query,
		internal.WithLogger(s.logger),
		internal.WithContext(req.context))
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	doc := source.Document{Source: req.source, Pages: req.pages}
	report, err := search.ProcessDocuments(s.ctx, engine, []source.Document{doc})
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusServiceUnavailable, err)
		return
	}
	s.logger.Debug("Served search",
		zap.String("query", req.query),
		zap.String("source", req.source),
		zap.Int("matches", report.Stats.Matches),
		zap.Duration("elapsed", report.Elapsed))

	var a fastjson.Arena
	stats := a.NewObject()
	stats.Set("pages", a.NewNumberInt(report.Stats.Pages))
	stats.Set("tokens", a.NewNumberInt(report.Stats.Tokens))
	stats.Set("matches", a.NewNumberInt(report.Stats.Matches))
	stats.Set("faults", a.NewNumberInt(report.Stats.Faults))

	body := append(make([]byte, 0, 256), `{"query":`...)
	body = a.NewString(engine.Predicate().String()).MarshalTo(body)
	body = append(body, `,"records":`...)
	body = sink.MarshalRecords(body, report.Records)
	body = append(body, `,"stats":`...)
	body = stats.MarshalTo(body)
	body = append(body, '}')

	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeJSONError(ctx *fasthttp.RequestCtx, status int, err error) {
	var a fastjson.Arena
	body := a.NewObject()
	body.Set("error", a.NewString(err.Error()))
	if kind := query.KindName(err); kind != "" {
		body.Set("kind", a.NewString(kind))
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body.MarshalTo(nil))
}
