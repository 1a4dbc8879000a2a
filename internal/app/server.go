package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/matt-hoiland/factfan/internal/config"
	"github.com/matt-hoiland/factfan/internal/upstream"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Server interface {
	http.Handler
}

type server struct {
	router Router
	client *upstream.Client
	cfg    config.ServerConfig
}

// NewServer registers the routes on routerDep. client and cfg are shared
// read-only by every request.
func NewServer(routerDep Router, client *upstream.Client, cfg config.ServerConfig) Server {
	s := &server{
		router: routerDep,
		client: client,
		cfg:    cfg,
	}
	s.routes()
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestLogger(r *http.Request) *log.Entry {
	fields := log.Fields{"method": r.Method, "path": r.URL.Path}
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		fields["request-id"] = id
	}
	return log.WithFields(fields)
}

// handleError answers with a plain-text 502 for any upstream failure. The
// body names only the upstream and the error kind; details stay in the log.
func (s *server) handleError(err error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestLogger(r).WithError(err).WithFields(log.Fields{
			"upstream": upstream.UpstreamOf(err),
			"kind":     upstream.KindOf(err),
		}).Error("upstream call failed")

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintln(w, publicMessage(err))
	}
}

func publicMessage(err error) string {
	name, kind := upstream.UpstreamOf(err), upstream.KindOf(err)
	if name == "" || kind == "" {
		return "upstream call failed"
	}
	return fmt.Sprintf("upstream %s: %s", name, kind)
}

func (s *server) logRequest(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
		w.Header().Set("X-Request-ID", id)

		headers, err := json.Marshal(r.Header)
		if err != nil {
			requestLogger(r).WithError(err).Error("unable to marshal headers")
		}

		// No route reads the inbound body, so only its declared size is logged.
		requestLogger(r).WithFields(log.Fields{
			"url":            r.URL.String(),
			"protocol":       r.Proto,
			"headers":        string(headers),
			"content-length": r.ContentLength,
		}).Debug("request received")

		h(w, r)
	}
}

type responseWrapper struct {
	http.ResponseWriter
	Status      int
	WroteHeader bool
	Body        []byte
	WriteCount  int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWrapper {
	return &responseWrapper{ResponseWriter: w, Status: http.StatusOK}
}

func (rw *responseWrapper) WriteHeader(code int) {
	if rw.WroteHeader {
		return
	}
	rw.Status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.WroteHeader = true
}

func (rw *responseWrapper) Write(body []byte) (int, error) {
	rw.WroteHeader = true
	rw.WriteCount++
	rw.Body = append(rw.Body, body...)
	return rw.ResponseWriter.Write(body)
}

func (s *server) logResponse(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := wrapResponseWriter(w)
		h(rw, r)

		headers, err := json.Marshal(rw.Header())
		if err != nil {
			requestLogger(r).WithError(err).Error("unable to marshal headers")
		}
		requestLogger(r).WithFields(log.Fields{
			"status":      rw.Status,
			"headers":     string(headers),
			"body":        string(rw.Body),
			"write-count": rw.WriteCount,
		}).Debug("response sent")
	}
}

// upstreamContext keeps request-scoped values but drops the inbound
// cancellation: a client hanging up does not abort outbound calls.
func upstreamContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

func (s *server) handleBasic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		todo, err := s.client.FetchTodo(upstreamContext(r), s.cfg.TodoURL)
		if err != nil {
			s.handleError(err)(w, r)
			return
		}
		writeText(w, todo.Title)
	}
}

func (s *server) handleDouble() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstreamContext(r)

		var (
			todo upstream.TodoItem
			fact upstream.CatFact
			err  error
		)
		if s.cfg.ConcurrentDouble {
			todo, fact, err = s.fetchBothConcurrently(ctx)
		} else {
			todo, fact, err = s.fetchBoth(ctx)
		}
		if err != nil {
			s.handleError(err)(w, r)
			return
		}
		writeText(w, fmt.Sprintf("Todo: %s, Cat Fact: %s", todo.Title, fact.Text))
	}
}

// fetchBoth finishes the to-do call before the cat-fact call starts.
func (s *server) fetchBoth(ctx context.Context) (upstream.TodoItem, upstream.CatFact, error) {
	todo, err := s.client.FetchTodo(ctx, s.cfg.TodoURL)
	if err != nil {
		return upstream.TodoItem{}, upstream.CatFact{}, err
	}
	fact, err := s.client.FetchCatFact(ctx, s.cfg.CatsURL)
	if err != nil {
		return upstream.TodoItem{}, upstream.CatFact{}, err
	}
	return todo, fact, nil
}

func (s *server) fetchBothConcurrently(ctx context.Context) (upstream.TodoItem, upstream.CatFact, error) {
	var (
		todo upstream.TodoItem
		fact upstream.CatFact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todo, err = s.client.FetchTodo(gctx, s.cfg.TodoURL)
		return err
	})
	g.Go(func() (err error) {
		fact, err = s.client.FetchCatFact(gctx, s.cfg.CatsURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return upstream.TodoItem{}, upstream.CatFact{}, err
	}
	return todo, fact, nil
}

func (s *server) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}
}
