package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Upstream names used in errors, logs and metric labels.
const (
	Todo = "todo"
	Cats = "cats"
)

// maxDrain caps how much of a non-2xx body is read before closing it.
const maxDrain = 64 << 10

// Client issues GET requests to the upstream services. One Client is built
// at startup and shared by every inbound request; it is safe for concurrent
// use and pools connections across calls.
type Client struct {
	http *http.Client
}

// NewClient builds a Client on its own pooled transport. A zero timeout
// means outbound calls may block until the upstream answers.
func NewClient(timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// NewClientWith wraps an existing http.Client.
func NewClientWith(hc *http.Client) *Client {
	return &Client{http: hc}
}

// Get issues a GET to rawURL and returns the raw response. The caller owns
// the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Err: err}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	return res, nil
}

// FetchTodo loads the to-do item served by base.
func (c *Client) FetchTodo(ctx context.Context, base string) (TodoItem, error) {
	var item TodoItem
	err := c.fetch(ctx, Todo, TodoURL(base), func(body []byte) (err error) {
		item, err = DecodeTodo(body)
		return err
	})
	return item, err
}

// FetchCatFact loads a random cat fact served by base.
func (c *Client) FetchCatFact(ctx context.Context, base string) (CatFact, error) {
	var fact CatFact
	err := c.fetch(ctx, Cats, CatsURL(base), func(body []byte) (err error) {
		fact, err = DecodeCatFact(body)
		return err
	})
	return fact, err
}

func (c *Client) fetch(ctx context.Context, name, rawURL string, decode func([]byte) error) (err error) {
	logger := log.WithFields(log.Fields{"upstream": name, "url": rawURL})
	start := time.Now()
	defer func() {
		RequestsTotal.WithLabelValues(name, outcome(err)).Inc()
		RequestLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			err = tag(err, name)
		}
	}()

	res, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain a bounded prefix so small error bodies keep the connection
		// reusable; anything longer is dropped with the connection.
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxDrain))
		return &Error{Kind: KindStatus, Err: &StatusError{Code: res.StatusCode}}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Kind: KindRead, Err: err}
	}
	logger.WithField("status", res.StatusCode).Debug("upstream responded")

	return decode(body)
}

// tag fills in the upstream name on errors raised by this package.
func tag(err error, name string) error {
	var ue *Error
	if errors.As(err, &ue) && ue.Upstream == "" {
		ue.Upstream = name
	}
	return err
}
