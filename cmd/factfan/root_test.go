package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-hoiland/factfan/internal/config"
	"github.com/matt-hoiland/factfan/internal/upstream"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// emptyConfig writes a config file with no overrides so tests never pick up
// a config.yaml from the search path.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log-json: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCmdFlags(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetLevel(log.InfoLevel)

	var got config.ServerConfig
	cmd := newRootCmdWith(viper.New(), func(cfg config.ServerConfig) error {
		got = cfg
		return nil
	})
	cmd.SetArgs([]string{
		"--config", emptyConfig(t),
		"--addr", "127.0.0.1:3100",
		"--todo-url", "http://todo.local",
		"--upstream-timeout", "750ms",
		"--concurrent-double",
		"--log-level", "debug",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := config.ServerConfig{
		Addr:             "127.0.0.1:3100",
		TodoURL:          "http://todo.local",
		CatsURL:          config.DefaultCatsURL,
		UpstreamTimeout:  750 * time.Millisecond,
		ConcurrentDouble: true,
		LogLevel:         "debug",
	}
	if got != want {
		t.Errorf("config = %+v, want %+v", got, want)
	}
}

func TestRootCmdRejectsBadConfig(t *testing.T) {
	log.SetOutput(io.Discard)

	called := false
	cmd := newRootCmdWith(viper.New(), func(config.ServerConfig) error {
		called = true
		return nil
	})
	cmd.SetArgs([]string{"--config", emptyConfig(t), "--cats-url", "not a url"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
	if called {
		t.Error("serve called with invalid configuration")
	}
}

func TestRootCmdBadLogLevel(t *testing.T) {
	cmd := newRootCmdWith(viper.New(), func(config.ServerConfig) error {
		return errors.New("unreachable")
	})
	cmd.SetArgs([]string{"--config", emptyConfig(t), "--log-level", "chatty"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
}

func TestMetricsMux(t *testing.T) {
	upstream.RequestsTotal.WithLabelValues(upstream.Todo, "ok").Inc()
	upstream.RequestLatency.WithLabelValues(upstream.Todo).Observe(0.01)

	rec := httptest.NewRecorder()
	metricsMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, name := range []string{
		`factfan_upstream_requests_total{outcome="ok",upstream="todo"}`,
		"factfan_upstream_request_duration_seconds_count",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("/metrics output missing %s", name)
		}
	}
}
