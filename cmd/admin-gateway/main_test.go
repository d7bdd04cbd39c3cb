package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taalumaworld/admin-access/config"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "test"}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 5 * time.Second
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 9090
	handler := http.NotFoundHandler()

	srv := newServer(cfg, handler)

	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 5*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}

func TestServe(t *testing.T) {
	t.Run("stops when context is cancelled", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		cfg := testConfig()
		srv := newServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		srv.Addr = addr

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serve(ctx, srv, cfg, zaptest.NewLogger(t)) }()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + addr)
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusTeapot
		}, 2*time.Second, 20*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("listen failure is returned", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		cfg := testConfig()
		srv := newServer(cfg, http.NotFoundHandler())
		srv.Addr = ln.Addr().String()

		err = serve(context.Background(), srv, cfg, zaptest.NewLogger(t))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error")
	})
}
