package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/doctor-faq/internal/infra/config"
)

func TestApp_ServesUntilCancelled(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	app := NewApp(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancellation")
	}
}

func TestApp_RunReportsListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	server := &http.Server{Addr: busy.Addr().String()}
	app := NewApp(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), server)
	require.Error(t, app.Run(context.Background()))
}
