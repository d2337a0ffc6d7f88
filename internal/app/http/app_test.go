package httpapp

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/grigory222/go-messenger-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestServeAndStop(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	app := New(log, config.HTTP{ReadTimeout: time.Second, WriteTimeout: time.Second}, handler)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.serve(l)
	}()

	resp, err := http.Get("http://" + l.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusTeapot, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_InvalidAddress(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := New(log, config.HTTP{Address: "256.0.0.1:bad"}, http.NotFoundHandler())

	require.Error(t, app.Run())
}
