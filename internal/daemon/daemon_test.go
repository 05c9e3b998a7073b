package daemon

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemon_ListenFailureStopsCleanly(t *testing.T) {
	// Occupy a port so ListenAndServe fails immediately.
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	t.Setenv("MISSIOND_HTTP_PORT", strconv.Itoa(port))
	t.Setenv("MISSIOND_STORAGE_BASE_DIR", t.TempDir())
	t.Setenv("MISSIOND_LOG_LEVEL", "error")

	d, err := New(context.Background())
	require.NoError(t, err)

	// Start must not leave the worker or the journal running behind a
	// failed listener: it returns only after a full shutdown.
	done := make(chan error, 1)
	go func() { done <- d.Start(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after listen failure")
	}

	// Shutdown already stopped the worker; a later Stop returns at once.
	stopDone := make(chan struct{})
	go func() {
		d.worker.Stop()
		close(stopDone)
	}()
	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("worker was still running after shutdown")
	}
}
