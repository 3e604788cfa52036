package linear_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mkd/internal/adapters/linear"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
)

var remoteTarget = domain.Target{Host: "box", Path: "~/notes.md"}

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Renderer = (*linear.Renderer)(nil)
}

func TestRenderer_Session_Golden(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(remoteTarget, &stdout, &stderr)

	r.OnStatus(domain.StatusHidden)
	r.OnContent("# Notes\n\nfirst\n")
	r.OnStatus(domain.StatusConnected)
	r.OnContent("# Notes\n\nsecond")
	r.OnStatus(domain.StatusReconnecting)
	r.OnStatus(domain.StatusDisconnected)

	g := goldie.New(t)
	g.Assert(t, "session_stdout", stdout.Bytes())
	g.Assert(t, "session_stderr", stderr.Bytes())
}

func TestRenderer_Colors(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(remoteTarget, &stdout, &stderr)
	r.OnStatus(domain.StatusConnected)

	assert.Contains(t, stderr.String(), "\x1b[")
	assert.Contains(t, stderr.String(), "connected")
	assert.Contains(t, stderr.String(), "box:~/notes.md")
	assert.Empty(t, stdout.String())
}

func TestRenderer_EmptyContent(t *testing.T) {
	var stdout bytes.Buffer
	r := linear.NewRenderer(domain.Target{Path: "/tmp/x.md"}, &stdout, &bytes.Buffer{})
	r.OnContent("")
	assert.Empty(t, stdout.String())
}

func TestRenderer_WaitReturnsOnStop(t *testing.T) {
	r := linear.NewRenderer(remoteTarget, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, r.Start(t.Context()))

	done := make(chan error, 1)
	go func() { done <- r.Wait() }()

	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}

func TestRenderer_WaitReturnsOnContextDone(t *testing.T) {
	r := linear.NewRenderer(remoteTarget, &bytes.Buffer{}, &bytes.Buffer{})
	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, r.Start(ctx))
	cancel()

	require.NoError(t, r.Wait())
}
