package console

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

func TestDetailViewer_OpenAndClose(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, key string) (string, error) {
		calls++
		return "details of " + key, nil
	}
	v := NewDetailViewer("Project", fetch, nil, "Project not found.", zerolog.Nop())

	got, err := v.Open(context.Background(), "PRJ-0001")
	require.NoError(t, err)
	assert.Equal(t, "details of PRJ-0001", got)
	assert.True(t, v.IsOpen())
	assert.False(t, v.IsLoading())

	v.Close()
	_, ok := v.Details()
	assert.False(t, ok, "details are discarded on close")

	_, err = v.Open(context.Background(), "PRJ-0001")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "nothing is cached between openings")
}

func TestDetailViewer_Failure(t *testing.T) {
	n, rec := newDispatcher()
	fetch := func(ctx context.Context, key string) (string, error) {
		return "", assert.AnError
	}
	v := NewDetailViewer("Project", fetch, n, "Project not found.", zerolog.Nop())

	_, err := v.Open(context.Background(), "PRJ-9999")
	assert.Error(t, err)
	assert.Equal(t, []string{"Project not found."}, rec.Messages(notifier.LevelError))
	_, ok := v.Details()
	assert.False(t, ok)
}

func TestDetailViewer_ClassifiedFailureUsesServerMessage(t *testing.T) {
	n, rec := newDispatcher()
	fetch := func(ctx context.Context, key string) (string, error) {
		return "", &client.Error{Kind: client.KindNotFound, Message: "Issue not found"}
	}
	v := NewDetailViewer("Issue", fetch, n, "fallback", zerolog.Nop())

	_, _ = v.Open(context.Background(), "ISS-1")
	assert.Equal(t, []string{"Issue not found"}, rec.Messages(notifier.LevelError))
}

func TestDetailViewer_CloseDropsPendingResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context, key string) (string, error) {
		close(started)
		<-release
		return "late", nil
	}
	v := NewDetailViewer("Company", fetch, nil, "", zerolog.Nop())

	done := make(chan struct{})
	go func() {
		_, _ = v.Open(context.Background(), "c1")
		close(done)
	}()
	<-started
	v.Close()
	close(release)
	<-done

	_, ok := v.Details()
	assert.False(t, ok)
	assert.False(t, v.IsOpen())
}
