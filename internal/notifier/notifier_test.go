package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }
func (failingNotifier) Send(context.Context, Notification) error {
	return errors.New("mock send error")
}
func (failingNotifier) Close() error { return nil }

func TestDispatcher_FansOut(t *testing.T) {
	d := NewDispatcher()
	rec := NewRecorder()
	var buf bytes.Buffer
	d.Register(rec)
	d.Register(NewWriterNotifier(&buf))

	d.Success("Company", "Company created successfully")

	assert.Equal(t, []string{"Company created successfully"}, rec.Messages(LevelSuccess))
	assert.Equal(t, "[SUCCESS] Company created successfully\n", buf.String())
	assert.False(t, rec.All()[0].At.IsZero())
}

func TestDispatcher_RateLimitSparesErrors(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{PerSecond: 0.001, Burst: 1, Enabled: true})
	rec := NewRecorder()
	d.Register(rec)

	require.NoError(t, d.Dispatch(context.Background(), Notification{Level: LevelInfo, Message: "one"}))
	err := d.Dispatch(context.Background(), Notification{Level: LevelInfo, Message: "two"})
	assert.ErrorIs(t, err, ErrRateLimited)

	d.Error("Users", "boom")
	d.Error("Users", "boom again")

	assert.Equal(t, []string{"one", "boom", "boom again"}, rec.Messages(""))
	assert.Equal(t, int64(1), d.RateLimitStats().Dropped)
}

func TestDispatcher_DisabledRateLimit(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{PerSecond: 0.001, Burst: 1, Enabled: false})
	rec := NewRecorder()
	d.Register(rec)

	for i := 0; i < 10; i++ {
		d.Warn("Company", "Failed to upload a.pdf")
	}
	assert.Len(t, rec.Messages(LevelWarning), 10)
}

func TestDispatcher_ReportsSendErrors(t *testing.T) {
	d := NewDispatcher()
	d.Register(failingNotifier{})

	err := d.Dispatch(context.Background(), Notification{Level: LevelError, Message: "x"})
	assert.ErrorContains(t, err, "failing: mock send error")
}

func TestDispatcher_RegisterUnregister(t *testing.T) {
	d := NewDispatcher()
	d.Register(NewLogNotifier(zerolog.Nop()))

	_, ok := d.Get("log")
	assert.True(t, ok)

	d.Unregister("log")
	_, ok = d.Get("log")
	assert.False(t, ok)

	require.NoError(t, d.Close())
}
