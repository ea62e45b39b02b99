package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLauncher struct {
	err      error
	closeErr error
	launched []LaunchOptions
	browsers []*fakeBrowser
}

func (l *fakeLauncher) Launch(_ context.Context, opts LaunchOptions) (Browser, error) {
	l.launched = append(l.launched, opts)
	if l.err != nil {
		return nil, l.err
	}
	b := &fakeBrowser{closeErr: l.closeErr}
	l.browsers = append(l.browsers, b)
	return b, nil
}

type fakeBrowser struct {
	closeErr error
	closed   int
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) { return nil, errors.New("unused") }

func (b *fakeBrowser) Close() error {
	b.closed++
	return b.closeErr
}

func newTestSession(l Launcher, env map[string]string) *Session {
	s := NewSession(l, DefaultLaunchOptions(), nil)
	s.getenv = func(key string) string { return env[key] }
	return s
}

func TestSessionInitializeLaunchesHeadlessWithDefaultArgs(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSession(l, nil)

	require.NoError(t, s.Initialize(context.Background()))
	require.True(t, s.Active())
	require.Len(t, l.launched, 1)
	assert.True(t, l.launched[0].Headless)
	assert.Equal(t, DefaultArgs, l.launched[0].Args)
	assert.Empty(t, l.launched[0].ExecutablePath)

	b, err := s.Browser()
	require.NoError(t, err)
	assert.Same(t, l.browsers[0], b)
}

func TestSessionInitializeUsesExecutableFromEnvironment(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSession(l, map[string]string{EnvExecutablePath: "/usr/bin/chromium"})

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, "/usr/bin/chromium", l.launched[0].ExecutablePath)
}

func TestSessionConfiguredExecutableWinsOverEnvironment(t *testing.T) {
	l := &fakeLauncher{}
	opts := DefaultLaunchOptions()
	opts.ExecutablePath = "/opt/chrome"
	s := NewSession(l, opts, nil)
	s.getenv = func(string) string { return "/usr/bin/chromium" }

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, "/opt/chrome", l.launched[0].ExecutablePath)
}

func TestSessionInitializeFailureIsLaunchError(t *testing.T) {
	cause := errors.New("executable not found")
	s := newTestSession(&fakeLauncher{err: cause}, nil)

	err := s.Initialize(context.Background())
	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.ErrorIs(t, err, cause)
	assert.False(t, s.Active())
}

func TestSessionCloseIsIdempotentAndSwallowsErrors(t *testing.T) {
	l := &fakeLauncher{closeErr: errors.New("already gone")}
	s := newTestSession(l, nil)

	assert.NoError(t, s.Close(), "close before initialize")

	require.NoError(t, s.Initialize(context.Background()))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.False(t, s.Active())
	assert.Equal(t, 1, l.browsers[0].closed)

	_, err := s.Browser()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSessionCanBeReinitializedAfterClose(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSession(l, nil)

	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Initialize(context.Background()))

	assert.True(t, s.Active())
	assert.Len(t, l.browsers, 2)
}

func TestSessionInitializeClosesRunningBrowser(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSession(l, nil)

	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Initialize(context.Background()))

	require.Len(t, l.browsers, 2)
	assert.Equal(t, 1, l.browsers[0].closed)
	assert.Zero(t, l.browsers[1].closed)

	b, err := s.Browser()
	require.NoError(t, err)
	assert.Same(t, l.browsers[1], b)
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 30000.0, milliseconds(30*time.Second))
	assert.Equal(t, 1.5, milliseconds(1500*time.Microsecond))
}
