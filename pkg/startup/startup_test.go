package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

type recorder struct {
	events []string
}

func (r *recorder) dep(name string, needs ...string) Func {
	return Func{
		Name:      name,
		Needs:     needs,
		StartFunc: func(context.Context) error { r.events = append(r.events, "start "+name); return nil },
		StopFunc:  func(context.Context) error { r.events = append(r.events, "stop "+name); return nil },
	}
}

func TestStartup_DependencyOrder(t *testing.T) {
	rec := &recorder{}
	s := newTestStartup(1)
	s.AddDependency(rec.dep("server", "registry", "cache"))
	s.AddDependency(rec.dep("registry", "database"))
	s.AddDependency(rec.dep("database"))
	s.AddDependency(rec.dep("cache"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start database", "start registry", "start cache", "start server"}, rec.events)
	assert.Equal(t, StatusStarted, s.Status("server"))

	rec.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop server", "stop cache", "stop registry", "stop database"}, rec.events)
	assert.Equal(t, StatusStopped, s.Status("database"))
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	calls := 0
	dbStarts := 0
	s := newTestStartup(3)
	s.AddDependency(Func{Name: "database", StartFunc: func(context.Context) error { dbStarts++; return nil }})
	s.AddDependency(Func{Name: "registry", Needs: []string{"database"}, StartFunc: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("registry folder empty")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, dbStarts, "started dependencies are not restarted")
}

func TestStartup_GivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestStartup(2)
	s.AddDependency(Func{Name: "redis", StartFunc: func(context.Context) error { return boom }})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("redis"))
}

func TestStartup_InvalidGraph(t *testing.T) {
	t.Run("unknown dependency", func(t *testing.T) {
		s := newTestStartup(1)
		s.AddDependency(Func{Name: "server", Needs: []string{"missing"}})
		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown dependency 'missing'")
	})

	t.Run("cycle", func(t *testing.T) {
		s := newTestStartup(1)
		s.AddDependency(Func{Name: "a", Needs: []string{"b"}})
		s.AddDependency(Func{Name: "b", Needs: []string{"a"}})
		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle")
	})
}

func TestStartup_StopContinuesAfterError(t *testing.T) {
	stopped := []string{}
	s := newTestStartup(1)
	s.AddDependency(Func{Name: "a", StopFunc: func(context.Context) error { stopped = append(stopped, "a"); return nil }})
	s.AddDependency(Func{Name: "b", Needs: []string{"a"}, StopFunc: func(context.Context) error { return errors.New("flush failed") }})

	require.NoError(t, s.Start(context.Background()))
	err := s.Stop(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, stopped)
}
