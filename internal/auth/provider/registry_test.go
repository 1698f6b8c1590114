package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"authbridge/internal/auth/models"
)

type stubProvider struct {
	UnimplementedProvider
	initCalls atomic.Int32
	initErr   error
}

func newStub(name Name) *stubProvider {
	return &stubProvider{UnimplementedProvider: UnimplementedProvider{ProviderName: name}}
}

func (s *stubProvider) Initialize(context.Context) error {
	s.initCalls.Add(1)
	return s.initErr
}

func (s *stubProvider) CurrentUser(context.Context) (*models.User, error) {
	return &models.User{ID: string(s.ProviderName)}, nil
}

func TestRegistry(t *testing.T) {
	t.Run("same name yields the same instance", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return newStub(NameFirebase) }))

		first, err := reg.Get(NameFirebase)
		require.NoError(t, err)
		second, err := reg.Get(NameFirebase)
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("different names yield independent instances", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return newStub(NameFirebase) }))
		require.NoError(t, reg.Register(NameSupabase, func() Provider { return newStub(NameSupabase) }))

		a, err := reg.Get(NameFirebase)
		require.NoError(t, err)
		b, err := reg.Get(NameSupabase)
		require.NoError(t, err)

		assert.NotSame(t, a, b)
		require.NoError(t, a.Initialize(context.Background()))
		assert.Equal(t, int32(1), a.(*stubProvider).initCalls.Load())
		assert.Equal(t, int32(0), b.(*stubProvider).initCalls.Load())
	})

	t.Run("fresh registries do not share instances", func(t *testing.T) {
		factory := func() Provider { return newStub(NameFirebase) }
		r1, r2 := NewRegistry(), NewRegistry()
		require.NoError(t, r1.Register(NameFirebase, factory))
		require.NoError(t, r2.Register(NameFirebase, factory))

		a, _ := r1.Get(NameFirebase)
		b, _ := r2.Get(NameFirebase)
		assert.NotSame(t, a, b)
	})

	t.Run("concurrent first access builds one instance", func(t *testing.T) {
		reg := NewRegistry()
		var built atomic.Int32
		require.NoError(t, reg.Register(NameSupabase, func() Provider {
			built.Add(1)
			return newStub(NameSupabase)
		}))

		var (
			mu   sync.Mutex
			seen = map[Provider]struct{}{}
			g    errgroup.Group
		)
		for range 32 {
			g.Go(func() error {
				p, err := reg.Get(NameSupabase)
				if err != nil {
					return err
				}
				mu.Lock()
				seen[p] = struct{}{}
				mu.Unlock()
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(1), built.Load())
		assert.Len(t, seen, 1)
	})

	t.Run("unknown name returns ErrProviderNotFound", func(t *testing.T) {
		_, err := NewRegistry().Get("auth0")
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		reg := NewRegistry()
		factory := func() Provider { return newStub(NameFirebase) }
		require.NoError(t, reg.Register(NameFirebase, factory))
		assert.Error(t, reg.Register(NameFirebase, factory))
	})

	t.Run("nil factory is rejected", func(t *testing.T) {
		assert.Error(t, NewRegistry().Register(NameFirebase, nil))
	})

	t.Run("names are sorted", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(NameSupabase, func() Provider { return newStub(NameSupabase) }))
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return newStub(NameFirebase) }))
		assert.Equal(t, []Name{NameFirebase, NameSupabase}, reg.Names())
	})
}

func TestRegistry_InitializeAll(t *testing.T) {
	t.Run("initializes every named provider", func(t *testing.T) {
		reg := NewRegistry()
		fb, sb := newStub(NameFirebase), newStub(NameSupabase)
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return fb }))
		require.NoError(t, reg.Register(NameSupabase, func() Provider { return sb }))

		require.NoError(t, reg.InitializeAll(context.Background(), NameFirebase, NameSupabase))
		assert.Equal(t, int32(1), fb.initCalls.Load())
		assert.Equal(t, int32(1), sb.initCalls.Load())
	})

	t.Run("returns initialization failure", func(t *testing.T) {
		reg := NewRegistry()
		boom := errors.New("boom")
		fb := newStub(NameFirebase)
		fb.initErr = boom
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return fb }))

		assert.ErrorIs(t, reg.InitializeAll(context.Background(), NameFirebase), boom)
	})

	t.Run("unknown provider fails before starting", func(t *testing.T) {
		err := NewRegistry().InitializeAll(context.Background(), NameFirebase)
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("unknown name later in the list starts nothing", func(t *testing.T) {
		reg := NewRegistry()
		fb := newStub(NameFirebase)
		require.NoError(t, reg.Register(NameFirebase, func() Provider { return fb }))

		err := reg.InitializeAll(context.Background(), NameFirebase, NameSupabase)
		assert.ErrorIs(t, err, ErrProviderNotFound)
		assert.Zero(t, fb.initCalls.Load())
	})
}

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		want    Name
		wantErr bool
	}{
		{in: "firebase", want: NameFirebase},
		{in: " Supabase ", want: NameSupabase},
		{in: "", wantErr: true},
		{in: "cognito", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrProviderNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
