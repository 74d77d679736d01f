package application

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-gambit/infrastructure/strategies"
	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
	"github.com/ahrav/go-gambit/internal/testutils"
)

func TestNewDefaultStrategyRegistry(t *testing.T) {
	t.Run("registers built-ins", func(t *testing.T) {
		registry := NewDefaultStrategyRegistry()

		assert.Equal(t, strategies.Names(), registry.Names())
		assert.Equal(t, strategies.Names(), registry.BuiltinNames())
		assert.True(t, registry.IsBuiltin(strategies.TitForTat))
	})

	t.Run("empty registry has no built-ins", func(t *testing.T) {
		registry := NewStrategyRegistry()

		assert.Empty(t, registry.Names())
		assert.Empty(t, registry.BuiltinNames())
	})
}

func TestDefaultStrategyRegistry_Register(t *testing.T) {
	factory, _ := testutils.CountingFactory("x", domain.Cooperate)

	tests := []struct {
		name    string
		key     string
		factory ports.StrategyFactory
		wantErr string
	}{
		{name: "valid", key: "x", factory: factory},
		{name: "empty name", key: "", factory: factory, wantErr: "strategy name cannot be empty"},
		{name: "hidden name", key: ".x", factory: factory, wantErr: "cannot start with a dot"},
		{name: "nil factory", key: "x", factory: nil, wantErr: "factory function cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewStrategyRegistry()
			err := registry.Register(tt.key, tt.factory)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.key}, registry.Names())
		})
	}
}

func TestDefaultStrategyRegistry_ShadowBuiltin(t *testing.T) {
	registry := NewDefaultStrategyRegistry()
	factory, built := testutils.CountingFactory(strategies.Grudger, domain.Defect)

	require.NoError(t, registry.Register(strategies.Grudger, factory))
	assert.False(t, registry.IsBuiltin(strategies.Grudger))
	assert.NotContains(t, registry.BuiltinNames(), strategies.Grudger)

	f, ok := registry.Factory(strategies.Grudger)
	require.True(t, ok)
	s, err := f()
	require.NoError(t, err)
	assert.IsType(t, &testutils.MockStrategy{}, s)
	assert.Equal(t, int64(1), built())
}

func TestDefaultStrategyRegistry_Factory(t *testing.T) {
	registry := NewDefaultStrategyRegistry()

	t.Run("unknown", func(t *testing.T) {
		_, ok := registry.Factory("nope")
		assert.False(t, ok)
	})

	t.Run("built-ins build fresh instances", func(t *testing.T) {
		for _, name := range strategies.Names() {
			f, ok := registry.Factory(name)
			require.True(t, ok, name)
			a, err := f()
			require.NoError(t, err)
			b, err := f()
			require.NoError(t, err)
			assert.Equal(t, name, a.Name())
			assert.NotSame(t, a, b)
		}
	})
}

func TestDefaultStrategyRegistry_Concurrent(t *testing.T) {
	registry := NewDefaultStrategyRegistry()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			factory, _ := testutils.CountingFactory("s", domain.Cooperate)
			assert.NoError(t, registry.Register(fmt.Sprintf("s%d", i), factory))
		}()
		go func() {
			defer wg.Done()
			f, ok := registry.Factory(strategies.Pavlov)
			if assert.True(t, ok) {
				_, err := f()
				assert.NoError(t, err)
			}
			_ = registry.Names()
		}()
	}
	wg.Wait()

	assert.Len(t, registry.Names(), len(strategies.Names())+20)
}
