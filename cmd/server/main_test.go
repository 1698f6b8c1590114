package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/auth/provider"
	"authbridge/internal/platform/config"
)

func TestBuildRegistry(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"AUTH_PROVIDER":     "supabase",
		"SUPABASE_URL":      "http://localhost:54321",
		"SUPABASE_ANON_KEY": "anon",
	})
	require.NoError(t, err)

	registry, err := buildRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []provider.Name{provider.NameFirebase, provider.NameSupabase}, registry.Names())

	p, err := registry.Get(cfg.ProviderName())
	require.NoError(t, err)
	assert.Equal(t, provider.NameSupabase, p.Name())
}
