package factory_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco/payplan/internal/config"
	"github.com/avelasco/payplan/internal/storage"
	"github.com/avelasco/payplan/internal/storage/factory"
	"github.com/avelasco/payplan/internal/storage/local"
)

func localConfig(t *testing.T) config.Config {
	t.Helper()

	var cfg config.Config
	cfg.Storage.Backend = factory.BackendLocal
	cfg.Local.Path = filepath.Join(t.TempDir(), "payplan.db")

	return cfg
}

func TestFactory_MemoizesSingleInstance(t *testing.T) {
	f := factory.New(localConfig(t))
	defer f.Reset()

	ctx := context.Background()

	first, err := f.Store(ctx)
	require.NoError(t, err)

	second, err := f.Store(ctx)
	require.NoError(t, err)

	assert.Same(t, first.(*local.Store), second.(*local.Store))
}

func TestFactory_LocalBackendIsDeviceStore(t *testing.T) {
	f := factory.New(localConfig(t))
	defer f.Reset()

	ctx := context.Background()

	store, err := f.Store(ctx)
	require.NoError(t, err)

	device, err := f.Device(ctx)
	require.NoError(t, err)

	assert.Same(t, store.(*local.Store), device)
}

func TestFactory_ResetRebuilds(t *testing.T) {
	f := factory.New(localConfig(t))
	defer f.Reset()

	ctx := context.Background()

	first, err := f.Store(ctx)
	require.NoError(t, err)

	f.Reset()

	second, err := f.Store(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first.(*local.Store), second.(*local.Store))
}

func TestFactory_APIBackendRequiresBaseURL(t *testing.T) {
	cfg := localConfig(t)
	cfg.Storage.Backend = factory.BackendAPI

	f := factory.New(cfg)
	defer f.Reset()

	_, err := f.Store(context.Background())

	require.Error(t, err)
	assert.Equal(t, storage.KindConfig, storage.KindOf(err))
}

func TestFactory_APIBackendBuildsWithBaseURL(t *testing.T) {
	cfg := localConfig(t)
	cfg.Storage.Backend = factory.BackendAPI
	cfg.API.BaseURL = "http://localhost:8080/v1"

	f := factory.New(cfg)
	defer f.Reset()

	store, err := f.Store(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestFactory_HostedBackendRequiresCredentials(t *testing.T) {
	cfg := localConfig(t)
	cfg.Storage.Backend = factory.BackendHosted
	cfg.DB.Host = "localhost"
	cfg.DB.Password = ""

	f := factory.New(cfg)
	defer f.Reset()

	_, err := f.Store(context.Background())

	require.Error(t, err)
	assert.Equal(t, storage.KindConfig, storage.KindOf(err))
}

func TestFactory_UnknownBackend(t *testing.T) {
	cfg := localConfig(t)
	cfg.Storage.Backend = "floppy"

	f := factory.New(cfg)
	defer f.Reset()

	_, err := f.Store(context.Background())

	require.Error(t, err)
	assert.Equal(t, storage.KindConfig, storage.KindOf(err))
}
