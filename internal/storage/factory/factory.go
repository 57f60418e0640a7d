// Package factory selects and constructs exactly one storage backend per
// process from configuration, lazily, with an explicit reset for
// re-selection and test isolation.
package factory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/avelasco/payplan/internal/config"
	"github.com/avelasco/payplan/internal/database"
	"github.com/avelasco/payplan/internal/httpclient"
	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
	"github.com/avelasco/payplan/internal/storage/hosted"
	"github.com/avelasco/payplan/internal/storage/local"
	"github.com/avelasco/payplan/internal/storage/remote"
)

// Backend kinds accepted by STORAGE_BACKEND.
const (
	BackendLocal  = "local"
	BackendAPI    = "api"
	BackendHosted = "hosted"
)

// Factory memoizes one backend instance. All callers share it, so they
// observe the same backend state without further coordination.
type Factory struct {
	cfg config.Config

	mu      sync.Mutex
	store   plan.Store
	device  *local.Store
	closers []io.Closer
}

func New(cfg config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// Store returns the configured backend, constructing it on first use.
// Configuration completeness is validated here, not deferred to the
// first operation.
func (f *Factory) Store(ctx context.Context) (plan.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store != nil {
		return f.store, nil
	}

	if err := f.build(ctx); err != nil {
		return nil, err
	}

	return f.store, nil
}

// Device returns the device-local store backing the active backend. It
// always exists: remote and hosted backends keep the active-plan pointer
// and credentials on the device, and the sync queue lives there too.
func (f *Factory) Device(ctx context.Context) (*local.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store == nil {
		if err := f.build(ctx); err != nil {
			return nil, err
		}
	}

	return f.device, nil
}

func (f *Factory) build(_ context.Context) error {
	device, err := local.Open(f.cfg.Local.Path, local.Options{
		MaxValueBytes: f.cfg.Local.MaxValueBytes,
	})
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}

	f.device = device
	f.closers = append(f.closers, device)

	switch f.cfg.Storage.Backend {
	case BackendLocal:
		f.store = device

	case BackendAPI:
		if f.cfg.API.BaseURL == "" {
			f.closeAll()
			return storage.NewError(storage.KindConfig, "factory",
				"api backend requires API_BASE_URL", nil)
		}

		client := httpclient.New(httpclient.Options{
			BaseURL:        f.cfg.API.BaseURL,
			Timeout:        f.cfg.API.Timeout,
			MaxRetries:     f.cfg.API.MaxRetries,
			RetryBaseDelay: f.cfg.API.RetryBaseDelay,
		})
		f.store = remote.New(client, device)

	case BackendHosted:
		if f.cfg.DB.Host == "" || f.cfg.DB.Password == "" {
			f.closeAll()
			return storage.NewError(storage.KindConfig, "factory",
				"hosted backend requires DB_HOST and DB_PASSWORD", nil)
		}

		db, err := database.New(f.cfg.ConnectionString(), database.Pool{
			MaxOpenConns:    f.cfg.DB.MaxOpenConns,
			MaxIdleConns:    f.cfg.DB.MaxIdleConns,
			ConnMaxLifetime: f.cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			f.closeAll()
			return fmt.Errorf("connecting to hosted database: %w", err)
		}

		if err := hosted.Migrate(db); err != nil {
			db.Close()
			f.closeAll()

			return fmt.Errorf("migrating hosted database: %w", err)
		}

		f.closers = append(f.closers, db)
		f.store = hosted.New(db, device)

	default:
		f.closeAll()

		return storage.NewError(storage.KindConfig, "factory",
			fmt.Sprintf("unknown storage backend %q", f.cfg.Storage.Backend), nil)
	}

	return nil
}

// Reset discards the memoized backend and closes its resources. The next
// Store call re-selects from configuration.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closeAll()
}

func (f *Factory) closeAll() {
	for _, c := range f.closers {
		c.Close()
	}

	f.closers = nil
	f.store = nil
	f.device = nil
}
