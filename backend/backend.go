// Package backend resolves the configured driver.Driver implementation.
package backend

import (
	"fmt"
	"log/slog"
	"time"

	"timetrack/config"
	"timetrack/driver"
	"timetrack/harvest"
	"timetrack/router"
	"timetrack/storage"
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Open builds the driver named by timetrack.driver. File and harvest drivers
// read the standalone [driver] table; a router reads [router] and one table
// per sub-driver.
func Open(cfg *config.Config, opts Options) (driver.Driver, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	kind, err := driver.ParseKind(cfg.Timetrack.Driver)
	if err != nil {
		return nil, err
	}

	if kind == driver.KindRouter {
		return openRouter(cfg, opts)
	}
	section, _ := cfg.Section(config.StandaloneSection)
	return openLeaf(kind, config.StandaloneSection, section, opts)
}

func openRouter(cfg *config.Config, opts Options) (driver.Driver, error) {
	names := cfg.Router.Names()
	if len(names) == 0 {
		return nil, driver.ErrNoSubDrivers
	}

	routes := make([]router.Route, 0, len(names))
	for _, name := range names {
		section, ok := cfg.Section(name)
		if !ok {
			return nil, fmt.Errorf("router sub-driver section [%s] is missing", name)
		}
		if section.Prefix == "" {
			return nil, fmt.Errorf("%w: [%s] has no prefix", driver.ErrUnknownPrefix, name)
		}
		kind, err := driver.ParseKind(section.Driver)
		if err != nil {
			return nil, fmt.Errorf("[%s]: %w", name, err)
		}
		if kind == driver.KindRouter {
			return nil, fmt.Errorf("[%s]: a router cannot contain another router", name)
		}

		sub, err := openLeaf(kind, name, section, Options{
			Logger: opts.Logger.With("route", section.Prefix),
			Now:    opts.Now,
		})
		if err != nil {
			return nil, err
		}
		routes = append(routes, router.Route{Prefix: section.Prefix, Driver: sub})
	}

	opts.Logger.Debug("opened router driver", "routes", len(routes))
	return router.New(routes, opts.Logger)
}

func openLeaf(kind driver.Kind, name string, section config.DriverSection, opts Options) (driver.Driver, error) {
	switch kind {
	case driver.KindFile:
		store, err := storage.OpenFileStore(storage.FileConfig{
			TrackFile: section.TrackFile,
			Logger:    opts.Logger,
			Now:       opts.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("[%s]: %w", name, err)
		}
		opts.Logger.Debug("opened file driver", "section", name, "path", store.Path())
		return store, nil
	case driver.KindHarvest:
		d, err := harvest.New(harvest.Config{
			AccessToken: section.AccessToken,
			AccountID:   section.AccountID,
			Endpoint:    section.Endpoint,
			Logger:      opts.Logger,
			Now:         opts.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("[%s]: %w", name, err)
		}
		opts.Logger.Debug("opened harvest driver", "section", name)
		return d, nil
	default:
		return nil, fmt.Errorf("[%s]: unsupported driver type %q", name, kind)
	}
}
