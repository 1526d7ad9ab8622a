package backend

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"timetrack/config"
	"timetrack/driver"
	"timetrack/harvest"
	"timetrack/router"
	"timetrack/storage"
)

func TestOpen_FileDriver(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	cfg := &config.Config{
		Timetrack: config.TimetrackConfig{Driver: "file"},
		Sections:  map[string]config.DriverSection{"driver": {TrackFile: path}},
	}

	d, err := Open(cfg, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store, ok := d.(*storage.FileStore)
	if !ok {
		t.Fatalf("expected *storage.FileStore, got %T", d)
	}
	if store.Path() != path {
		t.Fatalf("path = %q, want %q", store.Path(), path)
	}
}

func TestOpen_FileDriverRequiresTrackFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Timetrack: config.TimetrackConfig{Driver: "file"}}
	if _, err := Open(cfg, Options{}); !errors.Is(err, storage.ErrMissingTrackFile) {
		t.Fatalf("Open error = %v, want ErrMissingTrackFile", err)
	}
}

func TestOpen_HarvestDriver(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Timetrack: config.TimetrackConfig{Driver: "harvest"},
		Sections:  map[string]config.DriverSection{"driver": {AccessToken: "t", AccountID: "1"}},
	}
	d, err := Open(cfg, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := d.(*harvest.Driver); !ok {
		t.Fatalf("expected *harvest.Driver, got %T", d)
	}

	cfg.Sections["driver"] = config.DriverSection{AccessToken: "t"}
	if _, err := Open(cfg, Options{}); !errors.Is(err, driver.ErrMissingCredential) {
		t.Fatalf("Open error = %v, want ErrMissingCredential", err)
	}
}

func TestOpen_RouterDriver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &config.Config{
		Timetrack: config.TimetrackConfig{Driver: "router"},
		Router:    config.RouterConfig{Drivers: "home,side"},
		Sections: map[string]config.DriverSection{
			"home": {Driver: "file", Prefix: "home", TrackFile: filepath.Join(dir, "home")},
			"side": {Driver: "file", Prefix: "side", TrackFile: filepath.Join(dir, "side")},
		},
	}

	d, err := Open(cfg, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r, ok := d.(*router.Driver)
	if !ok {
		t.Fatalf("expected *router.Driver, got %T", d)
	}
	if got := r.Prefixes(); !slices.Equal(got, []string{"home", "side"}) {
		t.Fatalf("prefixes = %v", got)
	}

	rec, err := d.AddEntry(context.Background(), driver.AddRequest{Project: "side_Blog", Time: "25"})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if rec.ID != "side_1" {
		t.Fatalf("id = %q, want side_1", rec.ID)
	}

	projects, err := d.GetProjects(context.Background())
	if err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if !slices.Equal(projects, []string{"side_Blog"}) {
		t.Fatalf("projects = %v", projects)
	}
}

func TestOpen_RouterErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{
			name: "no sub-drivers",
			cfg:  &config.Config{Timetrack: config.TimetrackConfig{Driver: "router"}},
			want: driver.ErrNoSubDrivers,
		},
		{
			name: "missing prefix",
			cfg: &config.Config{
				Timetrack: config.TimetrackConfig{Driver: "router"},
				Router:    config.RouterConfig{Drivers: "a"},
				Sections:  map[string]config.DriverSection{"a": {Driver: "file", TrackFile: "/tmp/a"}},
			},
			want: driver.ErrUnknownPrefix,
		},
	}
	for _, tc := range cases {
		if _, err := Open(tc.cfg, Options{}); !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}

	nested := &config.Config{
		Timetrack: config.TimetrackConfig{Driver: "router"},
		Router:    config.RouterConfig{Drivers: "a"},
		Sections:  map[string]config.DriverSection{"a": {Driver: "router", Prefix: "a"}},
	}
	if _, err := Open(nested, Options{}); err == nil || !strings.Contains(err.Error(), "cannot contain another router") {
		t.Fatalf("nested router error = %v", err)
	}

	missing := &config.Config{
		Timetrack: config.TimetrackConfig{Driver: "router"},
		Router:    config.RouterConfig{Drivers: "ghost"},
	}
	if _, err := Open(missing, Options{}); err == nil || !strings.Contains(err.Error(), "[ghost] is missing") {
		t.Fatalf("missing section error = %v", err)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Open(&config.Config{Timetrack: config.TimetrackConfig{Driver: "sqlite"}}, Options{}); err == nil {
		t.Fatal("expected error for unknown driver kind")
	}
}
