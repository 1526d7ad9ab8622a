package config

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"timetrack/driver"
)

const (
	KeyWorkingHours = "timetrack.working_hours"
	KeyDriver       = "timetrack.driver"
	KeyTrackFile    = "driver.track_file"

	// StandaloneSection holds the settings of a non-router driver.
	StandaloneSection = "driver"
	RouterSection     = "router"
	timetrackSection  = "timetrack"

	DefaultWorkingHours = 10
	DefaultTrackFile    = "~/.timetrack_log"
)

type Config struct {
	Timetrack TimetrackConfig `mapstructure:"timetrack" yaml:"timetrack" validate:"required"`
	Router    RouterConfig    `mapstructure:"router" yaml:"router,omitempty"`

	// Driver sections keyed by their lowercased table name, including the
	// standalone [driver] table.
	Sections map[string]DriverSection `mapstructure:"-" yaml:"sections,omitempty" validate:"dive"`
}

type TimetrackConfig struct {
	WorkingHours float64 `mapstructure:"working_hours" yaml:"working_hours" validate:"gte=0,lte=24"`
	Driver       string  `mapstructure:"driver" yaml:"driver" validate:"omitempty,oneof=file harvest router"`
}

type RouterConfig struct {
	Drivers string `mapstructure:"drivers" yaml:"drivers,omitempty"`
}

// Names returns the router's sub-driver section names in configured order.
func (r RouterConfig) Names() []string {
	names := make([]string, 0, 4)
	for _, name := range strings.Split(r.Drivers, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

type DriverSection struct {
	Driver      string `mapstructure:"driver" yaml:"driver,omitempty" validate:"omitempty,oneof=file harvest router"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix,omitempty" validate:"omitempty,excludes=_"`
	TrackFile   string `mapstructure:"track_file" yaml:"track_file,omitempty"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token,omitempty"`
	AccountID   string `mapstructure:"account_id" yaml:"account_id,omitempty"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// Section returns the named driver section, lowercasing the name the way
// the config loader does.
func (c *Config) Section(name string) (DriverSection, bool) {
	section, ok := c.Sections[strings.ToLower(strings.TrimSpace(name))]
	return section, ok
}

// Redacted returns a copy safe for display, with access tokens masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Sections = make(map[string]DriverSection, len(c.Sections))
	for name, section := range c.Sections {
		if section.AccessToken != "" {
			section.AccessToken = "********"
		}
		out.Sections[name] = section
	}
	return out
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateContent validates configuration from raw TOML content.
func ValidateContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("toml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

type exampleTimetrack struct {
	WorkingHours int    `toml:"working_hours"`
	Driver       string `toml:"driver"`
}

type exampleDriver struct {
	TrackFile string `toml:"track_file"`
}

type exampleFile struct {
	Timetrack exampleTimetrack `toml:"timetrack"`
	Driver    exampleDriver    `toml:"driver"`
}

const exampleRouterComment = `
# To combine several backends, set timetrack.driver = "router" and list the
# sub-driver tables. Projects and tasks are then addressed as prefix_name.
#
# [router]
# drivers = "work,home"
#
# [work]
# driver = "harvest"
# prefix = "work"
# access_token = "..."
# account_id = "..."
#
# [home]
# driver = "file"
# prefix = "home"
# track_file = "~/.timetrack_home"
`

// ExampleTOML returns the default configuration template.
func ExampleTOML() (string, error) {
	var buf bytes.Buffer
	buf.WriteString("# timetrack configuration\n\n")
	err := toml.NewEncoder(&buf).Encode(exampleFile{
		Timetrack: exampleTimetrack{WorkingHours: DefaultWorkingHours, Driver: "file"},
		Driver:    exampleDriver{TrackFile: DefaultTrackFile},
	})
	if err != nil {
		return "", fmt.Errorf("encode example config: %w", err)
	}
	buf.WriteString(exampleRouterComment)
	return buf.String(), nil
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Sections = make(map[string]DriverSection)
	for key, value := range v.AllSettings() {
		if key == timetrackSection || key == RouterSection {
			continue
		}
		if _, ok := value.(map[string]any); !ok {
			continue
		}
		var section DriverSection
		if err := v.UnmarshalKey(key, &section); err != nil {
			return nil, fmt.Errorf("error unmarshaling section [%s]: %w", key, err)
		}
		cfg.Sections[key] = section
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Timetrack.Driver), "router") {
		if err := validateRouter(&cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkingHours, DefaultWorkingHours)
	v.SetDefault(KeyDriver, "file")
	v.SetDefault(KeyTrackFile, DefaultTrackFile)
}

func validateRouter(cfg *Config) error {
	names := cfg.Router.Names()
	if len(names) == 0 {
		return fmt.Errorf("validation failed: %w: router.drivers must name at least one section", driver.ErrNoSubDrivers)
	}

	prefixes := make([]string, 0, len(names))
	for _, name := range names {
		section, ok := cfg.Section(name)
		if !ok {
			return fmt.Errorf("validation failed: router sub-driver section [%s] is missing", name)
		}
		if strings.TrimSpace(section.Driver) == "" {
			return fmt.Errorf("validation failed: [%s].driver is required", name)
		}
		prefix := strings.TrimSpace(section.Prefix)
		if prefix == "" {
			return fmt.Errorf("validation failed: [%s].prefix is required", name)
		}
		if slices.Contains(prefixes, prefix) {
			return fmt.Errorf("validation failed: duplicate router prefix %q", prefix)
		}
		prefixes = append(prefixes, prefix)
	}
	return nil
}
