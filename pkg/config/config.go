// Package config loads revshift's file and environment configuration with
// viper, validates it and pushes tunables into an attr.Set, including on
// hot reload.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ja7ad/revshift/pkg/hotplug"
	"github.com/ja7ad/revshift/pkg/logging"
	"github.com/ja7ad/revshift/pkg/vmpressure"
)

// EnvPrefix prefixes environment overrides, e.g. REVSHIFT_HOTPLUG_SHIFT_ALL.
const EnvPrefix = "REVSHIFT"

// Config is the complete daemon configuration.
type Config struct {
	Hotplug    HotplugConfig    `mapstructure:"hotplug"`
	VMPressure VMPressureConfig `mapstructure:"vmpressure"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Input      InputConfig      `mapstructure:"input"`
}

// HotplugConfig holds the controller switches and tunables.
type HotplugConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Touchplug bool `mapstructure:"touchplug"`
	Debug     bool `mapstructure:"debug"`

	// InitialDelayMs holds off the first tick after start.
	InitialDelayMs int `mapstructure:"initial_delay_ms"`

	ShiftAll            uint32 `mapstructure:"shift_all"`
	ShiftCPU1           uint32 `mapstructure:"shift_cpu1"`
	ShiftThreshold      uint32 `mapstructure:"shift_threshold"`
	ShiftAllThreshold   uint32 `mapstructure:"shift_all_threshold"`
	DownShift           uint32 `mapstructure:"down_shift"`
	DownshiftThreshold  uint32 `mapstructure:"downshift_threshold"`
	SampleTimeMs        uint32 `mapstructure:"sample_time_ms"`
	TouchplugDurationMs uint32 `mapstructure:"touchplug_duration_ms"`
	MinUnits            uint32 `mapstructure:"min_units"`
	// MaxUnits of 0 means every unit the platform has.
	MaxUnits uint32 `mapstructure:"max_units"`
}

// VMPressureConfig holds the pressure service tunables and the reclaim
// sampling period.
type VMPressureConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Window       uint32 `mapstructure:"window"`
	LevelMed     uint32 `mapstructure:"level_med"`
	LevelOOM     uint32 `mapstructure:"level_oom"`
	LevelOOMPrio uint32 `mapstructure:"level_oom_prio"`
	MaxWatchers  int    `mapstructure:"max_watchers"`
	// SampleMs is how often reclaim counters are read to feed the accumulator.
	SampleMs int `mapstructure:"sample_ms"`
	// Cgroup scopes pressure to one cgroup v2 group, either absolute or
	// relative to the cgroup2 mount. Empty means system-wide /proc/vmstat.
	Cgroup string `mapstructure:"cgroup"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig is the operator endpoint serving /metrics, /attrs and
// /pressure.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// InputConfig selects the evdev devices that count as interaction. An empty
// device list means discover touch devices under /sys.
type InputConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Devices []string `mapstructure:"devices"`
}

// Default returns the stock configuration.
func Default() *Config {
	tun := hotplug.DefaultTunables(1)
	sw := hotplug.DefaultSwitches()
	vm := vmpressure.DefaultTunables()
	return &Config{
		Hotplug: HotplugConfig{
			Enabled:             sw.Enabled,
			Touchplug:           sw.Touchplug,
			Debug:               sw.Debug,
			InitialDelayMs:      int(hotplug.DefaultInitialDelay.Milliseconds()),
			ShiftAll:            tun.ShiftAll,
			ShiftCPU1:           tun.ShiftCPU1,
			ShiftThreshold:      tun.ShiftThreshold,
			ShiftAllThreshold:   tun.ShiftAllThreshold,
			DownShift:           tun.DownShift,
			DownshiftThreshold:  tun.DownshiftThreshold,
			SampleTimeMs:        tun.SampleTimeMs,
			TouchplugDurationMs: tun.TouchplugDurationMs,
			MinUnits:            tun.MinUnits,
		},
		VMPressure: VMPressureConfig{
			Enabled:      true,
			Window:       vm.Window,
			LevelMed:     vm.LevelMed,
			LevelOOM:     vm.LevelOOM,
			LevelOOMPrio: vm.LevelOOMPrio,
			SampleMs:     100,
		},
		Logging: LoggingConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9478",
		},
		Input: InputConfig{Enabled: true},
	}
}

// SetDefaults registers every default on v so unset keys unmarshal to them
// and environment overrides are picked up for every key.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("hotplug.enabled", d.Hotplug.Enabled)
	v.SetDefault("hotplug.touchplug", d.Hotplug.Touchplug)
	v.SetDefault("hotplug.debug", d.Hotplug.Debug)
	v.SetDefault("hotplug.initial_delay_ms", d.Hotplug.InitialDelayMs)
	v.SetDefault("hotplug.shift_all", d.Hotplug.ShiftAll)
	v.SetDefault("hotplug.shift_cpu1", d.Hotplug.ShiftCPU1)
	v.SetDefault("hotplug.shift_threshold", d.Hotplug.ShiftThreshold)
	v.SetDefault("hotplug.shift_all_threshold", d.Hotplug.ShiftAllThreshold)
	v.SetDefault("hotplug.down_shift", d.Hotplug.DownShift)
	v.SetDefault("hotplug.downshift_threshold", d.Hotplug.DownshiftThreshold)
	v.SetDefault("hotplug.sample_time_ms", d.Hotplug.SampleTimeMs)
	v.SetDefault("hotplug.touchplug_duration_ms", d.Hotplug.TouchplugDurationMs)
	v.SetDefault("hotplug.min_units", d.Hotplug.MinUnits)
	v.SetDefault("hotplug.max_units", d.Hotplug.MaxUnits)

	v.SetDefault("vmpressure.enabled", d.VMPressure.Enabled)
	v.SetDefault("vmpressure.window", d.VMPressure.Window)
	v.SetDefault("vmpressure.level_med", d.VMPressure.LevelMed)
	v.SetDefault("vmpressure.level_oom", d.VMPressure.LevelOOM)
	v.SetDefault("vmpressure.level_oom_prio", d.VMPressure.LevelOOMPrio)
	v.SetDefault("vmpressure.max_watchers", d.VMPressure.MaxWatchers)
	v.SetDefault("vmpressure.sample_ms", d.VMPressure.SampleMs)
	v.SetDefault("vmpressure.cgroup", d.VMPressure.Cgroup)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("http.enabled", d.HTTP.Enabled)
	v.SetDefault("http.addr", d.HTTP.Addr)

	v.SetDefault("input.enabled", d.Input.Enabled)
	v.SetDefault("input.devices", d.Input.Devices)
}

// New returns a viper instance with defaults and REVSHIFT_* environment
// overrides. When path is set the file is read; its format follows the
// extension.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// HotplugTunables builds controller tunables for a platform with the given
// unit count.
func (c *Config) HotplugTunables(platform int) hotplug.Tunables {
	h := c.Hotplug
	t := hotplug.Tunables{
		ShiftAll:            h.ShiftAll,
		ShiftCPU1:           h.ShiftCPU1,
		ShiftThreshold:      h.ShiftThreshold,
		ShiftAllThreshold:   h.ShiftAllThreshold,
		DownShift:           h.DownShift,
		DownshiftThreshold:  h.DownshiftThreshold,
		SampleTimeMs:        h.SampleTimeMs,
		TouchplugDurationMs: h.TouchplugDurationMs,
		MinUnits:            h.MinUnits,
		MaxUnits:            h.MaxUnits,
	}
	if t.MaxUnits == 0 || int(t.MaxUnits) > platform {
		t.MaxUnits = uint32(platform)
	}
	return t
}

func (c *Config) HotplugSwitches() hotplug.Switches {
	return hotplug.Switches{
		Enabled:   c.Hotplug.Enabled,
		Touchplug: c.Hotplug.Touchplug,
		Debug:     c.Hotplug.Debug,
	}
}

func (c *Config) VMPressureTunables() vmpressure.Tunables {
	return vmpressure.Tunables{
		Window:       c.VMPressure.Window,
		LevelMed:     c.VMPressure.LevelMed,
		LevelOOM:     c.VMPressure.LevelOOM,
		LevelOOMPrio: c.VMPressure.LevelOOMPrio,
	}
}

// Attrs maps the runtime-settable values onto attribute names. max_units is
// left out when it is 0 so the platform count stays in effect.
func (c *Config) Attrs() map[string]uint64 {
	h, vm := c.Hotplug, c.VMPressure
	m := map[string]uint64{
		hotplug.AttrShiftAll:            uint64(h.ShiftAll),
		hotplug.AttrShiftCPU1:           uint64(h.ShiftCPU1),
		hotplug.AttrShiftThreshold:      uint64(h.ShiftThreshold),
		hotplug.AttrShiftAllThreshold:   uint64(h.ShiftAllThreshold),
		hotplug.AttrDownShift:           uint64(h.DownShift),
		hotplug.AttrDownshiftThreshold:  uint64(h.DownshiftThreshold),
		hotplug.AttrSampleTimeMs:        uint64(h.SampleTimeMs),
		hotplug.AttrTouchplugDurationMs: uint64(h.TouchplugDurationMs),
		hotplug.AttrMinUnits:            uint64(h.MinUnits),
		hotplug.AttrEnabled:             b2u(h.Enabled),
		hotplug.AttrTouchplug:           b2u(h.Touchplug),
		hotplug.AttrDebug:               b2u(h.Debug),
		vmpressure.AttrWindow:           uint64(vm.Window),
		vmpressure.AttrLevelMed:         uint64(vm.LevelMed),
		vmpressure.AttrLevelOOM:         uint64(vm.LevelOOM),
		vmpressure.AttrLevelOOMPrio:     uint64(vm.LevelOOMPrio),
	}
	if h.MaxUnits != 0 {
		m[hotplug.AttrMaxUnits] = uint64(h.MaxUnits)
	}
	return m
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
