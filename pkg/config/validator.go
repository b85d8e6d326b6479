package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ja7ad/revshift/pkg/logging"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e))
	for _, err := range e {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate returns every invalid value in c. Bounds that depend on the
// platform unit count are checked again when the controller is built.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateHotplug()...)
	errs = append(errs, c.validateVMPressure()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateHTTP()...)
	return errs
}

func (c *Config) validateHotplug() []ValidationError {
	var errs []ValidationError
	h := c.Hotplug
	if h.MinUnits < 1 {
		errs = append(errs, ValidationError{"hotplug.min_units", h.MinUnits, "must be at least 1"})
	}
	if h.MaxUnits != 0 && h.MaxUnits < h.MinUnits {
		errs = append(errs, ValidationError{"hotplug.max_units", h.MaxUnits, "must be 0 or at least min_units"})
	}
	if h.SampleTimeMs < 1 {
		errs = append(errs, ValidationError{"hotplug.sample_time_ms", h.SampleTimeMs, "must be at least 1"})
	}
	if h.InitialDelayMs < 0 {
		errs = append(errs, ValidationError{"hotplug.initial_delay_ms", h.InitialDelayMs, "must not be negative"})
	}
	return errs
}

func (c *Config) validateVMPressure() []ValidationError {
	var errs []ValidationError
	vm := c.VMPressure
	if vm.Window == 0 {
		errs = append(errs, ValidationError{"vmpressure.window", vm.Window, "must be greater than 0"})
	}
	if vm.LevelOOM > 100 {
		errs = append(errs, ValidationError{"vmpressure.level_oom", vm.LevelOOM, "must be at most 100"})
	}
	if vm.LevelMed >= vm.LevelOOM {
		errs = append(errs, ValidationError{"vmpressure.level_med", vm.LevelMed, "must be below level_oom"})
	}
	if vm.MaxWatchers < 0 {
		errs = append(errs, ValidationError{"vmpressure.max_watchers", vm.MaxWatchers, "must not be negative"})
	}
	if vm.Enabled && vm.SampleMs < 1 {
		errs = append(errs, ValidationError{"vmpressure.sample_ms", vm.SampleMs, "must be at least 1"})
	}
	if slices.Contains(strings.Split(vm.Cgroup, "/"), "..") {
		errs = append(errs, ValidationError{"vmpressure.cgroup", vm.Cgroup, "must not contain .."})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level,
			fmt.Sprintf("must be one of %s", strings.Join(logging.ValidLevels(), ", "))})
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, ValidationError{"logging.format", c.Logging.Format, "must be text or json"})
	}
	return errs
}

func (c *Config) validateHTTP() []ValidationError {
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return []ValidationError{{"http.addr", c.HTTP.Addr, "required when the endpoint is enabled"}}
	}
	return nil
}
