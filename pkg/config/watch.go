package config

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ja7ad/revshift/pkg/attr"
	"github.com/ja7ad/revshift/pkg/logging"
)

// ErrNoConfigFile is returned by Watch when v was not loaded from a file.
var ErrNoConfigFile = errors.New("config: no config file in use")

// Apply stores values into set. Stores rejected on the first pass are
// retried once after the rest, so interdependent bounds such as min_units
// and max_units can move together in either direction. Names the set does
// not know are skipped.
func Apply(set *attr.Set, values map[string]uint64) error {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	slices.Sort(names)

	var retry []string
	for _, n := range names {
		err := set.StoreUint(n, values[n])
		switch {
		case err == nil, errors.Is(err, attr.ErrUnknown):
		default:
			retry = append(retry, n)
		}
	}

	var errs []error
	for _, n := range retry {
		if err := set.StoreUint(n, values[n]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch reloads the config file on every change and applies the tunables
// to set. A file that fails validation is ignored as a whole; individual
// rejected stores keep their previous value. Both are logged.
func Watch(v *viper.Viper, set *attr.Set, log *slog.Logger) error {
	if v.ConfigFileUsed() == "" {
		return ErrNoConfigFile
	}
	log = logging.OrNop(log).With("component", "config")
	v.OnConfigChange(func(e fsnotify.Event) {
		l := log.With("file", e.Name, "op", e.Op.String())
		cfg, err := Load(v)
		if err != nil {
			l.Warn("config reload rejected", "err", err)
			return
		}
		if err := Apply(set, cfg.Attrs()); err != nil {
			l.Warn("config reload partially applied", "err", err)
			return
		}
		l.Info("config reloaded")
	})
	v.WatchConfig()
	return nil
}
