// Package config binds command line options to flags, environment variables
// and an optional TOML file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every option name to form its environment variable.
const EnvPrefix = "STORK"

// Opt is a single command-line option
type Opt struct {
	DestP   interface{} // pointer to the destination
	Flag    string
	Default interface{}
	Desc    string
}

// NewOpt creates a new command line option.
func NewOpt(destP interface{}, flag string, dflt interface{}, desc string) Opt {
	return Opt{
		DestP:   destP,
		Flag:    flag,
		Default: dflt,
		Desc:    desc,
	}
}

// Loader resolves options against a private viper instance.
type Loader struct {
	v    *viper.Viper
	opts []Opt
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return &Loader{v: v}
}

// Bind adds opts to fs and registers them with the loader.
func (l *Loader) Bind(fs *pflag.FlagSet, opts ...Opt) error {
	for _, o := range opts {
		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			fs.StringVar(destP, o.Flag, d, o.Desc)
		case *int:
			var d int
			if o.Default != nil {
				d = o.Default.(int)
			}
			fs.IntVar(destP, o.Flag, d, o.Desc)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			fs.BoolVar(destP, o.Flag, d, o.Desc)
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			fs.DurationVar(destP, o.Flag, d, o.Desc)
		case *zapcore.Level:
			var d zapcore.Level
			if o.Default != nil {
				d = o.Default.(zapcore.Level)
			}
			LevelVar(fs, destP, o.Flag, d, o.Desc)
		default:
			return fmt.Errorf("unknown destination type %T for option %q", o.DestP, o.Flag)
		}
		if err := l.v.BindPFlag(o.Flag, fs.Lookup(o.Flag)); err != nil {
			return errors.Wrapf(err, "binding option %q", o.Flag)
		}
		l.opts = append(l.opts, o)
	}
	return nil
}

// ReadFile merges the TOML file at path beneath flags and the environment.
func (l *Loader) ReadFile(path string) error {
	l.v.SetConfigFile(path)
	l.v.SetConfigType("toml")
	if err := l.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	return nil
}

// Load writes the resolved value of every bound option into its destination.
func (l *Loader) Load() error {
	for _, o := range l.opts {
		switch destP := o.DestP.(type) {
		case *string:
			*destP = l.v.GetString(o.Flag)
		case *int:
			*destP = l.v.GetInt(o.Flag)
		case *bool:
			*destP = l.v.GetBool(o.Flag)
		case *time.Duration:
			*destP = l.v.GetDuration(o.Flag)
		case *zapcore.Level:
			var level zapcore.Level
			if err := level.Set(l.v.GetString(o.Flag)); err != nil {
				return errors.Wrapf(err, "option %q", o.Flag)
			}
			*destP = level
		}
	}
	return nil
}
