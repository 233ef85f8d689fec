// Package config resolves the dump settings from flags, DWMDUMP_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dwmdump/privilege"
	"dwmdump/trigger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidArgument is returned for settings that cannot be used.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	KeyOutput    = "output"
	KeyTarget    = "target"
	KeyImmediate = "immediate"
	KeyPID       = "pid"
	KeyHotKey    = "hotkey"
	KeyPrivilege = "privilege"
	KeyConfig    = "config"
	KeyList      = "list"

	EnvPrefix = "DWMDUMP"

	DefaultOutput = "dwmdump.dmp"
	DefaultHotKey = "ctrl+shift+d"

	// DumpExtension is required on the destination, case-sensitive
	DumpExtension = ".dmp"
)

// Config is the resolved set of settings for one run
type Config struct {
	Output     string // absolute
	Target     string
	Immediate  bool
	PID        uint32
	HotKey     trigger.HotKey
	Privilege  string
	ConfigFile string
	List       bool
}

// Options converts c into controller options
func (c *Config) Options() trigger.Options {
	return trigger.Options{
		Target:    c.Target,
		Output:    c.Output,
		PID:       c.PID,
		Privilege: c.Privilege,
	}
}

// New returns a viper instance with defaults and environment binding set up
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyOutput, DefaultOutput)
	v.SetDefault(KeyTarget, trigger.DefaultTarget)
	v.SetDefault(KeyImmediate, false)
	v.SetDefault(KeyPID, 0)
	v.SetDefault(KeyHotKey, DefaultHotKey)
	v.SetDefault(KeyPrivilege, privilege.DebugPrivilege)
	v.SetDefault(KeyList, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// AddFlags defines the command-line flags on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.Bool(KeyImmediate, false, "dump right away instead of waiting for the hot-key")
	fs.String(KeyTarget, trigger.DefaultTarget, "image-name prefix of the process to dump")
	fs.Uint32(KeyPID, 0, "dump this process id and skip the name lookup")
	fs.String(KeyHotKey, DefaultHotKey, "global hot-key that triggers the dump")
	fs.String(KeyPrivilege, privilege.DebugPrivilege, "privilege to enable before dumping")
	fs.String(KeyConfig, "", "optional config file (yaml, json or toml)")
	fs.Bool(KeyList, false, "print the process table, marking the dump target, and exit")
}

// BindFlags binds every flag AddFlags defines to its key
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyImmediate, KeyTarget, KeyPID, KeyHotKey, KeyPrivilege, KeyConfig, KeyList} {
		flag := fs.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", key, err)
		}
	}
	return nil
}

// ReadFile merges the config file named by the config key, if any
func ReadFile(v *viper.Viper) error {
	file := v.GetString(KeyConfig)
	if file == "" {
		return nil
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: reading config %s: %w", ErrInvalidArgument, file, err)
	}
	return nil
}

// Load validates the settings held by v
func Load(v *viper.Viper) (*Config, error) {
	output, err := ResolveOutput(v.GetString(KeyOutput))
	if err != nil {
		return nil, err
	}

	target := v.GetString(KeyTarget)
	if target == "" {
		return nil, fmt.Errorf("%w: empty target name", ErrInvalidArgument)
	}

	privilegeName := v.GetString(KeyPrivilege)
	if privilegeName == "" {
		return nil, fmt.Errorf("%w: empty privilege name", ErrInvalidArgument)
	}

	pid := v.GetInt64(KeyPID)
	if pid < 0 || pid > int64(^uint32(0)) {
		return nil, fmt.Errorf("%w: pid %d out of range", ErrInvalidArgument, pid)
	}

	hotKey, err := trigger.ParseHotKey(v.GetString(KeyHotKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return &Config{
		Output:     output,
		Target:     target,
		Immediate:  v.GetBool(KeyImmediate),
		PID:        uint32(pid),
		HotKey:     hotKey,
		Privilege:  privilegeName,
		ConfigFile: v.GetString(KeyConfig),
		List:       v.GetBool(KeyList),
	}, nil
}

// ResolveOutput checks the dump extension and makes path absolute. A file
// named only ".dmp" is a dotfile with no extension and is rejected.
func ResolveOutput(path string) (string, error) {
	base := filepath.Base(path)
	if filepath.Ext(base) != DumpExtension || base == DumpExtension {
		return "", fmt.Errorf("%w: destination %q must name a %s file", ErrInvalidArgument, path, DumpExtension)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidArgument, path, err)
	}
	return abs, nil
}
