package main

import (
	"fmt"
	"io"
	"os"

	"dwmdump/config"
	"dwmdump/process"
	"dwmdump/proctable"
	"dwmdump/trigger"
	"dwmdump/trust"

	"github.com/spf13/cobra"
)

// platform bundles the operating-system side of the pipeline
type platform struct {
	gate     trigger.TrustGate
	elevator trigger.Elevator
	finder   trigger.Finder
	dumper   trigger.Dumper
	sessions trigger.SessionResolver
	lister   lister
	hotKey   func(trigger.HotKey) trigger.OpenFunc
}

type lister interface {
	Enumerate() ([]process.ProcessRecord, error)
}

// newPlatform is replaced in tests
var newPlatform = getPlatform

// Windows-style switches accepted next to the usual flags
var switchAliases = map[string]string{
	"/immediate": "--immediate",
	"-immediate": "--immediate",
	"/?":         "--help",
	"-?":         "--help",
	"/help":      "--help",
	"-help":      "--help",
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout))
}

func execute(args []string, out io.Writer) int {
	cmd := newRootCommand(out)
	cmd.SetArgs(normalizeArgs(args))
	cmd.SetOut(out)
	cmd.SetErr(out)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}
	return 0
}

func normalizeArgs(args []string) []string {
	normalized := make([]string, len(args))
	for i, arg := range args {
		if alias, ok := switchAliases[arg]; ok {
			arg = alias
		}
		normalized[i] = arg
	}
	return normalized
}

func newRootCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dwmdump [flags] [destination.dmp]",
		Short: "Write a full memory dump of the desktop window manager",
		Long: `dwmdump writes a full-featured minidump of the dwm.exe process running in
the caller's session. By default it waits for SHIFT+CTRL+D; with /immediate it
dumps straight away. It must run elevated (High integrity or above).`,
		Example: `  dwmdump
  dwmdump /immediate C:\dumps\dwm.dmp
  dwmdump --target explorer.exe --hotkey alt+f9
  dwmdump --list`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v := config.New()
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		if err := config.ReadFile(v); err != nil {
			return err
		}
		// The last positional argument names the destination.
		if len(args) > 0 {
			v.Set(config.KeyOutput, args[len(args)-1])
		}

		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return run(cfg, out)
	}
	return cmd
}

func run(cfg *config.Config, out io.Writer) error {
	p, err := newPlatform()
	if err != nil {
		return err
	}

	if cfg.List {
		return list(p, cfg, out)
	}

	open := func() (trigger.Source, error) {
		return trigger.NewImmediateSource(), nil
	}
	if !cfg.Immediate {
		open = func() (trigger.Source, error) {
			source, err := p.hotKey(cfg.HotKey)()
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(out, "Press %s to dump %s\n", cfg.HotKey, describeTarget(cfg))
			return source, nil
		}
	}

	controller := trigger.NewController(bannerGate{p.gate, out}, p.elevator, p.finder, p.dumper, p.sessions, cfg.Options())
	if err := controller.Run(open); err != nil {
		return err
	}

	fmt.Fprintf(out, "Done! Dump written to %s\n", cfg.Output)
	return nil
}

// list prints the process table. It needs no elevation.
func list(p *platform, cfg *config.Config, out io.Writer) error {
	session, err := p.sessions.CurrentSession()
	if err != nil {
		return err
	}
	records, err := p.lister.Enumerate()
	if err != nil {
		return err
	}
	return proctable.Render(out, records, cfg.Target, session, out == io.Writer(os.Stdout))
}

func describeTarget(cfg *config.Config) string {
	if cfg.PID != 0 {
		return fmt.Sprintf("pid %d", cfg.PID)
	}
	return cfg.Target
}

// bannerGate prints the trust level the controller observes. A failed query
// is reported as Untrusted, which is how the controller treats it.
type bannerGate struct {
	trigger.TrustGate
	out io.Writer
}

func (g bannerGate) CurrentTrustLevel() (trust.Level, error) {
	level, err := g.TrustGate.CurrentTrustLevel()
	if err != nil {
		level = trust.Untrusted
	}
	fmt.Fprintf(g.out, "Running at %s trust level\n", level)
	return level, err
}

