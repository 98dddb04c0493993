package client

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/credvault/internal/app"
	"github.com/MKhiriev/credvault/internal/config"
	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/internal/vault"
	"github.com/MKhiriev/credvault/models"
)

// App runs one credvault subcommand against the configured vault.
type App struct {
	cfg   *config.StructuredConfig
	opts  vault.Options
	build models.AppBuildInfo
	log   *logger.Logger

	prompt Prompter
	clip   Clipboard
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customises an [App].
type Option func(*App)

// WithPrompter replaces the terminal prompter.
func WithPrompter(p Prompter) Option {
	return func(a *App) { a.prompt = p }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(a *App) { a.clip = c }
}

// WithIO replaces the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	}
}

// WithBuildInfo sets the version reported by `credvault version`.
func WithBuildInfo(info models.AppBuildInfo) Option {
	return func(a *App) { a.build = info }
}

var _ Client = (*App)(nil)

// NewApp builds the application from a validated config. The logger is
// taken from the context passed to [App.Run].
func NewApp(cfg *config.StructuredConfig, opts ...Option) (*App, error) {
	vaultOpts, err := cfg.VaultOptions(logger.Nop())
	if err != nil {
		return nil, fmt.Errorf("build vault options: %w", err)
	}

	a := &App{
		cfg:    cfg,
		opts:   vaultOpts,
		log:    logger.Nop(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		clip:   NewSystemClipboard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.prompt == nil {
		a.prompt = NewTerminalPrompter(os.Stdin, a.stderr)
	}
	return a, nil
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"init":    {"init", (*App).runInit},
		"store":   {"store [-type T] [-desc D] [-project DIR] [-tag T]... [-expires DUR] [-rotate DUR] [-stdin] NAME", (*App).runStore},
		"get":     {"get [-clip] NAME", (*App).runGet},
		"list":    {"list [-type T] [-tag T] [-project DIR] [-global]", (*App).runList},
		"delete":  {"delete NAME", (*App).runDelete},
		"rotate":  {"rotate", (*App).runRotate},
		"audit":   {"audit verify | audit show [-from N] [-to N]", (*App).runAudit},
		"version": {"version", (*App).runVersion},
		"help":    {"help", (*App).runHelp},
	}
}

var commandOrder = []string{"init", "store", "get", "list", "delete", "rotate", "audit", "version", "help"}

// Run executes the subcommand named by args[0]. It logs to the logger
// attached to ctx with [logger.Logger.WithContext], if any.
func (a *App) Run(ctx context.Context, args []string) error {
	a.log = logger.FromContext(ctx)
	a.opts.Logger = a.log

	if len(args) == 0 {
		a.printUsage()
		return app.ErrUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.printUsage()
		return fmt.Errorf("%w: unknown command %q", app.ErrUsage, args[0])
	}

	a.log.Debug().
		Str("command", args[0]).
		Str("vault_dir", a.cfg.Vault.Dir).
		Msg("running command")

	err := cmd.run(a, ctx, args[1:])
	if err != nil {
		a.log.Err(err).
			Str("func", "App.Run").
			Str("command", args[0]).
			Msg("command failed")
	}
	return err
}

func (a *App) printUsage() {
	var b strings.Builder
	b.WriteString("usage: credvault [global flags] <command> [args]\n\ncommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	b.WriteString("\nglobal flags:\n")
	fmt.Fprint(a.stderr, b.String())
	config.PrintFlags(a.stderr)
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: credvault %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses fs and checks the number of positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", app.ErrUsage, err)
	}
	if fs.NArg() != positional {
		fs.Usage()
		return fmt.Errorf("%w: %s expects %d argument(s)", app.ErrUsage, fs.Name(), positional)
	}
	return nil
}

// withSession prompts for the master password, unlocks the vault and runs
// fn. The password is wiped before fn runs.
func (a *App) withSession(ctx context.Context, fn func(s *vault.Session) error) error {
	passphrase, err := a.prompt.ReadPassphrase("Master password: ")
	if err != nil {
		return err
	}

	s, err := vault.Unlock(ctx, a.cfg.Vault.Dir, passphrase, a.opts)
	memguard.WipeBytes(passphrase)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

// readNewPassphrase asks twice and returns the passphrase when both
// answers match.
func (a *App) readNewPassphrase(prompt string) ([]byte, error) {
	first, err := a.prompt.ReadPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, vault.ErrEmptyPassphrase
	}

	second, err := a.prompt.ReadPassphrase("Repeat: ")
	if err != nil {
		memguard.WipeBytes(first)
		return nil, err
	}
	defer memguard.WipeBytes(second)

	if !equalSecrets(first, second) {
		memguard.WipeBytes(first)
		return nil, app.ErrPassphraseMismatch
	}
	return first, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *App) runVersion(_ context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: version takes no arguments", app.ErrUsage)
	}
	a.printf("Build version: %s\n", orNA(a.build.BuildVersion()))
	a.printf("Build date: %s\n", orNA(a.build.BuildDate()))
	a.printf("Build commit: %s\n", orNA(a.build.BuildCommit()))
	return nil
}

func (a *App) runHelp(_ context.Context, _ []string) error {
	a.printUsage()
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
