// Package cli implements the learnhub command line client on top of learnsdk.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk/sqlitestore"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

const version = "v0.1.0"

// ErrNotSignedIn is returned by commands that need a session when there is none.
var ErrNotSignedIn = errors.New("not signed in: run `learnhub login`")

// CLI holds one SessionManager and the clients built on it for the duration
// of a single command.
type CLI struct {
	cfg    Config
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger

	state    *sqlitestore.Store
	sm       *learnsdk.SessionManager
	gate     *learnsdk.AccessGate
	catalog  *learnsdk.Catalog
	content  *learnsdk.Content
	reviews  *learnsdk.Reviews
	checkout *learnsdk.Checkout
}

type Option func(*options)

type options struct {
	client *http.Client
	logger *slog.Logger
}

// WithHTTPClient replaces the client built from Config.Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New opens the state file and wires the SDK against cfg.APIURL.
func New(cfg Config, stdout, stderr io.Writer, opts ...Option) (*CLI, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: cfg.Timeout}
	}
	if o.logger == nil {
		o.logger = slogx.New(slogx.Config{
			Service: "learnhub",
			Version: version,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  stderr,
		})
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StateFile), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	state, err := sqlitestore.Open(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	c := &CLI{cfg: cfg, out: stdout, errOut: stderr, log: o.logger, state: state}

	c.sm, err = learnsdk.NewSessionManager(learnsdk.Config{
		BaseURL:    cfg.APIURL,
		HTTPClient: o.client,
		Store:      state,
		Flags:      state,
		Logger:     o.logger,
		OnSessionExpired: func() {
			fmt.Fprintln(c.errOut, "Your session has expired. Run `learnhub login` to sign in again.")
		},
	})
	if err != nil {
		_ = state.Close()
		return nil, err
	}

	c.gate = learnsdk.NewAccessGate(c.sm)
	c.catalog = learnsdk.NewCatalog(c.sm)
	c.content = learnsdk.NewContent(c.sm, c.gate)
	c.reviews = learnsdk.NewReviews(c.sm)
	c.checkout = learnsdk.NewCheckout(c.sm, c.gate, gatewayProcessor{sm: c.sm})
	return c, nil
}

func (c *CLI) Close() error {
	return c.state.Close()
}

type command struct {
	usage string
	run   func(c *CLI, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"signup":   {"signup -name NAME -email EMAIL -password PASSWORD [-educator]", (*CLI).signup},
		"verify":   {"verify -email EMAIL -code CODE", (*CLI).verify},
		"educator": {"educator -bio BIO [-expertise a,b]", (*CLI).educator},
		"login":    {"login -email EMAIL -password PASSWORD", (*CLI).login},
		"logout":   {"logout", (*CLI).logout},
		"whoami":   {"whoami", (*CLI).whoami},
		"profile":  {"profile [-name NAME] [-phone PHONE]", (*CLI).profile},
		"courses":  {"courses [-q QUERY] [-educator ID]", (*CLI).courses},
		"access":   {"access COURSE_ID", (*CLI).access},
		"modules":  {"modules COURSE_ID", (*CLI).modules},
		"classes":  {"classes COURSE_ID", (*CLI).classes},
		"reviews":  {"reviews COURSE_ID", (*CLI).listReviews},
		"review":   {"review -rating N [-comment TEXT] COURSE_ID", (*CLI).review},
		"buy":      {"buy COURSE_ID", (*CLI).buy},
	}
}

// Run executes one subcommand.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.usage()
		return flag.ErrHelp
	}
	cmd, ok := commands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(c, ctx, args[1:])
}

func (c *CLI) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.errOut, "usage: learnhub [-config FILE] <command> [flags]")
	fmt.Fprintln(c.errOut)
	for _, name := range names {
		fmt.Fprintln(c.errOut, "  learnhub "+commands[name].usage)
	}
}

// Main is the entry point used by cmd/learnhub. It returns the exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("learnhub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "learnhub:", err)
		return 1
	}

	c, err := New(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "learnhub:", err)
		return 1
	}
	defer func() {
		_ = c.Close()
	}()

	if err := c.Run(ctx, fs.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, "learnhub:", err)
		return 1
	}
	return 0
}

// requireSession resolves stored tokens into a session, failing when none.
func (c *CLI) requireSession(ctx context.Context) (learnsdk.Session, error) {
	sess, err := c.sm.Init(ctx)
	if err != nil {
		return learnsdk.Session{}, err
	}
	if !sess.IsAuthenticated {
		return learnsdk.Session{}, ErrNotSignedIn
	}
	return sess, nil
}

func newFlagSet(c *CLI, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	fs.Usage = func() {
		fmt.Fprintln(c.errOut, "usage: learnhub "+commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// courseArg returns the single positional course id.
func courseArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fs.Usage()
		return "", errors.New("expected exactly one COURSE_ID")
	}
	return fs.Arg(0), nil
}
