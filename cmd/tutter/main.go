// Command tutter is a terminal client for the Tutter feed.
//
// Usage:
//
//	tutter [flags] <command> [args]
//
// Commands:
//
//	signup    -email -password -username   create an account and sign in
//	signin    -email -password             sign in
//	signout                                forget the saved session
//	feed                                   list posts
//	post      <text>                       create a post
//	like      <post-id>                    toggle the like on a post
//	comment   <post-id> <text>             comment on a post
//	delete    <post-id>                    delete a post
//	profile   [show|edit] [edit flags]     show or edit the profile
//	watch                                  follow the feed live
//
// With -local the commands run against a SQLite file instead of a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Tutter/internal/config"
	"Tutter/internal/core/docstore"
	"Tutter/internal/db/sqlite"
	"Tutter/internal/remote"
)

// localPrincipal owns the profile in -local mode
const localPrincipal = "local"

type app struct {
	out       io.Writer
	errOut    io.Writer
	store     docstore.Store
	client    *remote.Client
	logger    *slog.Logger
	cfg       *config.Config
	credsPath string
	server    string
	principal string
	local     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("tutter", flag.ContinueOnError)
	server := fs.String("server", cfg.ServerURL, "Tutter server URL (or set TUTTER_SERVER_URL)")
	localPath := fs.String("local", "", "use a local SQLite document store at this path instead of a server")
	credsPath := fs.String("credentials", defaultCredentialsPath(), "where the signed-in session is saved")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: tutter [flags] <signup|signin|signout|feed|post|like|comment|delete|profile|watch> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("a command is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := &app{
		out:       os.Stdout,
		errOut:    os.Stderr,
		logger:    logger,
		cfg:       cfg,
		credsPath: *credsPath,
		server:    *server,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *localPath != "" {
		repo, err := sqlite.Open(*localPath)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()
		a.store = repo
		a.principal = localPrincipal
		a.local = true
	} else {
		a.client = remote.NewClient(a.server)
	}

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signUp(ctx, args)
	case "signin":
		return a.signIn(ctx, args)
	case "signout":
		return a.signOut()
	case "feed":
		return a.feed(ctx)
	case "post":
		return a.post(ctx, args)
	case "like":
		return a.like(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "profile":
		return a.profile(ctx, args)
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
