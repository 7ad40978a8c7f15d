package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/manzanit0/storefront/pkg/account"
	"github.com/manzanit0/storefront/pkg/config"
	"github.com/manzanit0/storefront/pkg/dummyjson"
	"github.com/manzanit0/storefront/pkg/geocode"
	"github.com/manzanit0/storefront/pkg/location"
	"github.com/manzanit0/storefront/pkg/logger"
	"github.com/manzanit0/storefront/pkg/terminal"
	"github.com/manzanit0/storefront/pkg/viewer"
	"github.com/manzanit0/storefront/pkg/whttp"
)

const ServiceName = "shop"

const usage = `usage:
  shop login -u USERNAME -p PASSWORD
  shop signup -first FIRST_NAME -last LAST_NAME -age AGE
  shop browse`

// errRejected means the outcome was already printed; only the exit code is
// left to report.
var errRejected = errors.New("rejected")

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout)
	if err == nil {
		return
	}

	if !errors.Is(err, errRejected) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the screen; logs go to stderr and stay quiet
	// unless asked for.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger.InitGlobalSlogTo(os.Stderr, ServiceName, level)

	in := terminal.NewLines(stdin)
	httpClient := whttp.NewLoggingClient(cfg.Debug)
	policy := whttp.Policy{Timeout: cfg.CallTimeout}
	shop := dummyjson.NewClient(httpClient, cfg.DummyJSONURL)

	newViewer := func(opts ...viewer.Option) *viewer.Viewer {
		resolver := newResolver(cfg, httpClient, policy, in, stdout)
		opts = append([]viewer.Option{
			viewer.WithPolicy(policy),
			viewer.WithDefaultLabel(cfg.DefaultLocationLabel),
		}, opts...)
		return viewer.New(shop, resolver, opts...)
	}

	accounts := account.NewService(shop, policy, cfg.LoginExpiresInMins)

	switch args[0] {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(stdout)
		username := fs.String("u", "", "username")
		password := fs.String("p", "", "password")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		outcome := accounts.Login(ctx, *username, *password)
		printOutcome(stdout, outcome)
		if !outcome.OK {
			return errRejected
		}

		return browse(ctx, newViewer, in, stdout)

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ContinueOnError)
		fs.SetOutput(stdout)
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		age := fs.String("age", "", "age")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		outcome := accounts.Signup(ctx, *first, *last, *age)
		printOutcome(stdout, outcome)
		if !outcome.OK {
			return errRejected
		}

		return nil

	case "browse":
		return browse(ctx, newViewer, in, stdout)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func printOutcome(w io.Writer, o account.Outcome) {
	fmt.Fprintf(w, "%s: %s\n", o.Title, o.Message)
}

func newResolver(cfg *config.Config, h *http.Client, policy whttp.Policy, in *terminal.Lines, out io.Writer) *location.Resolver {
	var permissions location.Permissions
	if cfg.LocationPermission == config.PermissionPrompt {
		permissions = location.NewPromptPermissions(in, out)
	} else {
		permissions = location.StaticPermissions(location.PermissionStatus(cfg.LocationPermission))
	}

	var positioner location.Positioner
	if cfg.PositionSource == config.PositionStatic {
		positioner = location.StaticPositioner(geocode.Coordinate{Latitude: cfg.StaticLatitude, Longitude: cfg.StaticLongitude})
	} else {
		positioner = location.NewIPAPIPositioner(h, cfg.IPAPIURL)
	}

	return location.NewResolver(permissions, positioner, geocode.NewOpenstreetmapClient(cfg.NominatimURL),
		location.WithPolicy(policy))
}
