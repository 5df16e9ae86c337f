package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/andrasnagy-data/authform/internal/components/auth"
	"github.com/andrasnagy-data/authform/internal/shared/config"
	"github.com/andrasnagy-data/authform/internal/shared/logging"
	"github.com/andrasnagy-data/authform/internal/shared/notify"
	"github.com/andrasnagy-data/authform/internal/shared/request"
)

const usage = `Usage:
  authform signin -email <email> -password <password>
  authform signup -username <name> -email <email> -password <password>
`

// teeNotifier logs every notification and remembers the last one for the exit code
type teeNotifier struct {
	log      notify.Notifier
	recorder notify.Recorder
}

func (t *teeNotifier) Notify(ctx context.Context, n notify.Notification) {
	t.log.Notify(ctx, n)
	t.recorder.Notify(ctx, n)
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, _ := logging.NewLogger(cfg)
	client := auth.NewClient(request.NewClient(cfg, logger))

	os.Exit(run(context.Background(), os.Args[1:], client, logger, os.Stderr))
}

func run(ctx context.Context, args []string, client *auth.Client, logger zerolog.Logger, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		username = fs.String("username", "", "nickname (signup only)")
		email    = fs.String("email", "", "phone number or email")
		password = fs.String("password", "", "password, at least 6 characters")
	)

	notifier := &teeNotifier{log: notify.NewLogNotifier(logger)}

	var errs auth.FieldErrors
	switch args[0] {
	case "signin":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		form := auth.NewSignInForm(client, notifier, logger)
		errs = form.Submit(ctx, auth.Credentials{Email: *email, Password: *password})
	case "signup":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		form := auth.NewSignUpForm(client, notifier, logger)
		errs = form.Submit(ctx, auth.Registration{Username: *username, Email: *email, Password: *password})
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		fmt.Fprint(stderr, usage)
		return 2
	}

	if !errs.Valid() {
		printFieldErrors(stderr, errs)
		return 1
	}

	n, ok := notifier.recorder.Last()
	if !ok || n.Status != notify.StatusSuccess {
		return 1
	}
	return 0
}

func printFieldErrors(w io.Writer, errs auth.FieldErrors) {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, errs[name])
	}
}
