package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/rafiq-client/form"
	"github.com/jrsteele09/rafiq-client/internal/bootstrap"
	"github.com/jrsteele09/rafiq-client/internal/config"
	"github.com/jrsteele09/rafiq-client/internal/logging"
	"github.com/jrsteele09/rafiq-client/registration"
	"github.com/jrsteele09/rafiq-client/validation"
)

type flags struct {
	cmd   string
	token string

	firstName string
	lastName  string
	email     string
	phone     string
	birthDate string
	password  string
	address   string
	image     string
}

func main() {
	f := parseFlags()
	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.cmd, "cmd", "session", "session | login | logout | profile | register")
	flag.StringVar(&f.token, "token", "", "credential token for login")
	flag.StringVar(&f.firstName, "first-name", "", "register: first name")
	flag.StringVar(&f.lastName, "last-name", "", "register: last name")
	flag.StringVar(&f.email, "email", "", "register: email")
	flag.StringVar(&f.phone, "phone", "", "register: phone digits")
	flag.StringVar(&f.birthDate, "birth-date", "", "register: YYYY-MM-DD")
	flag.StringVar(&f.password, "password", "", "register: password")
	flag.StringVar(&f.address, "address", "", "register: address")
	flag.StringVar(&f.image, "image", "", "register: profile image path")
	flag.Parse()
	return f
}

func run(f flags) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := logging.New(c.GetLogLevel(), c.GetEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, c, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn().Err(err).Msg("close client core")
		}
	}()

	switch f.cmd {
	case "session":
		return printSession(app)
	case "login":
		if f.token == "" {
			return errors.New("-token is required")
		}
		app.Start(ctx)
		app.Store.SetToken(f.token)
		app.Enricher.Wait()
		return printSession(app)
	case "logout":
		app.Store.ClearSession()
		return printSession(app)
	case "profile":
		return printProfile(ctx, app)
	case "register":
		return register(ctx, app, f, logger)
	default:
		return fmt.Errorf("unknown command %q", f.cmd)
	}
}

func printSession(app *bootstrap.App) error {
	s := app.Store.Session()
	image, _ := app.Store.ProfileImage()
	return printJSON(map[string]any{
		"authenticated": s.IsAuthenticated,
		"subject":       s.Subject(),
		"profile_image": image,
	})
}

func printProfile(ctx context.Context, app *bootstrap.App) error {
	token, ok := app.Store.Token()
	if !ok || !app.Store.IsAuthenticated() {
		return errors.New("not signed in; use -cmd login")
	}
	p, err := app.Profiles.Fetch(ctx, token)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func register(ctx context.Context, app *bootstrap.App, f flags, logger zerolog.Logger) error {
	confirmed := false
	c := registration.NewForm(app.Registration, func() { confirmed = true },
		form.WithLogger[registration.Values](logger))

	values := map[validation.Field]any{
		registration.FieldFirstName:       f.firstName,
		registration.FieldLastName:        f.lastName,
		registration.FieldEmail:           f.email,
		registration.FieldPhoneNumber:     f.phone,
		registration.FieldBirthDate:       f.birthDate,
		registration.FieldPassword:        f.password,
		registration.FieldConfirmPassword: f.password,
		registration.FieldAddress:         f.address,
	}
	for field, v := range values {
		if err := c.SetFieldValue(field, v); err != nil {
			return err
		}
	}
	if f.image != "" {
		file, err := readImage(f.image)
		if err != nil {
			return err
		}
		preview, err := registration.AttachProfileImage(ctx, c, file)
		if err != nil {
			return err
		}
		if url, ok := <-preview; ok {
			logger.Debug().Int("preview_bytes", len(url)).Msg("profile image preview ready")
		}
	}

	if err := c.Submit(ctx); err != nil {
		if errs := c.Snapshot().Errors; len(errs) > 0 {
			_ = printJSON(errs)
		}
		return err
	}
	if confirmed {
		fmt.Println("Registration submitted. Check your email to confirm the account.")
	}
	return nil
}

func readImage(path string) (*validation.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &validation.File{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
