package auth

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/andrasnagy-data/authform/internal/shared/notify"
	"github.com/andrasnagy-data/authform/internal/shared/request"
)

type (
	authenticator interface {
		SignIn(ctx context.Context, credentials Credentials) (*request.Response, error)
		SignUp(ctx context.Context, registration Registration) (*request.Response, error)
	}

	payload interface {
		Credentials | Registration
	}

	// field describes one input for rendering
	field struct {
		Name        string
		Type        string
		Placeholder string
		Icon        string
	}

	// schema is everything that differs between the sign-in and sign-up forms
	schema[T payload] struct {
		name         string
		submitLabel  string
		successTitle string
		failureTitle string
		fields       []field
		socialLabel  string
		social       []string
		rememberMe   bool

		decode   func(url.Values) T
		validate func(T) FieldErrors
		call     func(context.Context, authenticator, T) (*request.Response, error)
	}

	// Form runs one credential form: validate, submit, notify.
	// The submitting flag is owned by the instance and is true only while a call is in flight.
	Form[T payload] struct {
		schema   schema[T]
		client   authenticator
		notifier notify.Notifier
		logger   zerolog.Logger
		inFlight atomic.Int32
	}
)

var (
	signInSchema = schema[Credentials]{
		name:         "signin",
		submitLabel:  "登录",
		successTitle: "登录成功~",
		failureTitle: "登录失败~",
		fields: []field{
			{Name: "email", Type: "text", Placeholder: "手机号或邮箱", Icon: "user"},
			{Name: "password", Type: "password", Placeholder: "密码", Icon: "lock"},
		},
		socialLabel: "社交帐号登录",
		social:      []string{"weibo", "wechat", "qq"},
		rememberMe:  true,
		decode: func(v url.Values) Credentials {
			return Credentials{
				Email:    v.Get("email"),
				Password: v.Get("password"),
			}
		},
		validate: ValidateCredentials,
		call: func(ctx context.Context, a authenticator, c Credentials) (*request.Response, error) {
			return a.SignIn(ctx, c)
		},
	}

	signUpSchema = schema[Registration]{
		name:         "signup",
		submitLabel:  "注册",
		successTitle: "注册成功~",
		failureTitle: "注册失败~",
		fields: []field{
			{Name: "username", Type: "text", Placeholder: "您的昵称", Icon: "user"},
			{Name: "email", Type: "text", Placeholder: "手机号或邮箱", Icon: "mail"},
			{Name: "password", Type: "password", Placeholder: "密码", Icon: "lock"},
		},
		socialLabel: "社交帐号直接注册",
		social:      []string{"wechat", "qq"},
		decode: func(v url.Values) Registration {
			return Registration{
				Username: v.Get("username"),
				Email:    v.Get("email"),
				Password: v.Get("password"),
			}
		},
		validate: ValidateRegistration,
		call: func(ctx context.Context, a authenticator, r Registration) (*request.Response, error) {
			return a.SignUp(ctx, r)
		},
	}
)

func NewSignInForm(client authenticator, notifier notify.Notifier, logger zerolog.Logger) *Form[Credentials] {
	return newForm(signInSchema, client, notifier, logger)
}

func NewSignUpForm(client authenticator, notifier notify.Notifier, logger zerolog.Logger) *Form[Registration] {
	return newForm(signUpSchema, client, notifier, logger)
}

func newForm[T payload](s schema[T], client authenticator, notifier notify.Notifier, logger zerolog.Logger) *Form[T] {
	return &Form[T]{
		schema:   s,
		client:   client,
		notifier: notifier,
		logger:   logger.With().Str("component", "auth").Str("form", s.name).Logger(),
	}
}

// Submitting reports whether a remote call is in flight
func (f *Form[T]) Submitting() bool {
	return f.inFlight.Load() > 0
}

// Validate runs the form's rules without side effects
func (f *Form[T]) Validate(values T) FieldErrors {
	return f.schema.validate(values)
}

// ValidateField returns the message for a single field, empty when the field is fine
func (f *Form[T]) ValidateField(values T, name string) string {
	return f.Validate(values)[name]
}

// Submit validates values and, only when they pass, calls the login API and emits exactly one
// notification for the outcome. Invalid input returns its field errors and makes no call.
func (f *Form[T]) Submit(ctx context.Context, values T) FieldErrors {
	errs := f.Validate(values)
	if !errs.Valid() {
		f.logger.Debug().Int("invalid_fields", len(errs)).Msg("Submission blocked by validation")
		return errs
	}

	f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	f.logger.Debug().Msg("Submitting form")

	if _, err := f.schema.call(ctx, f.client, values); err != nil {
		f.logger.Info().Msg("Submission failed")
		f.notifier.Notify(ctx, notify.Failure(f.schema.failureTitle))
		return errs
	}

	f.logger.Info().Msg("Submission succeeded")
	f.notifier.Notify(ctx, notify.Success(f.schema.successTitle))
	return errs
}
