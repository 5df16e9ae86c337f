package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/authform/internal/components/auth"
	"github.com/andrasnagy-data/authform/internal/server"
	"github.com/andrasnagy-data/authform/internal/shared/config"
	"github.com/andrasnagy-data/authform/internal/shared/logging"
	"github.com/andrasnagy-data/authform/internal/shared/request"
)

func main() {
	fx.New(options()).Run()
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			request.NewClient,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			auth.NewClient,
			fx.Annotate(auth.NewSignInRouter, fx.ResultTags(`name:"signInRouter"`)),
			fx.Annotate(auth.NewSignUpRouter, fx.ResultTags(`name:"signUpRouter"`)),
		),
		fx.Invoke((*server.Server).Start),
	)
}
