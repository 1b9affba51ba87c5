package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bookstay/bookstay/internal/app"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"
)

//	@title			BookStay API
//	@version		1.0
//	@description	Booking, wallet and settlement API for the BookStay marketplace.

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

// @host		localhost:8080
// @BasePath	/
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := app.New()
	if err := a.Start(ctx); err != nil {
		// zap may not be initialized yet when startup fails
		log.Error().Err(err).Msg("can't start application")
		zap.L().Fatal("can't start application: ", zap.Error(err))
	}

	if err := a.Wait(ctx, cancel); err != nil {
		zap.L().Fatal("shutdown finished with errors, last: ", zap.Error(err))
	}

	zap.L().Info("shutdown complete")
}
