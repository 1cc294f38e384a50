package main

import (
	"feedfinder/pkg/config"
	app "feedfinder/services/api/internal/app"

	_ "feedfinder/services/api/docs" // Swagger docs
)

// @title           FeedFinder API
// @version         1.0
// @description     Accounts, posts, ratings and moderation for the FeedFinder client.

// @host      localhost:5000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browsers use the access_token cookie instead.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == config.DefaultJWTSecret || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
