package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/fieldops/device-trust/pkg/credsync"
	"github.com/fieldops/device-trust/pkg/credsync/api"
	"github.com/fieldops/device-trust/pkg/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jinzhu/copier"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
)

type SyncDbConfig struct {
	Host     string `env:"SYNC_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"SYNC_PG_PORT" env-default:"5432"`
	Database string `env:"SYNC_PG_DATABASE" env-default:"credsync_db"`
	User     string `env:"SYNC_PG_USER" env-default:"credsync"`
	Password string `env:"SYNC_PG_PASSWORD" env-default:"pwd"`
}

type JwtConfig struct {
	JwtSecret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	DevToken  bool   `env:"JWT_DEV_TOKEN" env-default:"false"`
}

type SyncConfig struct {
	PersistenceType string `env:"SYNC_PERSISTENCE" env-default:"memory"`
	DataDir         string `env:"SYNC_DATA_DIR" env-default:"./data"`
}

type Config struct {
	SyncDbConfig SyncDbConfig
	AppConfig    app.AppConfig
	JwtConfig    JwtConfig
	SyncConfig   SyncConfig
}

func main() {

	config := Config{}
	cleanenv.ReadEnv(&config)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	repositoryConfig := credsync.RepositoryConfig{
		DataDir: config.SyncConfig.DataDir,
	}

	if config.SyncConfig.PersistenceType == "postgres" || config.SyncConfig.PersistenceType == "postgresql" {
		var dbConfig dbutils.DbConfig
		copier.Copy(&dbConfig, &config.SyncDbConfig)
		pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
		if err != nil {
			slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
			os.Exit(-1)
		}
		repositoryConfig.DB = pool
	}

	repository, err := credsync.NewRepository(config.SyncConfig.PersistenceType, repositoryConfig)
	if err != nil {
		slog.Error("Failed creating repository", "persistenceType", config.SyncConfig.PersistenceType, "err", err)
		os.Exit(-1)
	}

	syncService := credsync.NewService(repository)
	syncHandler := api.NewSyncHandler(syncService)

	server.R.Mount("/auth", api.Handler(syncHandler))

	// jwt service
	jwtService := token.NewJwtService(config.JwtConfig.JwtSecret)

	if config.JwtConfig.DevToken {
		devToken, err := jwtService.CreateAccessToken(map[string]string{"role": "admin"})
		if err != nil {
			slog.Error("Failed minting dev admin token", "err", err)
		} else {
			slog.Info("Dev admin token minted", "token", devToken.Token, "expiry", devToken.Expiry)
		}
	}

	tokenAuth := jwtauth.New("HS256", []byte(config.JwtConfig.JwtSecret), nil)

	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))

		r.Mount("/admin", api.AdminHandler(syncHandler))
	})

	server.Run()

}
