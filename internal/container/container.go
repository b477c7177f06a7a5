// Package container holds the components constructed in main and handed to
// the router. Nothing here is global; tests build their own Container.
package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	pginfra "github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	// DB is pinged by the health check.
	DB pginfra.Pinger
	// Redis is nil when neither the user cache nor rate limiting is enabled.
	Redis *redis.Client

	Users  repository.UserRepository
	Images repository.ImageStore
}
