package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/config"
	userapp "github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	pginfra "github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/storage"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

// seed registers a demo user through the same workflow the API uses, so the
// stored avatar is a real normalized image.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	images, closeImages, err := storage.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to init image store")
	}
	defer closeImages()

	svc := userapp.NewService(pginfra.NewUserRepository(pool), images, logger, userapp.Options{CleanupOrphanedUploads: true})

	avatar, err := demoAvatar()
	if err != nil {
		logger.WithError(err).Fatal("failed to render avatar")
	}
	u, err := svc.Register(ctx, userapp.RegisterInput{
		Name:  "Usuario Demo",
		Email: "demo@registro.local",
		Age:   30,
		Image: &userapp.ImageFile{Filename: "demo.png", Data: avatar},
	})
	if errors.Is(err, apperror.ErrDuplicateEmail) {
		logger.WithField("email", "demo@registro.local").Info("demo user already present")
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to seed user")
	}
	logger.WithFields(logrus.Fields{"id": u.ID, "email": u.Email, "image": u.ProfileImage}).Info("seeded user")
}

// demoAvatar renders a 128x128 two-tone square.
func demoAvatar() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			c := color.RGBA{R: 0x2b, G: 0x6c, B: 0xb0, A: 0xff}
			if (x-64)*(x-64)+(y-48)*(y-48) < 24*24 || (y > 84 && (x-64)*(x-64) < (y-60)*(y-60)) {
				c = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
