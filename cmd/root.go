package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/config"
	"github.com/evenmork/camwatch-backend/database"
	"github.com/evenmork/camwatch-backend/pipeline"
	"github.com/evenmork/camwatch-backend/repository"
)

// app bundles the wiring shared by all commands: configuration, database,
// repositories and the camera path/scan services.
type app struct {
	cfg      config.Config
	db       *gorm.DB
	cameras  *repository.CameraRepository
	pictures *repository.PictureRepository
	tok      *camera.Tokenizer
	paths    *camera.Paths
	resolver *camera.Resolver
	scanner  *camera.Scanner
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		return nil, err
	}

	custom := pipeline.NewCustomRegistry()
	for cameraID, stageName := range cfg.CustomStages {
		if err := custom.RegisterNamed(cameraID, stageName); err != nil {
			return nil, err
		}
	}
	pipe, err := pipeline.New(cfg.PipelineStages, custom)
	if err != nil {
		return nil, err
	}

	tok := camera.NewTokenizer()
	paths := camera.NewPaths(cfg, tok)
	pictures := repository.NewPictureRepository(db)

	return &app{
		cfg:      cfg,
		db:       db,
		cameras:  repository.NewCameraRepository(db),
		pictures: pictures,
		tok:      tok,
		paths:    paths,
		resolver: camera.NewResolver(paths, cfg.PickFirstMatch),
		scanner:  camera.NewScanner(paths, pictures, pipe),
	}, nil
}

func (a *app) currentService(broadcaster camera.Broadcaster) *camera.CurrentService {
	return camera.NewCurrentService(a.cfg, a.paths, a.scanner, a.cameras, broadcaster)
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "camwatch",
		Short:         "IP camera image ingestion and serving backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		serveCommand(),
		watchCommand(),
		latestCommand(),
		cameraCommand(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return RootCommand().Execute()
}
