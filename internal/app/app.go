package app

import (
	"context"

	"fileforge/config"
	"fileforge/internal/controllers"
	"fileforge/internal/database"
	"fileforge/internal/events"
	"fileforge/internal/handlers/middleware"
	"fileforge/internal/jobs"
	"fileforge/internal/repositories"
	"fileforge/internal/services"
	"fileforge/internal/storage"
	"fileforge/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Forwarder  *events.AMQPForwarder
	Storage    storage.Gateway
	Config     config.Config

	Repositories repositories.Repository
	Services     services.Service
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)

	gateway, err := storage.NewMinioGateway(context.Background(), config)
	if err != nil {
		return &App{}, log.Err("failed to create storage gateway", err)
	}

	repos := repositories.New(db)
	service := services.New(db, repos, eventBus, gateway)

	if err := jobs.RegisterAllJobs(service.Scheduler, config, service); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	websocket, err := websockets.New(eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	app := &App{
		Database:     db,
		Websocket:    websocket,
		Config:       config,
		Middleware:   middleware.New(config),
		EventBus:     eventBus,
		Storage:      gateway,
		Repositories: repos,
		Services:     service,
		Controllers:  controllers.New(service),
	}

	if config.NotifyAMQPURL != "" {
		forwarder, err := events.NewAMQPForwarder(config.NotifyAMQPURL)
		if err != nil {
			return &App{}, log.Err("failed to connect notification forwarder", err)
		}
		app.Forwarder = forwarder

		if err := eventBus.Subscribe(events.NOTIFICATION_CHANNEL, forwarder.Forward); err != nil {
			return &App{}, log.Err("failed to subscribe notification forwarder", err)
		}
		log.Info("Forwarding notifications to AMQP")
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	if config.SchedulerEnabled {
		if err := service.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Storage,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Folder,
		a.Services.File,
		a.Services.Notification,
		a.Services.Orchestration,
		a.Controllers.Folder,
		a.Controllers.File,
		a.Controllers.Notification,
		a.Repositories.Folder,
		a.Repositories.File,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Forwarder != nil {
		if closeErr := a.Forwarder.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
