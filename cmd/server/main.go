package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/audience"
	"github.com/glowdesk/outreach/internal/channel"
	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/controller"
	"github.com/glowdesk/outreach/internal/db"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/queue"
	"github.com/glowdesk/outreach/internal/repository"
	"github.com/glowdesk/outreach/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}
	clientRepo := &repository.ClientRepository{DB: conn}
	ruleRepo := &repository.RuleRepository{DB: conn}
	lookupRepo := &repository.LookupRepository{DB: conn}

	email := &channel.DevSender{Logger: logger}
	sms := &channel.DevSMSSender{Logger: logger}

	drip := &service.DripService{
		Campaigns:  campaignRepo,
		Recipients: recipientRepo,
		Clients:    clientRepo,
		Resolver:   audience.NewResolver(clientRepo),
		Email:      email,
		SMS:        sms,
		Window:     service.NewWindow(cfg),
		Cfg:        cfg,
		FromEmail:  cfg.FromEmail,
		Logger:     logger,
	}

	dispatcher := &service.TriggerDispatcher{
		Rules:     ruleRepo,
		Lookups:   lookupRepo,
		Email:     email,
		SMS:       sms,
		FromEmail: cfg.FromEmail,
		DefaultBusiness: model.Location{
			BusinessName: cfg.BusinessName,
			Phone:        cfg.BusinessPhone,
			Address:      cfg.BusinessAddress,
		},
		Zone:   drip.Window.Zone,
		Logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// In-process lifecycle events feed the same dispatcher the worker
	// drives from RabbitMQ.
	q := queue.NewInMemoryQueue(logger)
	queue.StartLifecycleSubscriber(q, logger, func(ev queue.LifecycleEvent) error {
		return dispatcher.HandleTrigger(ctx, service.TriggerEvent{
			Trigger:       ev.Trigger,
			CustomName:    ev.CustomName,
			AppointmentID: ev.AppointmentID,
			TestRecipient: ev.TestRecipient,
		})
	})

	scheduler := &service.Scheduler{
		Drip:         drip,
		Interval:     cfg.TickInterval,
		FailureLimit: cfg.StorageFailureLimit,
		Logger:       logger,
	}
	go scheduler.Run(ctx)

	campaignController := &controller.CampaignController{
		Campaigns:  campaignRepo,
		Recipients: recipientRepo,
		Logger:     logger,
	}
	triggerController := &controller.TriggerController{
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	r := chi.NewRouter()
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", campaignController.CreateCampaign)
		r.Get("/", campaignController.ListCampaigns)
		r.Get("/{id}", campaignController.GetCampaign)
		r.Post("/{id}/schedule", campaignController.ScheduleCampaign)
	})
	r.Post("/triggers", triggerController.FireTrigger)
	r.Post("/triggers/preview", triggerController.PreviewRules)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
