package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/channel"
	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/db"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/queue"
	"github.com/glowdesk/outreach/internal/repository"
	"github.com/glowdesk/outreach/internal/service"
)

// The worker consumes lifecycle events published by the booking and
// payment services over RabbitMQ and runs the automation dispatcher on
// each one. Messages are acked manually; a failed event is requeued
// once and then dropped.
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

	window := service.NewWindow(cfg)
	dispatcher := &service.TriggerDispatcher{
		Rules:     &repository.RuleRepository{DB: conn},
		Lookups:   &repository.LookupRepository{DB: conn},
		Email:     &channel.DevSender{Logger: logger},
		SMS:       &channel.DevSMSSender{Logger: logger},
		FromEmail: cfg.FromEmail,
		DefaultBusiness: model.Location{
			BusinessName: cfg.BusinessName,
			Phone:        cfg.BusinessPhone,
			Address:      cfg.BusinessAddress,
		},
		Zone:   window.Zone,
		Logger: logger,
	}

	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		logger.Fatal("failed to open a channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.TopicLifecycleEvents,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("failed to register consumer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker running", zap.String("queue", q.Name))
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Error("consumer channel closed")
				return
			}
			handleDelivery(ctx, d, dispatcher, logger)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, dispatcher *service.TriggerDispatcher, logger *zap.Logger) {
	var ev queue.LifecycleEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		logger.Warn("invalid lifecycle event, dropping", zap.Error(err))
		d.Ack(false)
		return
	}

	err := dispatcher.HandleTrigger(ctx, service.TriggerEvent{
		Trigger:       ev.Trigger,
		CustomName:    ev.CustomName,
		AppointmentID: ev.AppointmentID,
		TestRecipient: ev.TestRecipient,
	})
	if err != nil {
		logger.Error("failed to process lifecycle event",
			zap.String("trigger", ev.Trigger),
			zap.Int64("appointment_id", ev.AppointmentID),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		if !d.Redelivered {
			d.Nack(false, true) // requeue once
			return
		}
		// Second failure: drop so a poison message cannot wedge the queue.
	}

	d.Ack(false)
}
