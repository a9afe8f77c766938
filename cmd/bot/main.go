package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/action-timer/internal/config"
	"github.com/glizzus/action-timer/internal/generator"
	"github.com/glizzus/action-timer/internal/handler"
	"github.com/glizzus/action-timer/internal/notify"
	"github.com/glizzus/action-timer/internal/repository"
	"github.com/glizzus/action-timer/internal/schedule"
	"github.com/glizzus/action-timer/internal/service"
)

func configureLogging() error {
	logConfig, err := config.NewLogConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load log config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logConfig.Level,
	})))
	return nil
}

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	if err := configureLogging(); err != nil {
		return err
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	storeConfig, err := config.NewStoreConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load store config: %w", err)
	}
	timerConfig, err := config.NewTimerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load timer config: %w", err)
	}
	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	ctx := context.Background()

	store, closeStore, err := repository.Open(ctx, storeConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	discards, closeDiscards, err := notify.NewDiscardRecorder(ctx, redisConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDiscards(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}()

	// The handler needs the service and the notifier needs the session,
	// so the session is created first and opened last.
	var interactionHandler func(handler.DiscordSession, *discordgo.InteractionCreate)
	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready: handler.ReadyLog,
		InteractionCreate: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			interactionHandler(s, i)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	engine := schedule.NewEngine(store, notify.NewDiscordNotifier(session),
		schedule.WithDeliveryTimeout(timerConfig.DeliveryTimeout),
		schedule.WithDiscardRecorder(discards),
	)
	defer engine.Close()

	svc := service.NewActionService(store, engine)
	interactionHandler = handler.NewInteractionHandler(svc, &generator.UUIDV4Generator{})

	armed, err := schedule.Reconcile(ctx, store, engine)
	if err != nil {
		return fmt.Errorf("failed to reconcile pending actions: %w", err)
	}
	slog.Info("Timers restored", "armed", armed)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, session.State.User.ID, discordConfig.CommandGuildID()); err != nil {
		slog.Error("Failed to register slash commands; existing registrations stay in effect", "error", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	slog.Info("Shutting down", "pendingTimers", engine.Pending())
	// Let firings in flight deliver before the session closes.
	engine.Close()
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
