package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/glizzus/action-timer/internal/archive"
	"github.com/glizzus/action-timer/internal/config"
	"github.com/glizzus/action-timer/internal/datalayer"
	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/notify"
	"github.com/glizzus/action-timer/internal/repository"
	"github.com/glizzus/action-timer/internal/service"
)

var stdinReader = bufio.NewReader(os.Stdin)

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	input, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(input)
}

// offlineScheduler leaves timers to the bot, which arms new rows when it
// next reconciles.
type offlineScheduler struct{}

func (offlineScheduler) Arm(action repository.Action) (bool, error) { return false, nil }
func (offlineScheduler) Cancel(id int64) bool                       { return false }

var guildFlag = &cli.StringFlag{
	Name:     "guild-id",
	Usage:    "ID of the guild the actions belong to",
	Required: true,
}

var userFlag = &cli.StringFlag{
	Name:     "user-id",
	Usage:    "ID of the user who owns the actions",
	Required: true,
}

func printAction(a repository.Action, now time.Time) {
	state := "pending, ~" + deadline.Remaining(a.EndsAt, now) + " left"
	if a.Done {
		state = "done"
	}
	line := fmt.Sprintf("#%d %s -> %s | ends %s | %s | user %s | channel %s",
		a.ID, a.ActionType, a.Target, deadline.Format(a.EndsAt), state, a.UserID, a.ChannelID)
	if a.Note != "" {
		line += " | note: " + a.Note
	}
	log.Println(line)
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	storeConfig, err := config.NewStoreConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load store config: %v", err)
	}
	store, closeStore, err := repository.Open(context.Background(), storeConfig)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	svc := service.NewActionService(store, offlineScheduler{})

	app := &cli.App{
		Name:        "action-timer-cli",
		Description: "A development CLI tool for inspecting and editing action timers without Discord",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a user's pending actions in a guild",
				Flags: []cli.Flag{guildFlag, userFlag},
				Action: func(c *cli.Context) error {
					pending, err := store.PendingFor(c.Context, c.String("guild-id"), c.String("user-id"))
					if err != nil {
						return cli.Exit("Failed to retrieve actions: "+err.Error(), 1)
					}
					if len(pending) == 0 {
						log.Println("No pending actions found.")
						return nil
					}
					now := time.Now()
					for _, a := range pending {
						printAction(a, now)
					}
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Add a new action; a running bot arms it at its next start",
				Flags: []cli.Flag{
					guildFlag,
					userFlag,
					&cli.StringFlag{
						Name:     "channel-id",
						Usage:    "ID of the channel to ping when the action completes",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					req := service.StartRequest{
						ActionType:         prompt("Enter action type (e.g., 'Scout')"),
						Target:             prompt("Enter target"),
						DurationOrDeadline: prompt("Enter duration or deadline (e.g., '8h30m' or '2025-10-22 23:40')"),
						Note:               prompt("Enter note (optional)"),
						ChannelID:          c.String("channel-id"),
						GuildID:            c.String("guild-id"),
						UserID:             c.String("user-id"),
					}

					res, err := svc.StartAction(c.Context, req)
					if err != nil {
						return cli.Exit("Failed to add action: "+err.Error(), 1)
					}
					log.Printf("Action #%d added, ends %s.", res.ID, deadline.Format(res.EndsAt))
					return nil
				},
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a pending action on behalf of its owner",
				ArgsUsage: "<action-id>",
				Flags:     []cli.Flag{guildFlag, userFlag},
				Action: func(c *cli.Context) error {
					var id int64
					if _, err := fmt.Sscan(c.Args().First(), &id); err != nil {
						return cli.Exit("Please provide a numeric action ID", 1)
					}
					ok, err := svc.CancelAction(c.Context, id, c.String("guild-id"), c.String("user-id"))
					if err != nil {
						return cli.Exit("Failed to cancel action: "+err.Error(), 1)
					}
					if !ok {
						return cli.Exit("Could not cancel: check the ID or it may already be done.", 1)
					}
					log.Printf("Canceled action #%d.", id)
					return nil
				},
			},
			{
				Name:  "history",
				Usage: "Show every action of a guild, including finished ones",
				Flags: []cli.Flag{guildFlag},
				Action: func(c *cli.Context) error {
					actions, err := store.History(c.Context, c.String("guild-id"))
					if err != nil {
						return cli.Exit("Failed to retrieve history: "+err.Error(), 1)
					}
					if len(actions) == 0 {
						log.Println("No actions found for the specified guild.")
						return nil
					}
					now := time.Now()
					for _, a := range actions {
						printAction(a, now)
					}
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Export a guild's action history as JSON to object storage",
				Flags: []cli.Flag{guildFlag},
				Action: func(c *cli.Context) error {
					storage, err := datalayer.NewMinioStorageFromEnv()
					if err != nil {
						return cli.Exit("Failed to create object storage client: "+err.Error(), 1)
					}
					if err := storage.EnsureBucket(c.Context); err != nil {
						return cli.Exit("Failed to prepare bucket: "+err.Error(), 1)
					}

					key, n, err := archive.NewExporter(store, storage).Export(c.Context, c.String("guild-id"))
					if err != nil {
						return cli.Exit("Failed to export history: "+err.Error(), 1)
					}
					log.Printf("Exported %d actions to %s.", n, key)
					return nil
				},
			},
			{
				Name:  "discards",
				Usage: "Show how many completion messages could not be delivered",
				Action: func(c *cli.Context) error {
					redisConfig, err := config.NewRedisConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load redis config: "+err.Error(), 1)
					}
					if !redisConfig.Enabled() {
						return cli.Exit("REDIS_ADDR is not set; discards are only counted inside the bot process", 1)
					}
					recorder, closeRecorder, err := notify.NewDiscardRecorder(c.Context, redisConfig)
					if err != nil {
						return cli.Exit("Failed to connect to redis: "+err.Error(), 1)
					}
					defer closeRecorder()

					n, err := recorder.Discards(c.Context)
					if err != nil {
						return cli.Exit("Failed to read discards: "+err.Error(), 1)
					}
					log.Printf("%d completion messages discarded.", n)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		closeStore()
		log.Fatalf("Error running CLI: %v", err)
	}
}
