package handler

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/action-timer/internal/presenters"
	"github.com/glizzus/action-timer/internal/service"
)

// Discord expects an interaction response within three seconds.
const interactionTimeout = 3 * time.Second

// ActionService is what the action flows need from service.ActionService.
type ActionService interface {
	StartAction(ctx context.Context, req service.StartRequest) (service.StartResult, error)
	ListPending(ctx context.Context, guildID, userID string) ([]service.PendingAction, error)
	CancelAction(ctx context.Context, id int64, guildID, userID string) (bool, error)
	Now() time.Time
}

var _ ActionService = (*service.ActionService)(nil)

const (
	stateGuildID = "guildID"
	stateUserID  = "userID"
)

func NewActionStartFlow(svc ActionService) *Flow {
	return &Flow{
		ID: CommandActionStart,
		Root: &Node{
			ID:      CommandActionStart,
			Matcher: commandMatcher(CommandActionStart),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
				req, err := CommandToStartRequest(i)
				if err != nil {
					return err
				}

				ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
				defer cancel()
				res, err := svc.StartAction(ctx, req)
				if err != nil {
					return err
				}
				return s.InteractionRespond(i.Interaction, presenters.BuildStartResponse(res))
			},
		},
	}
}

func NewActionListFlow(svc ActionService) *Flow {
	cancelSelected := &Node{
		ID:      presenters.ComponentIDActionCancelSelect,
		Matcher: componentMatcher(presenters.ComponentIDActionCancelSelect),
		Handler: func(s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
			id, err := SelectedActionID(i)
			if err != nil {
				return err
			}
			guildID, _ := fc.State[stateGuildID].(string)
			userID, _ := fc.State[stateUserID].(string)

			ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
			defer cancel()
			canceled, err := svc.CancelAction(ctx, id, guildID, userID)
			if err != nil {
				return err
			}
			return s.InteractionRespond(i.Interaction, presenters.BuildCancelSelectedResponse(id, canceled))
		},
	}

	return &Flow{
		ID: CommandActionList,
		Root: &Node{
			ID:      CommandActionList,
			Matcher: commandMatcher(CommandActionList),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
				if err := requireGuild(i); err != nil {
					return err
				}
				guildID, userID := i.GuildID, interactionUserID(i)

				ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
				defer cancel()
				pending, err := svc.ListPending(ctx, guildID, userID)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fc.Finish()
				}

				// The menu acts for whoever listed, not whoever clicks.
				fc.State[stateGuildID] = guildID
				fc.State[stateUserID] = userID
				return s.InteractionRespond(i.Interaction, presenters.BuildListResponse(pending, svc.Now(), fc.InstanceID))
			},
			Next: []*Node{cancelSelected},
		},
	}
}

func NewActionCancelFlow(svc ActionService) *Flow {
	return &Flow{
		ID: CommandActionCancel,
		Root: &Node{
			ID:      CommandActionCancel,
			Matcher: commandMatcher(CommandActionCancel),
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
				id, err := CommandToActionID(i)
				if err != nil {
					return err
				}

				ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
				defer cancel()
				canceled, err := svc.CancelAction(ctx, id, i.GuildID, interactionUserID(i))
				if err != nil {
					return err
				}
				return s.InteractionRespond(i.Interaction, presenters.BuildCancelResponse(id, canceled))
			},
		},
	}
}
