package handler

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/action-timer/internal/generator"
	"github.com/glizzus/action-timer/internal/presenters"
)

const expiredMenuMessage = "This menu has expired. Run /action_list again."

// NewInteractionHandler routes interactions through the ping and action
// flows. Errors caused by user input are shown to the user; anything else
// is logged and answered with a generic failure.
func NewInteractionHandler(svc ActionService, idGenerator generator.Generator[string]) func(DiscordSession, *discordgo.InteractionCreate) {
	fm := NewFlowManager(idGenerator)
	fm.RegisterFlow(PingFlow)
	fm.RegisterFlow(NewActionStartFlow(svc))
	fm.RegisterFlow(NewActionListFlow(svc))
	fm.RegisterFlow(NewActionCancelFlow(svc))

	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		err := fm.Router(s, i)
		if err == nil {
			return
		}

		var resp *discordgo.InteractionResponse
		if message, ok := asUserError(err); ok {
			slog.Debug("Rejected interaction", "interactionID", i.ID, "reason", message)
			resp = presenters.BuildUserErrorResponse(message)
		} else if errors.Is(err, ErrNoMatchingFlow) {
			if i.Type != discordgo.InteractionMessageComponent {
				slog.Warn("No flow for interaction", "interactionID", i.ID, "type", i.Type.String())
				return
			}
			resp = presenters.BuildUserErrorResponse(expiredMenuMessage)
		} else {
			slog.Error("Failed to handle interaction", "interactionID", i.ID, "guildID", i.GuildID, "error", err)
			resp = presenters.BuildInternalErrorResponse()
		}

		if err := s.InteractionRespond(i.Interaction, resp); err != nil {
			slog.Error("Failed to respond to interaction", "interactionID", i.ID, "error", err)
		}
	}
}
