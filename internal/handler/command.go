package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandPing         = "ping"
	CommandActionStart  = "action_start"
	CommandActionList   = "action_list"
	CommandActionCancel = "action_cancel"
)

var guildOnly = false

var minActionID = 1.0

// Upper bounds on free-text options, so the rendered timer messages fit
// within Discord's message length.
const (
	MaxActionTypeLength = 100
	MaxTargetLength     = 100
	MaxDurationLength   = 64
	MaxNoteLength       = 1000
)

// Commands is a list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandPing,
		Description: "Check that the bot is alive.",
	},
	{
		Name:         CommandActionStart,
		Description:  "Start a NukeZone action timer.",
		DMPermission: &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "action_type",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "e.g., 'Spy', 'Scout', 'Raid', 'Build'",
				Required:    true,
				MaxLength:   MaxActionTypeLength,
			},
			{
				Name:        "target",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Target name or identifier",
				Required:    true,
				MaxLength:   MaxTargetLength,
			},
			{
				Name:        "duration",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Examples: '8h', '1d2h30m', '45m', or '2025-10-22 23:40'",
				Required:    true,
				MaxLength:   MaxDurationLength,
			},
			{
				Name:         "channel",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Channel to ping when done (defaults to current channel)",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
			},
			{
				Name:        "note",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Optional note (loadout, links, etc.)",
				MaxLength:   MaxNoteLength,
			},
		},
	},
	{
		Name:         CommandActionList,
		Description:  "List your pending NukeZone action timers.",
		DMPermission: &guildOnly,
	},
	{
		Name:         CommandActionCancel,
		Description:  "Cancel a pending action timer by ID.",
		DMPermission: &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "action_id",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "The ID shown in /action_list or returned when created.",
				Required:    true,
				MinValue:    &minActionID,
			},
		},
	},
}

// CommandRegistrar is the part of *discordgo.Session used to register commands.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

var _ CommandRegistrar = (*discordgo.Session)(nil)

// EstablishCommands registers Commands for appID. An empty guildID
// registers them globally.
func EstablishCommands(s CommandRegistrar, appID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}
