package handler

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/action-timer/internal/service"
	"github.com/glizzus/action-timer/internal/util"
)

type commandOptions []*discordgo.ApplicationCommandInteractionDataOption

func (o commandOptions) find(name string) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	return util.FindFirst(o, func(option *discordgo.ApplicationCommandInteractionDataOption) bool {
		return option.Name == name
	})
}

func (o commandOptions) stringValue(name string) (string, error) {
	option, ok := o.find(name)
	if !ok {
		return "", nil
	}
	value, ok := option.Value.(string)
	if option.Type != discordgo.ApplicationCommandOptionString || !ok {
		return "", fmt.Errorf("invalid type for %s option", name)
	}
	return value, nil
}

func (o commandOptions) channelValue(name string) (string, error) {
	option, ok := o.find(name)
	if !ok {
		return "", nil
	}
	value, ok := option.Value.(string)
	if option.Type != discordgo.ApplicationCommandOptionChannel || !ok {
		return "", fmt.Errorf("invalid type for %s option", name)
	}
	return value, nil
}

func (o commandOptions) intValue(name string) (int64, bool, error) {
	option, ok := o.find(name)
	if !ok {
		return 0, false, nil
	}
	if option.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false, fmt.Errorf("invalid type for %s option", name)
	}
	switch v := option.Value.(type) {
	case float64:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case int:
		return int64(v), true, nil
	default:
		return 0, false, fmt.Errorf("invalid value for %s option", name)
	}
}

// interactionUserID returns the invoking user, who is a Member in guilds
// and a User in direct messages.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func requireGuild(i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return &UserError{Message: "This command only works in a server."}
	}
	return nil
}

// CommandToStartRequest builds a start request from /action_start options.
func CommandToStartRequest(i *discordgo.InteractionCreate) (service.StartRequest, error) {
	if err := requireGuild(i); err != nil {
		return service.StartRequest{}, err
	}
	options := commandOptions(i.ApplicationCommandData().Options)

	actionType, err := options.stringValue("action_type")
	if err != nil {
		return service.StartRequest{}, err
	}
	target, err := options.stringValue("target")
	if err != nil {
		return service.StartRequest{}, err
	}
	duration, err := options.stringValue("duration")
	if err != nil {
		return service.StartRequest{}, err
	}
	channelID, err := options.channelValue("channel")
	if err != nil {
		return service.StartRequest{}, err
	}
	note, err := options.stringValue("note")
	if err != nil {
		return service.StartRequest{}, err
	}

	return service.StartRequest{
		ActionType:         actionType,
		Target:             target,
		DurationOrDeadline: duration,
		ChannelID:          channelID,
		Note:               note,
		GuildID:            i.GuildID,
		UserID:             interactionUserID(i),
		DefaultChannelID:   i.ChannelID,
	}, nil
}

// CommandToActionID reads the action_id option of /action_cancel.
func CommandToActionID(i *discordgo.InteractionCreate) (int64, error) {
	if err := requireGuild(i); err != nil {
		return 0, err
	}
	id, ok, err := commandOptions(i.ApplicationCommandData().Options).intValue("action_id")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &UserError{Message: "An action ID is required."}
	}
	return id, nil
}

// SelectedActionID reads the action picked from the cancel menu.
func SelectedActionID(i *discordgo.InteractionCreate) (int64, error) {
	values := i.MessageComponentData().Values
	if len(values) != 1 {
		return 0, fmt.Errorf("expected one selected action, got %d", len(values))
	}
	id, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid selected action %q: %w", values[0], err)
	}
	return id, nil
}
