package presenters

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/service"
	"github.com/glizzus/action-timer/internal/util"
)

const (
	NoPendingActionsMessage = "You have no pending actions."
	CouldNotCancelMessage   = "Could not cancel—check the ID or it may already be done."
	InternalErrorMessage    = "Something went wrong. Please try again later."
)

// ComponentIDActionCancelSelect prefixes the custom ID of the cancel menu.
// The flow instance ID follows a colon.
const ComponentIDActionCancelSelect = "action_cancel_select"

// Discord limits select menus to 25 options.
const maxSelectOptions = 25

// Discord rejects message content longer than 2000 characters.
const maxContentLength = 2000

const (
	maxFieldLength = 100
	maxNoteLength  = 1000
	maxLabelLength = 100

	// Room kept for the "…and N more" footer of a cut list.
	listFooterReserve = 32
)

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func BuildStartResponse(res service.StartResult) *discordgo.InteractionResponse {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Timer set (ID `%d`): **%s** → **%s**\n", res.ID,
		util.Truncate(res.ActionType, maxFieldLength), util.Truncate(res.Target, maxFieldLength))
	fmt.Fprintf(&b, "• Ends: %s\n", deadline.Format(res.EndsAt))
	fmt.Fprintf(&b, "• Ping channel: <#%s>", res.ChannelID)
	if res.Note != "" {
		fmt.Fprintf(&b, "\n• Note: %s", util.Truncate(res.Note, maxNoteLength))
	}
	return ephemeral(util.Truncate(b.String(), maxContentLength))
}

func pendingLine(a service.PendingAction, now time.Time) string {
	return fmt.Sprintf("• ID `%d` — **%s** → **%s** | Ends: %s | ~%s | <#%s>",
		a.ID, util.Truncate(a.ActionType, maxFieldLength), util.Truncate(a.Target, maxFieldLength), deadline.Format(a.EndsAt), deadline.Remaining(a.EndsAt, now), a.ChannelID)
}

func pendingToSelectMenuOption(a service.PendingAction) discordgo.SelectMenuOption {
	return discordgo.SelectMenuOption{
		Label:       util.Truncate(fmt.Sprintf("#%d %s → %s", a.ID, a.ActionType, a.Target), maxLabelLength),
		Value:       strconv.FormatInt(a.ID, 10),
		Description: "Ends " + deadline.Format(a.EndsAt),
	}
}

var cancelSelectMinValues = 1

func buildCancelSelectMenu(actions []service.PendingAction, instanceID string) discordgo.ActionsRow {
	var options []discordgo.SelectMenuOption
	for _, a := range actions[:min(len(actions), maxSelectOptions)] {
		options = append(options, pendingToSelectMenuOption(a))
	}

	menu := discordgo.SelectMenu{
		CustomID:    ComponentIDActionCancelSelect + ":" + instanceID,
		Placeholder: "Cancel a timer",
		MinValues:   &cancelSelectMinValues,
		MaxValues:   1,
		Options:     options,
	}

	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			menu,
		},
	}
}

// BuildListResponse lists pending actions soonest first, with a menu that
// cancels the selected one.
func BuildListResponse(actions []service.PendingAction, now time.Time, instanceID string) *discordgo.InteractionResponse {
	if len(actions) == 0 {
		return ephemeral(NoPendingActionsMessage)
	}

	resp := ephemeral(listContent(actions, now))
	resp.Data.Components = []discordgo.MessageComponent{
		buildCancelSelectMenu(actions, instanceID),
	}
	return resp
}

// listContent renders one line per action. Lines that would push the
// message past Discord's limit are replaced by a count of the rest.
func listContent(actions []service.PendingAction, now time.Time) string {
	lines := make([]string, 0, len(actions))
	var used int
	for i, a := range actions {
		line := pendingLine(a, now)
		n := utf8.RuneCountInString(line)
		if i > 0 {
			n++
		}
		budget := maxContentLength
		if i < len(actions)-1 {
			budget -= listFooterReserve
		}
		if used+n > budget {
			lines = append(lines, fmt.Sprintf("…and %d more", len(actions)-i))
			break
		}
		lines = append(lines, line)
		used += n
	}
	return strings.Join(lines, "\n")
}

func cancelMessage(id int64, canceled bool) string {
	if !canceled {
		return CouldNotCancelMessage
	}
	return fmt.Sprintf("🛑 Canceled timer `%d`.", id)
}

func BuildCancelResponse(id int64, canceled bool) *discordgo.InteractionResponse {
	return ephemeral(cancelMessage(id, canceled))
}

// BuildCancelSelectedResponse replaces the list message after a timer is
// picked from the cancel menu.
func BuildCancelSelectedResponse(id int64, canceled bool) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    cancelMessage(id, canceled),
			Components: []discordgo.MessageComponent{},
		},
	}
}

func BuildUserErrorResponse(message string) *discordgo.InteractionResponse {
	return ephemeral("❌ " + message)
}

func BuildInternalErrorResponse() *discordgo.InteractionResponse {
	return ephemeral(InternalErrorMessage)
}
