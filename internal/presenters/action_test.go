package presenters_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"github.com/glizzus/action-timer/internal/presenters"
	"github.com/glizzus/action-timer/internal/service"
)

var now = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func TestBuildStartResponse(t *testing.T) {
	tests := []struct {
		name string
		res  service.StartResult
		want string
	}{
		{
			name: "without note",
			res: service.StartResult{
				ID:         12,
				ActionType: "Scout",
				Target:     "BaseX",
				EndsAt:     now.Add(45 * time.Minute),
				ChannelID:  "300",
			},
			want: "✅ Timer set (ID `12`): **Scout** → **BaseX**\n" +
				"• Ends: 2025-10-20 12:45 UTC\n" +
				"• Ping channel: <#300>",
		},
		{
			name: "with note",
			res: service.StartResult{
				ID:         13,
				ActionType: "Raid",
				Target:     "BaseY",
				Note:       "bring tanks",
				EndsAt:     now.Add(8 * time.Hour),
				ChannelID:  "301",
			},
			want: "✅ Timer set (ID `13`): **Raid** → **BaseY**\n" +
				"• Ends: 2025-10-20 20:00 UTC\n" +
				"• Ping channel: <#301>\n" +
				"• Note: bring tanks",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: tc.want,
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			}
			if diff := cmp.Diff(want, presenters.BuildStartResponse(tc.res)); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildListResponseEmpty(t *testing.T) {
	want := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "You have no pending actions.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
	if diff := cmp.Diff(want, presenters.BuildListResponse(nil, now, "flow-1")); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildListResponse(t *testing.T) {
	actions := []service.PendingAction{
		{ID: 3, ActionType: "Scout", Target: "BaseX", EndsAt: now.Add(45*time.Minute + 30*time.Second), ChannelID: "300"},
		{ID: 1, ActionType: "Raid", Target: "BaseY", EndsAt: now.Add(26 * time.Hour), ChannelID: "301"},
	}

	want := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "• ID `3` — **Scout** → **BaseX** | Ends: 2025-10-20 12:45 UTC | ~0h 45m | <#300>\n" +
				"• ID `1` — **Raid** → **BaseY** | Ends: 2025-10-21 14:00 UTC | ~26h 0m | <#301>",
			Flags: discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							CustomID:    "action_cancel_select:flow-1",
							Placeholder: "Cancel a timer",
							MinValues:   &[]int{1}[0],
							MaxValues:   1,
							Options: []discordgo.SelectMenuOption{
								{Label: "#3 Scout → BaseX", Value: "3", Description: "Ends 2025-10-20 12:45 UTC"},
								{Label: "#1 Raid → BaseY", Value: "1", Description: "Ends 2025-10-21 14:00 UTC"},
							},
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, presenters.BuildListResponse(actions, now, "flow-1")); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildListResponseLimitsMenu(t *testing.T) {
	var actions []service.PendingAction
	for i := range 30 {
		actions = append(actions, service.PendingAction{
			ID:         int64(i + 1),
			ActionType: "Spy",
			Target:     strings.Repeat("x", 120),
			EndsAt:     now.Add(time.Duration(i+1) * time.Minute),
			ChannelID:  fmt.Sprint(i),
		})
	}

	resp := presenters.BuildListResponse(actions, now, "flow-1")
	if n := utf8.RuneCountInString(resp.Data.Content); n > 2000 {
		t.Errorf("content is %d characters; want at most 2000", n)
	}
	lines := strings.Split(resp.Data.Content, "\n")
	listed := len(lines) - 1
	if listed < 1 {
		t.Fatalf("no actions listed: %q", resp.Data.Content)
	}
	if got, want := lines[len(lines)-1], fmt.Sprintf("…and %d more", 30-listed); got != want {
		t.Errorf("footer = %q; want %q", got, want)
	}
	if !strings.Contains(lines[0], "**"+strings.Repeat("x", 99)+"…**") {
		t.Errorf("long target not cut: %q", lines[0])
	}

	row := resp.Data.Components[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 25 {
		t.Errorf("menu has %d options; want 25", len(menu.Options))
	}
	if n := len([]rune(menu.Options[0].Label)); n != 100 {
		t.Errorf("label length = %d; want 100", n)
	}
}

func TestBuildListResponseFitsWithoutFooter(t *testing.T) {
	var actions []service.PendingAction
	for i := range 5 {
		actions = append(actions, service.PendingAction{
			ID:         int64(i + 1),
			ActionType: "Spy",
			Target:     "BaseX",
			EndsAt:     now.Add(time.Hour),
			ChannelID:  "300",
		})
	}

	content := presenters.BuildListResponse(actions, now, "flow-1").Data.Content
	if strings.Contains(content, "more") {
		t.Errorf("short list should not be cut: %q", content)
	}
	if lines := strings.Count(content, "\n") + 1; lines != 5 {
		t.Errorf("listed %d actions; want 5", lines)
	}
}

func TestBuildStartResponseFitsDiscordLimit(t *testing.T) {
	resp := presenters.BuildStartResponse(service.StartResult{
		ID:         99,
		ActionType: strings.Repeat("t", 6000),
		Target:     strings.Repeat("x", 6000),
		Note:       strings.Repeat("n", 6000),
		EndsAt:     now.Add(time.Hour),
		ChannelID:  "300000000000000001",
	})

	content := resp.Data.Content
	if n := utf8.RuneCountInString(content); n > 2000 {
		t.Errorf("content is %d characters; want at most 2000", n)
	}
	if !strings.Contains(content, "• Ping channel: <#300000000000000001>") {
		t.Error("reply lost its ping channel")
	}
	if !strings.HasSuffix(content, "n…") {
		t.Error("long note should end in an ellipsis")
	}
}

func TestBuildCancelResponses(t *testing.T) {
	tests := []struct {
		name     string
		canceled bool
		want     string
	}{
		{name: "canceled", canceled: true, want: "🛑 Canceled timer `7`."},
		{name: "refused", canceled: false, want: "Could not cancel—check the ID or it may already be done."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: tc.want,
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			}
			if diff := cmp.Diff(want, presenters.BuildCancelResponse(7, tc.canceled)); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}

			wantUpdate := &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseUpdateMessage,
				Data: &discordgo.InteractionResponseData{
					Content:    tc.want,
					Components: []discordgo.MessageComponent{},
				},
			}
			if diff := cmp.Diff(wantUpdate, presenters.BuildCancelSelectedResponse(7, tc.canceled)); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildUserErrorResponse(t *testing.T) {
	resp := presenters.BuildUserErrorResponse("Duration must be > 0.")
	if got, want := resp.Data.Content, "❌ Duration must be > 0."; got != want {
		t.Errorf("Content = %q; want %q", got, want)
	}
	if resp.Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Errorf("Flags = %v; want ephemeral", resp.Data.Flags)
	}
}
