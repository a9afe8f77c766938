package notify

import (
	"strings"

	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/util"
)

// Discord rejects message content longer than 2000 characters.
const maxMessageLength = 2000

const (
	maxFieldLength = 100
	maxNoteLength  = 1000
)

// CompletionMessage renders the channel message posted when an action finishes.
// Long fields are cut so the message always fits in a single Discord message.
func CompletionMessage(n Notification) string {
	var b strings.Builder
	b.WriteString("<@" + n.UserID + "> **NukeZone action complete!**\n")
	b.WriteString("• **Type:** " + util.Truncate(n.ActionType, maxFieldLength) + "\n")
	b.WriteString("• **Target:** " + util.Truncate(n.Target, maxFieldLength) + "\n")
	b.WriteString("• **Finished:** " + deadline.Format(n.EndsAt))
	if n.Note != "" {
		b.WriteString("\n• **Note:** " + util.Truncate(n.Note, maxNoteLength))
	}
	return util.Truncate(b.String(), maxMessageLength)
}
