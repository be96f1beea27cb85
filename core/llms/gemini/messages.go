package gemini

import (
	"github.com/auravoice/aura-core/core/llms"
)

type content struct {
	Role  contentRole `json:"role,omitempty"`
	Parts []part      `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type contentRole string

const (
	contentRoleUser  contentRole = "user"
	contentRoleModel contentRole = "model"
)

// toContents maps the ordered turn history into the provider's alternating
// user/model content list. Tool output recorded on a user turn is appended
// to that turn's text so the model sees it as part of the same utterance
// context.
func toContents(turns []llms.Turn) []content {
	contents := []content{}
	for _, turn := range turns {
		text := turn.Content
		if turn.Role == llms.TurnRoleUser && turn.ToolResult != "" {
			text += "\n\n[" + turn.ToolName + " result]\n" + turn.ToolResult
		}
		if text == "" {
			continue
		}

		role := contentRoleUser
		if turn.Role == llms.TurnRoleAssistant {
			role = contentRoleModel
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: text}},
		})
	}
	return contents
}

func systemInstruction(instructions string) *content {
	if instructions == "" {
		return nil
	}
	return &content{Parts: []part{{Text: instructions}}}
}
