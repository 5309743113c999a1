package llm

import "github.com/openai/openai-go"

// Role of a chat message author.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat turn. ImageDataURL, when set on a user message, is sent
// as an image part after Text.
type Message struct {
	Role         Role
	Text         string
	ImageDataURL string
}

func System(text string) Message { return Message{Role: RoleSystem, Text: text} }

func User(text string) Message { return Message{Role: RoleUser, Text: text} }

// UserWithImage builds a vision request turn.
func UserWithImage(text, dataURL string) Message {
	return Message{Role: RoleUser, Text: text, ImageDataURL: dataURL}
}

func toParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case m.ImageDataURL != "":
			out = append(out, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Text),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: m.ImageDataURL}),
			}))
		default:
			out = append(out, openai.UserMessage(m.Text))
		}
	}
	return out
}
