// Package persona assembles the prompt for the language model: a fixed
// personal-profile system description, retrieved knowledge-base context with
// source attribution, and the conversation history, in that order.
package persona

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"

	"github.com/saidmadi/persona-api/internal/index"
)

// DefaultContextBudget bounds the retrieved-context block in characters
// (roughly 6k tokens at the usual 4 chars/token estimate).
const DefaultContextBudget = 24000

// Profile is the fixed personal profile the assistant speaks as.
type Profile struct {
	Name     string
	Summary  string
	LinkedIn string
}

// Turn is one prior message of the conversation, owned by the caller.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Assembler builds chat messages from profile, retrieval results, and
// history.
type Assembler struct {
	profile       Profile
	contextBudget int
}

// NewAssembler creates an Assembler. budget <= 0 uses DefaultContextBudget.
func NewAssembler(profile Profile, budget int) *Assembler {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &Assembler{profile: profile, contextBudget: budget}
}

// Profile returns the fixed profile.
func (a *Assembler) Profile() Profile { return a.profile }

// SystemPrompt renders the persona description with the profile documents
// inlined.
func (a *Assembler) SystemPrompt() string {
	name := a.profile.Name

	var b strings.Builder
	fmt.Fprintf(&b, "You are acting as %s. You are answering questions on %s's website, "+
		"particularly questions related to %s's career, background, skills and experience. "+
		"Your responsibility is to represent %s for interactions on the website as faithfully as possible. "+
		"You are given a summary of %s's background and LinkedIn profile which you can use to answer questions. "+
		"Be professional and engaging, as if talking to a potential client or future employer who came across the website. "+
		"If you don't know the answer to any question, use your record_unknown_question tool to record the question that you couldn't answer, even if it's about something trivial or unrelated to career. "+
		"If the user is engaging in discussion, try to steer them towards getting in touch via email; ask for their email and record it using your record_user_details tool. ",
		name, name, name, name, name)

	fmt.Fprintf(&b, "\n\n## Summary:\n%s\n\n## LinkedIn Profile:\n%s\n\n", a.profile.Summary, a.profile.LinkedIn)
	fmt.Fprintf(&b, "With this context, please chat with the user, always staying in character as %s.", name)
	return b.String()
}

// ContextBlock formats retrieved chunks with source attribution, truncated
// to the context budget (counted in characters, not bytes). Empty retrieval,
// or a first passage already over budget, yields an empty string; the prompt
// stays valid with persona and history alone.
func (a *Assembler) ContextBlock(retrieved []index.Result) string {
	if len(retrieved) == 0 {
		return ""
	}

	const header = "## Retrieved knowledge base passages:\n"
	used := utf8.RuneCountInString(header)

	var b strings.Builder
	for _, r := range retrieved {
		passage := fmt.Sprintf("\n[source: %s]\n%s\n", r.Chunk.Source, r.Chunk.Text)
		n := utf8.RuneCountInString(passage)
		if used+n > a.contextBudget {
			break
		}
		if b.Len() == 0 {
			b.WriteString(header)
		}
		b.WriteString(passage)
		used += n
	}
	return b.String()
}

// BuildMessages produces the full ordered message list for a chat turn:
// system (persona + retrieved context), history, then the user message.
func (a *Assembler) BuildMessages(retrieved []index.Result, history []Turn, message string) []openai.ChatCompletionMessageParamUnion {
	system := a.SystemPrompt()
	if ctx := a.ContextBlock(retrieved); ctx != "" {
		system += "\n\n" + ctx
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(system))
	for _, turn := range history {
		switch turn.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))
	return messages
}
