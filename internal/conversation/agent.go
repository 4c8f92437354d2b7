package conversation

import (
	"context"
	"fmt"
	"strings"

	"voice-booking/internal/llm"
)

// HistoryWindow is how many recent turns are shown to the model for a reply.
const HistoryWindow = 6

const (
	dialogueTemperature = 0.7
	dialogueMaxTokens   = 150

	FallbackOpening = "Hello! This is the appointment service. I would like to book an appointment. Do you have a moment?"
	FallbackReply   = "Sorry, could you please repeat that?"
	RepromptText    = "Sorry, I did not catch that. Please try again."

	noConversationSummary = "No conversation recorded."
	fallbackSummary       = "Summary could not be created."
)

// Agent writes the assistant's side of a booking call.
type Agent struct {
	LLM llm.Client
}

func (a Agent) Opening(ctx context.Context, cc CallContext) (string, error) {
	prompt := "Generate the FIRST greeting for the call now.\n" +
		"Be short and friendly and explain why you are calling.\n" +
		"At most 2-3 short sentences!"
	return llm.Prompt(ctx, a.LLM, prompt,
		llm.WithSystem(systemPrompt(cc)),
		llm.WithTemperature(dialogueTemperature),
		llm.WithMaxTokens(dialogueMaxTokens),
	)
}

// Reply answers the latest caller utterance. recent must already contain it.
func (a Agent) Reply(ctx context.Context, cc CallContext, recent []Turn, input string) (string, error) {
	var b strings.Builder
	b.WriteString("CONVERSATION SO FAR:\n")
	b.WriteString(transcript(recent))
	fmt.Fprintf(&b, "\n\nThe other person now says: %q\n\n", input)
	b.WriteString("Generate a fitting, SHORT answer (at most 2-3 short sentences).\n")
	b.WriteString("Ask only ONE question.\n")
	b.WriteString("If an appointment was confirmed, end the conversation politely.")

	return llm.Prompt(ctx, a.LLM, b.String(),
		llm.WithSystem(systemPrompt(cc)),
		llm.WithTemperature(dialogueTemperature),
		llm.WithMaxTokens(dialogueMaxTokens),
	)
}

// Summarize condenses a finished call. The first line of the answer is
// "BOOKED: yes" or "BOOKED: no" (see ParseSummary).
func (a Agent) Summarize(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return noConversationSummary, nil
	}
	prompt := "Summarise this phone conversation briefly:\n\n" +
		transcript(turns) +
		"\n\nStart with a single line \"BOOKED: yes\" or \"BOOKED: no\".\n" +
		"Then write a short summary covering:\n" +
		"- Was an appointment booked?\n" +
		"- If yes: when?\n" +
		"- Special notes\n\n" +
		"At most 3-4 sentences."
	return llm.Prompt(ctx, a.LLM, prompt)
}

func systemPrompt(cc CallContext) string {
	var b strings.Builder
	b.WriteString("You are a friendly, professional phone assistant who books appointments.\n\n")
	fmt.Fprintf(&b, "YOUR TASK:\n%s\n\n", cc.Title)
	fmt.Fprintf(&b, "DETAILS:\n%s\n\n", cc.Description)
	fmt.Fprintf(&b, "PREFERRED TIME:\n%s\n\n", cc.PreferredTime)
	if cc.CustomerName != "" || cc.City != "" {
		fmt.Fprintf(&b, "CUSTOMER:\nName: %s\nCity: %s\n\n", cc.CustomerName, cc.City)
	}
	b.WriteString(`YOUR GOAL:
1. Greet the person politely and professionally
2. Briefly explain the reason for the call
3. Ask for available appointments in the preferred time frame
4. Note the appointment and confirm it
5. Thank them and end the conversation politely

IMPORTANT RULES:
- Be VERY short and precise (at most 2-3 short sentences per answer)
- Speak naturally and friendly, but professionally
- Ask only ONE question per answer
- If no appointment is available: ask whether a callback is possible
- If the person is not responsible: ask for the right person
- End the conversation as soon as an appointment has been confirmed`)
	return b.String()
}

func transcript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "Agent"
		if t.Role == RoleCaller {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// ParseSummary splits the BOOKED marker off a summary.
// A summary without the marker counts as not booked.
func ParseSummary(text string) (booked bool, summary string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var rest []string
	found := false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		upper := strings.ToUpper(trimmed)
		if !found && strings.HasPrefix(upper, "BOOKED:") {
			found = true
			v := strings.ToLower(strings.TrimSpace(trimmed[len("BOOKED:"):]))
			booked = strings.HasPrefix(v, "yes") || strings.HasPrefix(v, "ja") || v == "true"
			continue
		}
		rest = append(rest, l)
	}
	return booked, strings.TrimSpace(strings.Join(rest, "\n"))
}
