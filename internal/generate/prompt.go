package generate

import (
	"fmt"
	"strings"

	"quizrush/internal/domain"
)

const systemPrompt = `You are a quiz writer for a fast-paced quiz game. You write sharp, fair
multiple-choice questions that reward attention to detail. You reply with
nothing but valid JSON.`

const promptRules = `Rules:
- Each question has exactly 4 options and exactly one correct answer.
- Spread the correct answers across the letters; do not favor one letter.
- Keep questions short enough to read and answer within 30 seconds.
- Add a one-sentence explanation for each correct answer.

Return ONLY a JSON array in exactly this shape, no markdown, no prose:
[{"question":"...","options":["...","...","...","..."],"answer":"A","explanation":"..."}]`

func campaignPrompt(spec LevelSpec, p domain.LeaderProfile, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d multiple-choice questions about %s", SetSize, p.Name)
	if p.Position != "" {
		fmt.Fprintf(&b, ", who is running for %s", p.Position)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Level %d: %s\nFocus: %s\n\n", spec.Level, spec.Name, spec.Focus)
	b.WriteString("Source material:\n---\n")
	b.WriteString(strings.TrimSpace(content))
	b.WriteString("\n---\n\n")
	b.WriteString("Base every question only on the source material.\n")
	b.WriteString(promptRules)
	return b.String()
}

func topicPrompt(spec LevelSpec, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d multiple-choice questions about %s.\n\n", SetSize, topic)
	fmt.Fprintf(&b, "Level %d: %s\nDifficulty: %s\n\n", spec.Level, spec.Name, spec.Focus)
	b.WriteString(promptRules)
	return b.String()
}
