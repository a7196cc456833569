package generate

import (
	"fmt"
	"strings"

	"quizrush/internal/domain"
)

// CampaignFallback is the set served when campaign-mode generation is
// unavailable. It keeps the level playable without leaking the outage.
func CampaignFallback(name string, level int) domain.QuestionSet {
	if strings.TrimSpace(name) == "" {
		name = "Our Candidate"
	}
	q := domain.Question{
		Text: fmt.Sprintf("Why should you vote for %s?", name),
		Options: []string{
			"A proven track record",
			"A clear vision for students",
			"Genuine care for student welfare",
			"All of the above",
		},
		Answer:      "D",
		Explanation: fmt.Sprintf("%s represents all of these qualities and more.", name),
	}
	questions := make([]domain.Question, SetSize)
	for i := range questions {
		questions[i] = q
	}
	return domain.QuestionSet{Level: level, Questions: questions}
}

var topicFallbackQuestions = []domain.Question{
	{
		Text:        "Which planet is known as the Red Planet?",
		Options:     []string{"Venus", "Mars", "Jupiter", "Mercury"},
		Answer:      "B",
		Explanation: "Iron oxide on the surface gives Mars its red color.",
	},
	{
		Text:        "What is the largest ocean on Earth?",
		Options:     []string{"Atlantic", "Indian", "Arctic", "Pacific"},
		Answer:      "D",
		Explanation: "The Pacific covers more area than all land combined.",
	},
	{
		Text:        "How many continents are there?",
		Options:     []string{"Seven", "Five", "Six", "Eight"},
		Answer:      "A",
		Explanation: "The usual count is seven, from Africa to South America.",
	},
	{
		Text:        "Which gas do plants absorb from the atmosphere?",
		Options:     []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
		Answer:      "C",
		Explanation: "Photosynthesis turns carbon dioxide and water into sugar.",
	},
	{
		Text:        "What is the smallest prime number?",
		Options:     []string{"Zero", "Two", "One", "Three"},
		Answer:      "B",
		Explanation: "Two is the smallest prime and the only even one.",
	},
}

// TopicFallback is the set served when topic-mode generation is
// unavailable.
func TopicFallback(level int) domain.QuestionSet {
	questions := make([]domain.Question, len(topicFallbackQuestions))
	copy(questions, topicFallbackQuestions)
	return domain.QuestionSet{Level: level, Questions: questions}
}
