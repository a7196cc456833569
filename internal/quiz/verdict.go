package quiz

// Verdict is the closing judgement for a completed level.
type Verdict struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

var verdictTiers = []struct {
	minPercent int
	verdict    Verdict
}{
	{80, Verdict{Tier: "outstanding", Message: "Outstanding! You know this inside-out!"}},
	{60, Verdict{Tier: "great", Message: "Great work! You clearly pay attention."}},
	{40, Verdict{Tier: "good", Message: "Good effort! There's more to discover."}},
	{0, Verdict{Tier: "keep_going", Message: "Keep going! Every level teaches you more."}},
}

// VerdictFor maps a percent-correct value onto its tier.
func VerdictFor(percent int) Verdict {
	for _, t := range verdictTiers {
		if percent >= t.minPercent {
			return t.verdict
		}
	}
	return verdictTiers[len(verdictTiers)-1].verdict
}
