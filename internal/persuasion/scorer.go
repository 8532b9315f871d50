// Package persuasion scores how persuasive a blog post is along six independent dimensions.
package persuasion

import (
	"math"
	"regexp"
	"strings"
)

// Weights for the total. They sum to 1.0.
const (
	storytellingWeight = 0.20
	dataEvidenceWeight = 0.20
	emotionWeight      = 0.15
	authorityWeight    = 0.15
	socialProofWeight  = 0.10
	ctaClarityWeight   = 0.20
)

// ctaTailStart is the fraction of the text after which call-to-action phrases count double.
const ctaTailStart = 0.7

// Breakdown holds the six sub-scores and their weighted total, each in [0,100].
type Breakdown struct {
	Storytelling float64 `json:"storytelling"`
	DataEvidence float64 `json:"data_evidence"`
	Emotion      float64 `json:"emotion"`
	Authority    float64 `json:"authority"`
	SocialProof  float64 `json:"social_proof"`
	CTAClarity   float64 `json:"cta_clarity"`
	Total        float64 `json:"total"`
}

// signal is a pattern worth points per occurrence.
type signal struct {
	pattern *regexp.Regexp
	points  float64
}

var (
	storytellingSignals = []signal{
		{regexp.MustCompile(`어느\s*날|그때|처음(?:에는|엔)|당시|이야기|사례|경험|찾아오(?:셨|신)|내원하(?:셨|신)`), 20},
		{regexp.MustCompile(`\b(?:one day|story|stories|when i|i remember|case of|came to (?:us|me|our clinic))\b`), 20},
	}
	dataEvidenceSignals = []signal{
		{regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:%|퍼센트|명|건|년|개월|주|배|회|mg|ml|cc|cm|kg|percent\b)`), 20},
		{regexp.MustCompile(`연구|논문|통계|임상|데이터|\b(?:study|studies|research|clinical trials?|data)\b`), 20},
	}
	emotionSignals = []signal{
		{regexp.MustCompile(`걱정|불안|고민|두려|행복|안심|자신감|설레|편안|힘드|괴로|스트레스|\b(?:worr|anxi|afraid|fear|happ|confiden|relie|stress)`), 15},
		{regexp.MustCompile(`여러분|당신|\b(?:you|your)\b`), 10},
	}
	authoritySignals = []signal{
		{regexp.MustCompile(`전문의|박사|교수|학회|인증|자격|경력|수련|\b(?:board[- ]certified|specialists?|dr\.|ph\.?d|years of experience|certified)`), 25},
	}
	socialProofSignals = []signal{
		{regexp.MustCompile(`많은\s*(?:분들|환자|분이)|누적|대부분의|수천|수많은|입소문|\b(?:most patients|thousands|many (?:people|patients)|trusted by)\b`), 25},
	}
	ctaPattern = regexp.MustCompile(`상담|예약|문의|방문|연락|신청|전화|\b(?:call|book|visit|contact|schedule|sign up)\b`)
)

const ctaPoints = 20

// Scorer computes Breakdowns. It is stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the breakdown for text. Empty or whitespace-only text scores zero everywhere.
func (s *Scorer) Score(text string) Breakdown {
	if strings.TrimSpace(text) == "" {
		return Breakdown{}
	}
	lower := strings.ToLower(text)

	b := Breakdown{
		Storytelling: scoreSignals(lower, storytellingSignals),
		DataEvidence: scoreSignals(lower, dataEvidenceSignals),
		Emotion:      scoreSignals(lower, emotionSignals),
		Authority:    scoreSignals(lower, authoritySignals),
		SocialProof:  scoreSignals(lower, socialProofSignals),
		CTAClarity:   scoreCTA(lower),
	}
	b.Total = Total(b)
	return b
}

// Total returns the weighted sum of the sub-scores, rounded to one decimal.
func Total(b Breakdown) float64 {
	total := b.Storytelling*storytellingWeight +
		b.DataEvidence*dataEvidenceWeight +
		b.Emotion*emotionWeight +
		b.Authority*authorityWeight +
		b.SocialProof*socialProofWeight +
		b.CTAClarity*ctaClarityWeight
	return math.Round(clamp(total)*10) / 10
}

func scoreSignals(text string, signals []signal) float64 {
	score := 0.0
	for _, sig := range signals {
		score += float64(len(sig.pattern.FindAllStringIndex(text, -1))) * sig.points
	}
	return clamp(score)
}

// scoreCTA weights calls to action toward the end of the text.
func scoreCTA(text string) float64 {
	tail := ctaTailStart * float64(len(text))
	score := 0.0
	for _, loc := range ctaPattern.FindAllStringIndex(text, -1) {
		if float64(loc[0]) >= tail {
			score += 2 * ctaPoints
		} else {
			score += ctaPoints
		}
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
