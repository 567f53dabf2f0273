// internal/app/system/scoring/scoring.go

// Package scoring holds the heuristic screening logic shared by the
// application and moderation endpoints: form validation, application
// quality scoring, and message analysis. The rubric is keyword and
// length based; there is no external model behind it.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RequiredFields groups the application form fields by section. Every
// field listed here must be present and non-empty at submit time.
var RequiredFields = map[string][]string{
	"personal":   {"in_game_name", "age", "country"},
	"gaming":     {"primary_game", "gameplay_hours", "rank", "experience"},
	"motivation": {"reason", "contribution", "availability"},
}

// Validation is the outcome of validating an application form.
type Validation struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// asInt coerces a form value to an int. JSON numbers arrive as float64;
// some clients send numeric strings.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func isEmpty(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(n) == ""
	default:
		return false
	}
}

// fieldLabel turns "in_game_name" into "In Game Name" for error messages.
func fieldLabel(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ValidateApplication checks an application form against the required
// fields and per-field constraints. All validation is server-side; the
// frontend copy of these rules is cosmetic only.
func ValidateApplication(data map[string]any) Validation {
	errors := map[string]string{}

	for _, section := range []string{"personal", "gaming", "motivation"} {
		for _, field := range RequiredFields[section] {
			if v, ok := data[field]; !ok || isEmpty(v) {
				errors[field] = fmt.Sprintf("%s is required", fieldLabel(field))
			}
		}
	}

	if v, ok := data["age"]; ok && !isEmpty(v) {
		if age, ok := asInt(v); !ok {
			errors["age"] = "Age must be a valid number"
		} else if age < 13 {
			errors["age"] = "You must be at least 13 years old"
		} else if age > 100 {
			errors["age"] = "Please enter a valid age"
		}
	}

	if v, ok := data["gameplay_hours"]; ok && !isEmpty(v) {
		if hours, ok := asInt(v); !ok {
			errors["gameplay_hours"] = "Hours must be a valid number"
		} else if hours < 0 {
			errors["gameplay_hours"] = "Hours must be a positive number"
		}
	}

	if v, ok := data["availability"]; ok && !isEmpty(v) {
		if avail, ok := asInt(v); !ok {
			errors["availability"] = "Availability must be a valid number"
		} else if avail < 0 || avail > 168 {
			errors["availability"] = "Hours per week must be between 0 and 168"
		}
	}

	if s := asString(data["experience"]); s != "" && len(s) < 20 {
		errors["experience"] = "Please provide at least 20 characters describing your experience"
	}
	if s := asString(data["reason"]); s != "" && len(s) < 30 {
		errors["reason"] = "Please provide at least 30 characters explaining why you want to join"
	}
	if s := asString(data["contribution"]); s != "" && len(s) < 20 {
		errors["contribution"] = "Please provide at least 20 characters about your contribution"
	}
	if s := asString(data["in_game_name"]); s != "" && (len(s) < 3 || len(s) > 20) {
		errors["in_game_name"] = "In-game name must be between 3 and 20 characters"
	}

	return Validation{Valid: len(errors) == 0, Errors: errors}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Application scoring                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

var motivationKeywords = []string{
	"competitive", "teamwork", "improve", "learn", "community",
	"passion", "dedicated", "skilled", "strategic", "professional",
}

var contributionKeywords = []string{
	"help", "teach", "mentor", "organize", "lead",
	"content", "stream", "coach", "guide", "support",
}

func keywordHits(text string, keywords []string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return hits
}

type factor struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// ScoreApplication rates a validated application on a 100-point rubric:
// 40 for gaming experience, 30 for motivation, 20 for planned
// contribution, 10 for availability. Returns the score plus a factor
// breakdown stored alongside the application for reviewers.
func ScoreApplication(data map[string]any) (float64, map[string]any) {
	var score float64
	factors := map[string]any{}
	var strengths, weaknesses []string

	hours, _ := asInt(data["gameplay_hours"])
	switch {
	case hours > 1000:
		score += 40
		factors["gameplay_hours"] = factor{40, "Extensive gaming experience"}
		strengths = append(strengths, "Very experienced gamer")
	case hours > 500:
		score += 30
		factors["gameplay_hours"] = factor{30, "Good gaming experience"}
		strengths = append(strengths, "Experienced gamer")
	case hours > 100:
		score += 20
		factors["gameplay_hours"] = factor{20, "Moderate gaming experience"}
	default:
		score += 10
		factors["gameplay_hours"] = factor{10, "Limited gaming experience"}
		weaknesses = append(weaknesses, "Limited gaming hours")
	}

	reason := asString(data["reason"])
	reasonHits := keywordHits(reason, motivationKeywords)
	switch {
	case len(reason) > 200 && reasonHits >= 3:
		score += 30
		factors["motivation"] = factor{30, "Excellent motivation"}
		strengths = append(strengths, "Strong motivation and clear goals")
	case len(reason) > 100 && reasonHits >= 2:
		score += 20
		factors["motivation"] = factor{20, "Good motivation"}
		strengths = append(strengths, "Good understanding of community")
	case len(reason) > 50:
		score += 10
		factors["motivation"] = factor{10, "Basic motivation"}
	default:
		score += 5
		factors["motivation"] = factor{5, "Weak motivation"}
		weaknesses = append(weaknesses, "Lacks detailed motivation")
	}

	contribution := asString(data["contribution"])
	contribHits := keywordHits(contribution, contributionKeywords)
	switch {
	case len(contribution) > 100 && contribHits >= 2:
		score += 20
		factors["contribution"] = factor{20, "Valuable contributions planned"}
		strengths = append(strengths, "Ready to contribute actively")
	case len(contribution) > 50 && contribHits >= 1:
		score += 15
		factors["contribution"] = factor{15, "Some contributions planned"}
	default:
		score += 5
		factors["contribution"] = factor{5, "Limited contribution clarity"}
		weaknesses = append(weaknesses, "Unclear contribution plans")
	}

	availability, _ := asInt(data["availability"])
	switch {
	case availability >= 20:
		score += 10
		factors["availability"] = factor{10, "High availability"}
		strengths = append(strengths, "Highly available for events")
	case availability >= 10:
		score += 7
		factors["availability"] = factor{7, "Good availability"}
	case availability >= 5:
		score += 4
		factors["availability"] = factor{4, "Moderate availability"}
	default:
		score += 2
		factors["availability"] = factor{2, "Low availability"}
		weaknesses = append(weaknesses, "Limited time availability")
	}

	// Confidence tracks how much text the applicant actually wrote.
	totalLength := len(reason) + len(contribution) + len(asString(data["experience"]))
	var confidence float64
	switch {
	case totalLength > 500:
		confidence = 0.95
	case totalLength > 300:
		confidence = 0.85
	case totalLength > 150:
		confidence = 0.70
	default:
		confidence = 0.50
	}

	score = math.Min(score, 100)

	var recommendation string
	switch {
	case score >= 80:
		recommendation = "Highly recommended for approval"
	case score >= 60:
		recommendation = "Recommended for approval"
	case score >= 40:
		recommendation = "Consider for approval with interview"
	default:
		recommendation = "Not recommended"
	}

	analysis := map[string]any{
		"factors":        factors,
		"strengths":      strengths,
		"weaknesses":     weaknesses,
		"confidence":     confidence,
		"final_score":    score,
		"recommendation": recommendation,
	}
	return score, analysis
}

// QualityCheck is the lighter-weight rating used by the standalone
// analyze endpoint: a 50-point base adjusted for answer depth.
type QualityCheck struct {
	Score          float64  `json:"score"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

// CheckApplicationQuality rates an application draft without running the
// full rubric, for the manager-side preview.
func CheckApplicationQuality(data map[string]any) QualityCheck {
	score := 50.0
	var factors []string

	if reason := asString(data["reason"]); reason != "" {
		switch {
		case len(reason) > 200:
			score += 20
			factors = append(factors, "Detailed reason provided")
		case len(reason) > 100:
			score += 10
			factors = append(factors, "Good reason length")
		default:
			factors = append(factors, "Reason could be more detailed")
		}
	}

	if exp := asString(data["experience"]); len(exp) > 100 {
		score += 15
		factors = append(factors, "Good experience description")
	}

	hours, _ := asInt(data["gameplay_hours"])
	switch {
	case hours > 500:
		score += 15
		factors = append(factors, "Extensive gameplay experience")
	case hours > 100:
		score += 10
		factors = append(factors, "Good gameplay experience")
	}

	short := false
	for k, v := range data {
		if k == "gameplay_hours" {
			continue
		}
		if len(fmt.Sprint(v)) < 20 {
			short = true
			break
		}
	}
	if short {
		score -= 20
		factors = append(factors, "Some answers seem too short")
	}

	score = math.Min(score, 100)

	var recommendation string
	switch {
	case score >= 70:
		recommendation = "approve"
	case score >= 50:
		recommendation = "review"
	default:
		recommendation = "reject"
	}
	return QualityCheck{Score: score, Factors: factors, Recommendation: recommendation}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Message analysis                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

var toxicKeywords = []string{
	"spam", "scam", "hack", "cheat", "bot", "sell", "buy",
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// MessageAnalysis is the moderation verdict for a single message.
type MessageAnalysis struct {
	Message         string   `json:"message"`
	IsToxic         bool     `json:"is_toxic"`
	Violations      []string `json:"violations"`
	Confidence      float64  `json:"confidence"`
	SuggestedAction string   `json:"suggested_action"`
}

// AnalyzeMessage runs the keyword heuristics over a chat message:
// repeated-word spam, toxic keyword hits, and bare links flagged as
// advertising. The suggested action escalates with confidence.
func AnalyzeMessage(message string) MessageAnalysis {
	a := MessageAnalysis{
		Message:         message,
		Violations:      []string{},
		SuggestedAction: "none",
	}

	lower := strings.ToLower(message)
	words := strings.Fields(lower)

	// A message whose unique-word count collapses is a repetition spam.
	if len(words) > 0 {
		unique := map[string]struct{}{}
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique)) < float64(len(words))*0.3 {
			a.Violations = append(a.Violations, "spam")
			a.Confidence = 0.7
		}
	}

	toxicCount := 0
	for _, k := range toxicKeywords {
		if strings.Contains(lower, k) {
			toxicCount++
		}
	}
	if toxicCount > 0 {
		a.IsToxic = true
		a.Violations = append(a.Violations, "toxicity")
		a.Confidence = math.Min(float64(toxicCount)*0.3, 0.95)
	}

	if urlPattern.MatchString(message) {
		a.Violations = append(a.Violations, "advertising")
		a.Confidence = math.Max(a.Confidence, 0.6)
	}

	switch {
	case a.Confidence > 0.8:
		a.SuggestedAction = "ban"
	case a.Confidence > 0.5:
		a.SuggestedAction = "warn"
	case a.Confidence > 0.3:
		a.SuggestedAction = "flag"
	}
	return a
}
