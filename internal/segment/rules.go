package segment

import "regexp"

// Rule is one boundary signal. Rules are tried in order, strongest first.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

func rule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern)}
}

// DefaultRules returns the boundary rules for paper course-evaluation forms.
func DefaultRules() []Rule {
	return []Rule{
		rule("participant-number", `(?i)\bparticipant\s*(?:#|no\.?|number)\s*\d+`),
		rule("form-number", `(?i)\b(?:survey|form|evaluation|response|respondent)\s*(?:#|no\.?|number)\s*\d+`),
		rule("page-of", `(?i)\bpage\s+\d+\s+of\s+\d+`),
		rule("form-title", `(?i)\b(?:course|training|workshop|session)\s+(?:evaluation|feedback|survey)(?:\s+form)?\b`),
		rule("feedback-title", `(?i)\bparticipant\s+(?:feedback|evaluation|survey)\b`),
		rule("name-label", `(?i)\b(?:participant(?:'s)?\s+|full\s+)?name\s*[:\-]`),
		rule("date-label", `(?i)\bdate\s*[:\-]`),
		rule("course-label", `(?i)\bcourse(?:\s+(?:name|title))?\s*[:\-]`),
		rule("first-question", `(?i)\bq(?:uestion)?\s*1\b`),
		rule("instructions", `(?i)\bplease\s+(?:rate|circle|tick|indicate|answer)\b`),
		rule("scale", `(?i)\bon\s+a\s+scale\s+(?:of|from)\b`),
		rule("scale-legend", `(?i)\b1\s*=\s*(?:strongly\s+disagree|very\s+poor|poor)\b`),
		rule("section-header", `(?i)\bsection\s+(?:[a-d]|[1-4])\b`),
		rule("recommend", `(?i)\bhow\s+likely\s+(?:are\s+you\s+)?(?:to\s+)?recommend\b`),
		rule("learned", `(?i)\bwhat\s+(?:did\s+)?you\s+learn`),
		rule("company-label", `(?i)\b(?:company|organi[sz]ation)\s*[:\-]`),
		rule("email-label", `(?i)\be-?mail\s*[:\-]`),
		rule("phone-label", `(?i)\b(?:phone|tel(?:ephone)?|mobile)\s*[:\-]`),
		rule("signature", `(?i)\bsignature\b`),
		rule("thank-you", `(?i)\bthank\s+you\b`),
	}
}
