package qualification

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AgeStatus classifies the outcome of ParseAge.
type AgeStatus int

const (
	AgeMissing AgeStatus = iota
	AgeOutOfRange
	AgeValid
)

const (
	minAge    = 18
	maxAge    = 120
	minBudget = 10.0
	maxBudget = 1000.0
)

var (
	integerPattern      = regexp.MustCompile(`\d+`)
	budgetFillerPattern = regexp.MustCompile(`\b(per|month|monthly|around|about|approximately)\b`)
	budgetAmountPattern = regexp.MustCompile(`\d+(?:\.\d{1,2})?`)
	slotPrefixPattern   = regexp.MustCompile(`^\d+\.\s`)
)

// ParseAge extracts the first integer in text and checks it against 18..120.
func ParseAge(text string) (AgeStatus, int) {
	match := integerPattern.FindString(text)
	if match == "" {
		return AgeMissing, 0
	}
	age, err := strconv.Atoi(match)
	if err != nil {
		// Too many digits for an int.
		return AgeOutOfRange, 0
	}
	if age < minAge || age > maxAge {
		return AgeOutOfRange, age
	}
	return AgeValid, age
}

// YesNo is the result of ParseYesNo.
type YesNo int

const (
	YesNoAmbiguous YesNo = iota
	YesNoYes
	YesNoNo
)

// ParseYesNo looks for "yes" and "no" anywhere in text. Both or neither is ambiguous.
func ParseYesNo(text string) YesNo {
	lower := strings.ToLower(text)
	hasYes := strings.Contains(lower, "yes")
	hasNo := strings.Contains(lower, "no")
	switch {
	case hasYes && !hasNo:
		return YesNoYes
	case hasNo && !hasYes:
		return YesNoNo
	default:
		return YesNoAmbiguous
	}
}

// ParseBudget reads a monthly budget such as "around $100" and formats it as "$100/month".
// The largest number mentioned wins and must fall within 10..1000.
func ParseBudget(text string) (bool, string, float64) {
	cleaned := budgetFillerPattern.ReplaceAllString(strings.ToLower(text), "")
	cleaned = strings.NewReplacer("$", "", ",", "").Replace(cleaned)

	matches := budgetAmountPattern.FindAllString(cleaned, -1)
	if len(matches) == 0 {
		return false, "", 0
	}
	amount := 0.0
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if v > amount {
			amount = v
		}
	}
	if amount < minBudget || amount > maxBudget {
		return false, "", amount
	}
	return true, fmt.Sprintf("$%.0f/month", amount), amount
}

// ParseName rejects names shorter than two characters or containing digits.
func ParseName(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 2 {
		return false
	}
	return !strings.ContainsFunc(trimmed, unicode.IsDigit)
}

var recruitingKeywords = []string{
	"sales position", "are you hiring", "looking for a job", "want to join your team",
	"is this for agents", "i'm licensed", "i want to get licensed", "work with you",
	"opportunity", "recruiting", "agent position", "sales job", "employment",
	"career", "hiring", "job opening", "work from home", "remote work",
	"commission", "sales opportunity", "insurance agent", "become an agent",
}

var recruitingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(job|work|position|career|opportunity|hiring)\b.*\b(insurance|sales|agent)\b`),
	regexp.MustCompile(`\b(insurance|sales|agent)\b.*\b(job|work|position|career|opportunity)\b`),
	regexp.MustCompile(`\blicensed?\b.*\b(insurance|life insurance|agent)\b`),
	regexp.MustCompile(`\bget licensed\b`),
	regexp.MustCompile(`\bjoin.*team\b`),
	regexp.MustCompile(`\bwork.*with.*you\b`),
	regexp.MustCompile(`\bhiring.*agents?\b`),
	regexp.MustCompile(`\bagent.*position\b`),
	regexp.MustCompile(`\bsales.*opportunity\b`),
}

// DetectRecruitingInquiry reports whether text reads like someone asking about a sales job.
func DetectRecruitingInquiry(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range recruitingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, p := range recruitingPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// ParseSlotSelection resolves a reply against the offered slots. A bare "1".."4" picks by
// position; otherwise the first slot containing any word of the reply is chosen.
// The returned description has its "N. " prefix removed.
func ParseSlotSelection(text string, offered []string) (bool, string) {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch lower {
	case "1", "2", "3", "4":
		idx, _ := strconv.Atoi(lower)
		if idx-1 < len(offered) {
			return true, stripSlotPrefix(offered[idx-1])
		}
	}

	tokens := strings.Fields(lower)
	for _, slot := range offered {
		slotLower := strings.ToLower(slot)
		for _, tok := range tokens {
			if strings.Contains(slotLower, tok) {
				return true, stripSlotPrefix(slot)
			}
		}
	}
	return false, ""
}

func stripSlotPrefix(slot string) string {
	return slotPrefixPattern.ReplaceAllString(slot, "")
}

// LicensingStatus is what a recruiting prospect said about holding a life insurance license.
type LicensingStatus int

const (
	LicensingUnknown LicensingStatus = iota
	LicensingLicensed
	LicensingNotLicensed
)

var (
	notLicensedPhrases = []string{
		"not licensed", "don't have", "dont have", "need to get", "want to get",
		"looking to get", "not yet", "working on it", "no license",
	}
	notLicensedWords = []string{"no", "nope"}
	licensedPhrases  = []string{
		"licensed", "i'm licensed", "i am licensed", "already licensed",
		"have my license", "got my license", "have license", "certified",
	}
	licensedWords = []string{"yes", "yep", "yeah"}
)

// ParseLicensingStatus classifies a recruiting reply. Negative phrasing is checked first so
// that "not licensed" is not read as "licensed".
func ParseLicensingStatus(text string) LicensingStatus {
	lower := strings.ToLower(strings.TrimSpace(text))
	words := wordSet(lower)

	if containsAny(lower, notLicensedPhrases) || hasAnyWord(words, notLicensedWords) {
		return LicensingNotLicensed
	}
	if containsAny(lower, licensedPhrases) || hasAnyWord(words, licensedWords) {
		return LicensingLicensed
	}
	return LicensingUnknown
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func wordSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func hasAnyWord(set map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
