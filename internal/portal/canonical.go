package portal

import (
	"strings"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// Canonical keys form the closed, portal-independent field vocabulary that
// every discovered field is mapped onto.
const (
	KeyCoverLetter       = "cover_letter"
	KeyKeySkills         = "key_skills"
	KeyYearsExperience   = "years_experience"
	KeyWorkAuthorization = "work_authorization"
	KeyVisaSponsorship   = "visa_sponsorship"
	KeyRelocation        = "relocation"
	KeyNoticePeriod      = "notice_period"
	KeyExpectedSalary    = "expected_salary"
	KeyLocation          = "location"
	KeyLinkedIn          = "linkedin"
	KeyGitHub            = "github"
)

// RequiredKeys are the canonical fields that must be resolved before an
// application package can be considered complete.
var RequiredKeys = []string{
	KeyWorkAuthorization,
	KeyNoticePeriod,
	KeyExpectedSalary,
	KeyRelocation,
	KeyVisaSponsorship,
	KeyLocation,
}

// BooleanKeys are the canonical fields answered yes/no.
var BooleanKeys = map[string]bool{
	KeyWorkAuthorization: true,
	KeyRelocation:        true,
	KeyVisaSponsorship:   true,
}

// canonicalRule is one ordered substring rule of the keyword classifier.
type canonicalRule struct {
	key   string
	terms []string
}

// Rule order matters: the first matching rule wins.
var canonicalRules = []canonicalRule{
	{KeyCoverLetter, []string{"cover letter"}},
	{KeyKeySkills, []string{"skill"}},
	{KeyYearsExperience, []string{"experience", "years"}},
	{KeyWorkAuthorization, []string{"work authorization", "authorized"}},
	{KeyVisaSponsorship, []string{"visa", "sponsorship"}},
	{KeyRelocation, []string{"relocation", "relocate"}},
	{KeyNoticePeriod, []string{"notice"}},
	{KeyExpectedSalary, []string{"salary", "compensation"}},
	{KeyLocation, []string{"location", "city"}},
	{KeyLinkedIn, []string{"linkedin"}},
	{KeyGitHub, []string{"github"}},
}

// CanonicalKey classifies a discovered field onto the canonical vocabulary
// using its textual signals. An empty return means the field stays unmapped;
// that is accepted degradation, not an error.
func CanonicalKey(f schemas.DiscoveredField) string {
	return keyForHaystack(fieldHaystack(f))
}

func fieldHaystack(f schemas.DiscoveredField) string {
	return strings.Join([]string{
		searchable(f.Label),
		searchable(f.RawName),
		searchable(f.Placeholder),
		searchable(string(f.Type)),
	}, " ")
}

func keyForHaystack(haystack string) string {
	for _, rule := range canonicalRules {
		for _, term := range rule.terms {
			if strings.Contains(haystack, term) {
				return rule.key
			}
		}
	}
	return ""
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// searchable widens normalize for classification: snake_case and kebab-case
// markup names still have to hit multi-word rule terms like "cover letter".
func searchable(text string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(normalize(text))
}
