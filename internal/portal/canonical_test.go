package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

func TestCanonicalKey(t *testing.T) {
	testCases := []struct {
		name     string
		field    schemas.DiscoveredField
		expected string
	}{
		{
			name:     "cover letter via label",
			field:    schemas.DiscoveredField{Label: "Cover Letter"},
			expected: KeyCoverLetter,
		},
		{
			name:     "cover letter via snake_case name",
			field:    schemas.DiscoveredField{FieldID: "cover_letter", Label: "cover_letter", RawName: "cover_letter"},
			expected: KeyCoverLetter,
		},
		{
			name:     "skills",
			field:    schemas.DiscoveredField{Label: "Key skills"},
			expected: KeyKeySkills,
		},
		{
			name:     "years of experience",
			field:    schemas.DiscoveredField{Label: "Years of industry experience"},
			expected: KeyYearsExperience,
		},
		{
			name:     "work authorization",
			field:    schemas.DiscoveredField{Label: "Are you authorized to work?"},
			expected: KeyWorkAuthorization,
		},
		{
			name:     "visa sponsorship",
			field:    schemas.DiscoveredField{Label: "Do you require visa sponsorship now or later?"},
			expected: KeyVisaSponsorship,
		},
		{
			name:     "relocation",
			field:    schemas.DiscoveredField{Label: "Willing to relocate?"},
			expected: KeyRelocation,
		},
		{
			name:     "notice period",
			field:    schemas.DiscoveredField{Label: "Notice period"},
			expected: KeyNoticePeriod,
		},
		{
			name:     "salary via placeholder",
			field:    schemas.DiscoveredField{Placeholder: "Expected compensation"},
			expected: KeyExpectedSalary,
		},
		{
			name:     "location",
			field:    schemas.DiscoveredField{Label: "Current city"},
			expected: KeyLocation,
		},
		{
			name:     "linkedin",
			field:    schemas.DiscoveredField{RawName: "urls[LinkedIn]"},
			expected: KeyLinkedIn,
		},
		{
			name:     "github",
			field:    schemas.DiscoveredField{RawName: "urls[GitHub]"},
			expected: KeyGitHub,
		},
		{
			name:     "unmatched field stays unmapped",
			field:    schemas.DiscoveredField{Label: "Favorite color"},
			expected: "",
		},
		{
			name:     "first matching rule wins",
			field:    schemas.DiscoveredField{Label: "Cover letter about your skills"},
			expected: KeyCoverLetter,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalKey(tc.field))
		})
	}
}

func TestRequiredKeysAreBooleanConsistent(t *testing.T) {
	for key := range BooleanKeys {
		assert.Contains(t, RequiredKeys, key)
	}
}
