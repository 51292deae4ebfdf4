// Package profile resolves the user profile consumed by an agent run,
// bootstrapping a minimal skills list from the job description when no
// stored profile exists.
package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/store"
)

// seedKeywords are scanned against the job description when bootstrapping
// a profile for a user with no record on file.
var seedKeywords = []string{"python", "fastapi", "sql", "docker", "rest", "postgresql"}

// Provider loads profiles from the repository. The repository may be nil,
// in which case every lookup falls through to bootstrapping.
type Provider struct {
	repo store.Repository
	log  *zap.Logger
}

func NewProvider(repo store.Repository, logger *zap.Logger) *Provider {
	return &Provider{repo: repo, log: logger.Named("profile")}
}

// Fetch returns the profile to use for a run plus a human-readable note
// describing how it was obtained. A stored profile with skills wins;
// otherwise skills are seeded from keywords found in the job description.
func (p *Provider) Fetch(ctx context.Context, userID, jobDescription string, current *schemas.Profile) (*schemas.Profile, string, error) {
	if p.repo != nil {
		stored, err := p.repo.GetProfile(ctx, userID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load profile: %w", err)
		}
		if stored != nil && len(stored.Skills) > 0 {
			return stored, "Loaded existing profile with skills.", nil
		}
	}

	seeded := BootstrapSkills(jobDescription)
	prof := current
	if prof == nil {
		prof = &schemas.Profile{UserID: userID, Skills: seeded}
	} else if len(prof.Skills) == 0 {
		prof.Skills = seeded
	}

	p.log.Debug("bootstrapped profile from job description",
		zap.String("user_id", userID),
		zap.Strings("seed_skills", seeded))
	note := fmt.Sprintf("No profile on record; bootstrapped skills from job description: %s.", describeSkills(seeded))
	return prof, note, nil
}

// BootstrapSkills extracts seed skills from a job description by keyword
// scan. "sql" is surfaced uppercased; everything else is kept as written.
func BootstrapSkills(jobDescription string) []string {
	jd := strings.ToLower(jobDescription)
	var skills []string
	for _, kw := range seedKeywords {
		if strings.Contains(jd, kw) {
			if kw == "sql" {
				skills = append(skills, "SQL")
			} else {
				skills = append(skills, kw)
			}
		}
	}
	return skills
}

func describeSkills(skills []string) string {
	if len(skills) == 0 {
		return "none"
	}
	return strings.Join(skills, ", ")
}
