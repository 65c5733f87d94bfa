package profiles

import (
	"context"
	"fmt"
	"strings"

	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/scoring/composite"
)

// ErrNotFound is returned when a domain has no stored score.
var ErrNotFound = ports.ErrNotFound

var _ ports.Profiles = (*Service)(nil)

type Service struct {
	scores ports.ScoreRepository
}

func New(scores ports.ScoreRepository) *Service { return &Service{scores: scores} }

// GetLatest returns the newest score of the registrable domain of name. Any
// host under the domain resolves to it.
func (s *Service) GetLatest(ctx context.Context, name string) (domain.Score, error) {
	registrable := domain.RegistrableHost(strings.TrimSpace(name))
	if registrable == "" {
		return domain.Score{}, ErrNotFound
	}
	score, exists, err := s.scores.GetLatestByDomain(ctx, registrable)
	if err != nil {
		return domain.Score{}, fmt.Errorf("latest score for %s: %w", registrable, err)
	}
	if !exists {
		return domain.Score{}, ErrNotFound
	}
	if score.DomainRef == "" {
		score.DomainRef = registrable
	}
	if len(score.Badges) == 0 {
		score.Badges = composite.Badges(composite.NewAuditScores{
			Performance:   score.Performance,
			Visibility:    score.Visibility,
			Security:      score.Security,
			Accessibility: score.Accessibility,
			Trust:         score.Trust,
			Overall:       score.Overall,
		})
	}
	return score, nil
}
