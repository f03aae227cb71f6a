package service

import (
	"fmt"
	"strings"

	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
)

// checkSocialAdds rejects additions with a missing platform or a platform
// repeated within the batch. Uniqueness against the stored set is handled
// by the caller, which pulls the same platforms before adding.
func checkSocialAdds(adds []domain.SocialLink) error {
	seen := make(map[string]struct{}, len(adds))
	for _, s := range adds {
		p := strings.ToLower(strings.TrimSpace(s.Platform))
		if p == "" {
			return apperrors.BadRequest(apperrors.CodeValidationFailed, "social link platform must not be empty")
		}
		if _, ok := seen[p]; ok {
			return apperrors.BadRequest(apperrors.CodeValidationFailed,
				fmt.Sprintf("duplicate social platform %q", p))
		}
		seen[p] = struct{}{}
	}
	return nil
}

// socialCountAfter computes the socials set size after removing the given
// platforms and applying the additions (adds replace same-platform links,
// so they never double-count).
func socialCountAfter(current []domain.SocialLink, adds []domain.SocialLink, removePlatforms []string) int {
	dropped := make(map[string]struct{}, len(removePlatforms)+len(adds))
	for _, p := range removePlatforms {
		dropped[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, s := range adds {
		dropped[strings.ToLower(strings.TrimSpace(s.Platform))] = struct{}{}
	}
	n := 0
	for _, s := range current {
		if _, ok := dropped[strings.ToLower(s.Platform)]; !ok {
			n++
		}
	}
	return n + len(adds)
}

// normalizeCategories lowercases, dedupes, and validates categories against
// the fixed enum.
func normalizeCategories(cats []string) ([]string, error) {
	out := make([]string, 0, len(cats))
	seen := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !domain.ValidCategory(c) {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidCategory,
				fmt.Sprintf("unknown clan category %q", c))
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// dedupeIDs drops duplicates and empty strings, preserving order, and
// rejects malformed document ids.
func dedupeIDs(param string, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if !domain.ValidID(id) {
			return nil, apperrors.ErrInvalidID(param)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
