package analytics

import (
	"github.com/pitchside/cricket-insights/internal/models"
)

// MatchupEdges splits the head-to-head entries matching the spec into
// batter-favorable and bowler-favorable lists, each capped at limit.
// Entries keep dataset order, which is stable across loads, so the same
// selection always yields the same extracts. Neutral entries appear in
// neither list.
func MatchupEdges(advantages []models.MatchupAdvantage, spec models.FilterSpec, limit int) (favorable, challenging []models.MatchupAdvantage) {
	for _, adv := range advantages {
		if !spec.MatchesAdvantage(adv) {
			continue
		}
		switch adv.Advantage {
		case models.AdvantageBatter:
			if limit <= 0 || len(favorable) < limit {
				favorable = append(favorable, adv)
			}
		case models.AdvantageBowler:
			if limit <= 0 || len(challenging) < limit {
				challenging = append(challenging, adv)
			}
		}
	}
	return favorable, challenging
}
