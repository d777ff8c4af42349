package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/models"
)

// ErrDataLoad marks a fatal dataset load failure: the dataset is unusable
// and the process cannot serve analytics.
var ErrDataLoad = errors.New("dataset load failed")

// Dataset is one immutable snapshot of the cricket analytics data. It is
// constructed once per load and replaced wholesale on reload, never
// mutated in place.
type Dataset struct {
	Records     models.FilteredView
	Advantages  []models.MatchupAdvantage
	Notes       []models.SWOTNote
	Fingerprint string
	LoadedAt    time.Time
	Dropped     int
}

// rawFile mirrors the top level of the analytics JSON document: a
// matchups map plus free-form root entries, some of which are narrative
// SWOT notes.
type rawFile map[string]json.RawMessage

type rawMatchup struct {
	Type     string            `json:"type"`
	Data     []json.RawMessage `json:"data"`
	Players  []json.RawMessage `json:"players"`
	Matchups []json.RawMessage `json:"matchups"`
}

type rawNote struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// flexFloat accepts either a JSON number or a numeric string; anything
// else fails the record's validation.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	*f = flexFloat(v)
	return nil
}

type rawRecord struct {
	Player      string    `json:"Player"`
	Span        string    `json:"Span"`
	Runs        flexFloat `json:"Runs"`
	BallsFaced  flexFloat `json:"BF"`
	StrikeRate  flexFloat `json:"SR"`
	Wickets     flexFloat `json:"Wks"`
	RunRate     flexFloat `json:"RR"`
	DotPct      flexFloat `json:"Dot%"`
	Dots        flexFloat `json:"Dots"`
	AvgSpeedKph flexFloat `json:"Ave kph"`
	BowlType    string    `json:"BowlType"`
}

// rawPlayer is a batting entry from a matchup's players array. The
// document uses lowercase keys here, unlike the data array.
type rawPlayer struct {
	Player     string    `json:"player"`
	Span       string    `json:"span"`
	Runs       flexFloat `json:"runs"`
	BallsFaced flexFloat `json:"bf"`
	StrikeRate flexFloat `json:"sr"`
	Wickets    flexFloat `json:"wks"`
	Technique  string    `json:"technique"`
}

// rawAdvantage is a batter-versus-bowler head-to-head entry.
type rawAdvantage struct {
	Batsman    string    `json:"batsman"`
	Bowler     string    `json:"bowler"`
	Runs       flexFloat `json:"runs"`
	Balls      flexFloat `json:"bf"`
	StrikeRate flexFloat `json:"sr"`
	Wickets    flexFloat `json:"wks"`
	Advantage  string    `json:"advantage"`
}

// Load reads and validates the analytics JSON at path. Records failing
// validation are dropped and counted; the load fails entirely when the
// invalid fraction exceeds maxInvalidFraction, protecting downstream
// stats from being computed over garbage data.
func Load(path string, maxInvalidFraction float64, log *logrus.Logger) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDataLoad, path, err)
	}
	return Parse(raw, maxInvalidFraction, log)
}

// Parse builds a Dataset from the raw JSON document.
func Parse(raw []byte, maxInvalidFraction float64, log *logrus.Logger) (*Dataset, error) {
	var file rawFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON document: %v", ErrDataLoad, err)
	}

	matchupsRaw, ok := file["matchups"]
	if !ok {
		return nil, fmt.Errorf("%w: document has no matchups section", ErrDataLoad)
	}

	var matchups map[string]rawMatchup
	if err := json.Unmarshal(matchupsRaw, &matchups); err != nil {
		return nil, fmt.Errorf("%w: invalid matchups section: %v", ErrDataLoad, err)
	}

	ds := &Dataset{LoadedAt: time.Now()}
	total := 0

	// Sort keys so record order, and therefore the fingerprint, is stable
	// across loads of identical content.
	keys := make([]string, 0, len(matchups))
	for k := range matchups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	drop := func(key, reason string) {
		ds.Dropped++
		if log != nil {
			log.WithFields(logrus.Fields{
				"matchup": key,
				"reason":  reason,
			}).Debug("Dropped invalid record")
		}
	}

	for _, key := range keys {
		info := matchups[key]
		team, opposition, phase := parseMatchupKey(key)
		for _, rawRec := range info.Data {
			total++
			rec, err := decodeRecord(rawRec, team, opposition, phase, info.Type)
			if err != nil {
				drop(key, err.Error())
				continue
			}
			ds.Records = append(ds.Records, rec)
		}
		for _, rawPl := range info.Players {
			total++
			rec, err := decodePlayer(rawPl, team, opposition, phase, info.Type)
			if err != nil {
				drop(key, err.Error())
				continue
			}
			ds.Records = append(ds.Records, rec)
		}
		for _, rawAdv := range info.Matchups {
			total++
			adv, err := decodeAdvantage(rawAdv, team, opposition, phase, info.Type)
			if err != nil {
				drop(key, err.Error())
				continue
			}
			ds.Advantages = append(ds.Advantages, adv)
		}
	}

	if total > 0 && float64(ds.Dropped)/float64(total) > maxInvalidFraction {
		return nil, fmt.Errorf("%w: %d of %d records failed validation", ErrDataLoad, ds.Dropped, total)
	}
	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("%w: no valid records in dataset", ErrDataLoad)
	}

	ds.Notes = parseNotes(file)
	ds.Fingerprint = fingerprint(ds.Records, ds.Advantages)

	if log != nil {
		log.WithFields(logrus.Fields{
			"records":     len(ds.Records),
			"advantages":  len(ds.Advantages),
			"dropped":     ds.Dropped,
			"notes":       len(ds.Notes),
			"fingerprint": ds.Fingerprint[:12],
		}).Info("Loaded cricket analytics dataset")
	}
	return ds, nil
}

// decodeRecord validates and flattens one matchup record. A record is
// invalid when its player identifier is missing, a numeric field does not
// parse, or a count is negative.
func decodeRecord(raw json.RawMessage, team, opposition, phase, matchupType string) (models.Record, error) {
	var rr rawRecord
	if err := json.Unmarshal(raw, &rr); err != nil {
		return models.Record{}, fmt.Errorf("malformed record: %w", err)
	}
	if strings.TrimSpace(rr.Player) == "" {
		return models.Record{}, errors.New("missing player identifier")
	}
	if rr.Runs < 0 || rr.BallsFaced < 0 || rr.Wickets < 0 || rr.Dots < 0 {
		return models.Record{}, errors.New("negative count field")
	}
	if rr.StrikeRate < 0 || rr.RunRate < 0 || rr.DotPct < 0 || rr.DotPct > 100 {
		return models.Record{}, errors.New("rate field out of range")
	}

	spanStart, spanEnd, err := parseSpan(rr.Span)
	if err != nil {
		return models.Record{}, err
	}

	dots := int(rr.Dots)
	if dots == 0 && rr.DotPct > 0 {
		dots = int(math.Round(float64(rr.DotPct) / 100 * float64(rr.BallsFaced)))
	}

	return models.Record{
		Player:      strings.TrimSpace(rr.Player),
		Team:        team,
		Opposition:  opposition,
		Phase:       phase,
		MatchupType: matchupType,
		SpanStart:   spanStart,
		SpanEnd:     spanEnd,
		Runs:        int(rr.Runs),
		BallsFaced:  int(rr.BallsFaced),
		StrikeRate:  float64(rr.StrikeRate),
		Wickets:     int(rr.Wickets),
		EconomyRate: float64(rr.RunRate),
		DotBalls:    dots,
		AvgSpeedKph: float64(rr.AvgSpeedKph),
		StyleTag:    rr.BowlType,
	}, nil
}

// decodePlayer validates and flattens one batting entry from a matchup's
// players array. The same rules as decodeRecord apply; the technique tag
// takes the style slot that bowling records fill with BowlType.
func decodePlayer(raw json.RawMessage, team, opposition, phase, matchupType string) (models.Record, error) {
	var rp rawPlayer
	if err := json.Unmarshal(raw, &rp); err != nil {
		return models.Record{}, fmt.Errorf("malformed player entry: %w", err)
	}
	if strings.TrimSpace(rp.Player) == "" {
		return models.Record{}, errors.New("missing player identifier")
	}
	if rp.Runs < 0 || rp.BallsFaced < 0 || rp.Wickets < 0 {
		return models.Record{}, errors.New("negative count field")
	}
	if rp.StrikeRate < 0 {
		return models.Record{}, errors.New("rate field out of range")
	}

	spanStart, spanEnd, err := parseSpan(rp.Span)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		Player:      strings.TrimSpace(rp.Player),
		Team:        team,
		Opposition:  opposition,
		Phase:       phase,
		MatchupType: matchupType,
		SpanStart:   spanStart,
		SpanEnd:     spanEnd,
		Runs:        int(rp.Runs),
		BallsFaced:  int(rp.BallsFaced),
		StrikeRate:  float64(rp.StrikeRate),
		Wickets:     int(rp.Wickets),
		StyleTag:    rp.Technique,
	}, nil
}

// decodeAdvantage validates one head-to-head entry. Both names are
// required; an unrecognized or absent advantage field reads as neutral.
func decodeAdvantage(raw json.RawMessage, team, opposition, phase, matchupType string) (models.MatchupAdvantage, error) {
	var ra rawAdvantage
	if err := json.Unmarshal(raw, &ra); err != nil {
		return models.MatchupAdvantage{}, fmt.Errorf("malformed matchup entry: %w", err)
	}
	if strings.TrimSpace(ra.Batsman) == "" || strings.TrimSpace(ra.Bowler) == "" {
		return models.MatchupAdvantage{}, errors.New("missing batter or bowler identifier")
	}
	if ra.Runs < 0 || ra.Balls < 0 || ra.Wickets < 0 || ra.StrikeRate < 0 {
		return models.MatchupAdvantage{}, errors.New("negative matchup field")
	}

	advantage := strings.ToLower(strings.TrimSpace(ra.Advantage))
	switch advantage {
	case models.AdvantageBatter, models.AdvantageBowler:
	default:
		advantage = models.AdvantageNeutral
	}

	return models.MatchupAdvantage{
		Batter:      strings.TrimSpace(ra.Batsman),
		Bowler:      strings.TrimSpace(ra.Bowler),
		Team:        team,
		Opposition:  opposition,
		Phase:       phase,
		MatchupType: matchupType,
		Runs:        int(ra.Runs),
		Balls:       int(ra.Balls),
		StrikeRate:  float64(ra.StrikeRate),
		Wickets:     int(ra.Wickets),
		Advantage:   advantage,
	}, nil
}

// parseMatchupKey splits keys of the form "GG_PP", "GG_Post_PP" or
// "GG_vs_MIE_Post_PP" into team, opposition and phase.
func parseMatchupKey(key string) (team, opposition, phase string) {
	parts := strings.Split(key, "_")
	if len(parts) == 0 {
		return "", "", ""
	}
	team = parts[0]
	rest := parts[1:]
	if len(rest) >= 2 && strings.EqualFold(rest[0], "vs") {
		opposition = rest[1]
		rest = rest[2:]
	}
	phase = strings.Join(rest, "_")
	return team, opposition, phase
}

// parseSpan handles "2024-2025", single years, and absent spans (which
// leave the record without year information).
func parseSpan(span string) (int, int, error) {
	span = strings.TrimSpace(span)
	if span == "" {
		return 0, 0, nil
	}
	if start, end, ok := strings.Cut(span, "-"); ok {
		s, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid span %q", span)
		}
		e, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil || e < s {
			return 0, 0, fmt.Errorf("invalid span %q", span)
		}
		return s, e, nil
	}
	y, err := strconv.Atoi(span)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid span %q", span)
	}
	return y, y, nil
}

// parseNotes extracts the narrative SWOT entries that live at the
// document root alongside the matchups section.
func parseNotes(file rawFile) []models.SWOTNote {
	var notes []models.SWOTNote
	keys := make([]string, 0, len(file))
	for k := range file {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "teams" || key == "matchups" {
			continue
		}
		var n rawNote
		if err := json.Unmarshal(file[key], &n); err != nil || n.Type == "" {
			continue
		}
		notes = append(notes, models.SWOTNote{
			Category:    key,
			Type:        n.Type,
			Description: n.Description,
			Text:        n.Text,
		})
	}
	return notes
}

// fingerprint hashes the canonical serialized records and head-to-head
// entries; identical content always produces the same value, making it
// usable as a cache-key component.
func fingerprint(records models.FilteredView, advantages []models.MatchupAdvantage) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, r := range records {
		// Encode never fails for these field types.
		_ = enc.Encode(r)
	}
	for _, a := range advantages {
		_ = enc.Encode(a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

