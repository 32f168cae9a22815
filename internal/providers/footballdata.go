package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"football-data-cache/pkg/models"
)

// competitionIDs maps the league IDs the rest of the system speaks
// (api-football numbering) onto football-data.org competition IDs. Leagues
// without a mapping are simply not served by this provider.
var competitionIDs = map[int]int{
	39:  2021, // Premier League
	140: 2014, // La Liga
	135: 2019, // Serie A
	78:  2002, // Bundesliga
	61:  2015, // Ligue 1
}

// FootballData talks to a football-data.org style API. It is the fallback
// provider: coarser data (no live minute, fewer fields), but an independent
// quota, which is the whole point of having it second in line.
type FootballData struct {
	httpClient  *http.Client
	logger      *zap.Logger
	apiKey      string
	baseURL     string
	season      int
	mainLeagues []int
}

// NewFootballData creates the provider. An empty apiKey leaves it
// unconfigured; the client will skip it.
func NewFootballData(apiKey, baseURL string, season int, mainLeagues []int, logger *zap.Logger) *FootballData {
	if baseURL == "" {
		baseURL = "https://api.football-data.org"
	}
	return &FootballData{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		apiKey:      apiKey,
		baseURL:     baseURL,
		season:      season,
		mainLeagues: mainLeagues,
	}
}

// Name identifies this provider in status surfaces and logs
func (c *FootballData) Name() string { return "football-data" }

// Configured reports whether an API token is present
func (c *FootballData) Configured() bool { return c.apiKey != "" }

type fdMatchesEnvelope struct {
	Matches []fdMatch `json:"matches"`
}

type fdMatch struct {
	ID          int    `json:"id"`
	UTCDate     string `json:"utcDate"`
	Status      string `json:"status"`
	Competition struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Area struct {
			Name string `json:"name"`
		} `json:"area"`
	} `json:"competition"`
	HomeTeam fdTeam `json:"homeTeam"`
	AwayTeam fdTeam `json:"awayTeam"`
	Score    struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

type fdTeam struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Crest   string `json:"crest"`
	Founded int    `json:"founded"`
}

type fdStandingsEnvelope struct {
	Competition struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Area struct {
			Name string `json:"name"`
		} `json:"area"`
	} `json:"competition"`
	Standings []struct {
		Type  string `json:"type"`
		Table []struct {
			Position     int    `json:"position"`
			Team         fdTeam `json:"team"`
			PlayedGames  int    `json:"playedGames"`
			Won          int    `json:"won"`
			Draw         int    `json:"draw"`
			Lost         int    `json:"lost"`
			GoalsFor     int    `json:"goalsFor"`
			GoalsAgainst int    `json:"goalsAgainst"`
			Points       int    `json:"points"`
			Form         string `json:"form"`
		} `json:"table"`
	} `json:"standings"`
}

type fdCompetitionsEnvelope struct {
	Competitions []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Area struct {
			Name string `json:"name"`
		} `json:"area"`
		Emblem string `json:"emblem"`
	} `json:"competitions"`
}

type fdScorersEnvelope struct {
	Scorers []struct {
		Player struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Nationality string `json:"nationality"`
			Position    string `json:"position"`
		} `json:"player"`
		Team fdTeam `json:"team"`
	} `json:"scorers"`
}

type fdTeamsEnvelope struct {
	Teams []struct {
		fdTeam
		Area struct {
			Name string `json:"name"`
		} `json:"area"`
	} `json:"teams"`
}

// LiveMatches fetches matches currently in play
func (c *FootballData) LiveMatches(ctx context.Context) ([]models.Match, error) {
	var env fdMatchesEnvelope
	if err := c.getJSON(ctx, "/v4/matches?status=LIVE", &env); err != nil {
		return nil, err
	}
	return c.mapMatches(env.Matches), nil
}

// MatchesByDate fetches matches on a YYYY-MM-DD date
func (c *FootballData) MatchesByDate(ctx context.Context, date string) ([]models.Match, error) {
	var env fdMatchesEnvelope
	path := fmt.Sprintf("/v4/matches?dateFrom=%s&dateTo=%s", date, date)
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	return c.mapMatches(env.Matches), nil
}

// MatchesByLeague fetches a league's matches for a season
func (c *FootballData) MatchesByLeague(ctx context.Context, leagueID, season int) ([]models.Match, error) {
	compID, ok := competitionIDs[leagueID]
	if !ok {
		return nil, fmt.Errorf("league %d not covered by football-data", leagueID)
	}
	var env fdMatchesEnvelope
	path := fmt.Sprintf("/v4/competitions/%d/matches?season=%d", compID, season)
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	return c.mapMatches(env.Matches), nil
}

// Standings fetches a league table
func (c *FootballData) Standings(ctx context.Context, leagueID, season int) (*models.LeagueStandings, error) {
	compID, ok := competitionIDs[leagueID]
	if !ok {
		return nil, fmt.Errorf("league %d not covered by football-data", leagueID)
	}
	var env fdStandingsEnvelope
	path := fmt.Sprintf("/v4/competitions/%d/standings?season=%d", compID, season)
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, err
	}

	out := &models.LeagueStandings{
		League: models.League{
			ID:      leagueID,
			Name:    env.Competition.Name,
			Country: env.Competition.Area.Name,
			Season:  season,
		},
	}
	for _, standings := range env.Standings {
		if standings.Type != "TOTAL" {
			continue
		}
		for _, row := range standings.Table {
			out.Table = append(out.Table, models.Standing{
				Rank:         row.Position,
				Team:         mapFDTeam(row.Team),
				Played:       row.PlayedGames,
				Won:          row.Won,
				Drawn:        row.Draw,
				Lost:         row.Lost,
				GoalsFor:     row.GoalsFor,
				GoalsAgainst: row.GoalsAgainst,
				Points:       row.Points,
				Form:         row.Form,
			})
		}
		break
	}
	if len(out.Table) == 0 {
		return nil, fmt.Errorf("empty standings response for league %d", leagueID)
	}
	return out, nil
}

// Players fetches top scorers across the mapped main leagues
func (c *FootballData) Players(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	for _, leagueID := range c.mainLeagues {
		compID, ok := competitionIDs[leagueID]
		if !ok {
			continue
		}
		var env fdScorersEnvelope
		path := fmt.Sprintf("/v4/competitions/%d/scorers", compID)
		if err := c.getJSON(ctx, path, &env); err != nil {
			return nil, err
		}
		for _, item := range env.Scorers {
			players = append(players, models.Player{
				ID:          item.Player.ID,
				Name:        item.Player.Name,
				Team:        item.Team.Name,
				Position:    item.Player.Position,
				Nationality: item.Player.Nationality,
			})
		}
	}
	return players, nil
}

// Teams fetches the clubs of the mapped main leagues
func (c *FootballData) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	for _, leagueID := range c.mainLeagues {
		compID, ok := competitionIDs[leagueID]
		if !ok {
			continue
		}
		var env fdTeamsEnvelope
		path := fmt.Sprintf("/v4/competitions/%d/teams", compID)
		if err := c.getJSON(ctx, path, &env); err != nil {
			return nil, err
		}
		for _, item := range env.Teams {
			team := mapFDTeam(item.fdTeam)
			team.Country = item.Area.Name
			teams = append(teams, team)
		}
	}
	return teams, nil
}

// Leagues fetches the competition list
func (c *FootballData) Leagues(ctx context.Context) ([]models.League, error) {
	var env fdCompetitionsEnvelope
	if err := c.getJSON(ctx, "/v4/competitions", &env); err != nil {
		return nil, err
	}
	leagues := make([]models.League, 0, len(env.Competitions))
	for _, comp := range env.Competitions {
		leagues = append(leagues, models.League{
			ID:      comp.ID,
			Name:    comp.Name,
			Country: comp.Area.Name,
			Logo:    comp.Emblem,
		})
	}
	return leagues, nil
}

func (c *FootballData) mapMatches(in []fdMatch) []models.Match {
	matches := make([]models.Match, 0, len(in))
	for _, fm := range in {
		m := models.Match{
			ID: fm.ID,
			League: models.League{
				ID:      fm.Competition.ID,
				Name:    fm.Competition.Name,
				Country: fm.Competition.Area.Name,
			},
			HomeTeam: mapFDTeam(fm.HomeTeam),
			AwayTeam: mapFDTeam(fm.AwayTeam),
			Status:   fm.Status,
		}
		if fm.Score.FullTime.Home != nil {
			m.HomeGoals = *fm.Score.FullTime.Home
		}
		if fm.Score.FullTime.Away != nil {
			m.AwayGoals = *fm.Score.FullTime.Away
		}
		if kickOff, err := time.Parse(time.RFC3339, fm.UTCDate); err == nil {
			m.KickOff = kickOff
		}
		matches = append(matches, m)
	}
	return matches
}

func mapFDTeam(t fdTeam) models.Team {
	return models.Team{
		ID:      t.ID,
		Name:    t.Name,
		Logo:    t.Crest,
		Founded: t.Founded,
	}
}

func (c *FootballData) getJSON(ctx context.Context, path string, target interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("football-data request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading football-data response: %w", err)
		}
		if err := json.Unmarshal(body, target); err != nil {
			c.logger.Warn("malformed football-data response",
				zap.String("path", path),
				zap.Int("length", len(body)),
				zap.Error(err))
			return fmt.Errorf("decoding football-data response: %w", err)
		}
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("football-data quota exhausted: %w", ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("football-data rejected credentials (status %d)", resp.StatusCode)
	default:
		return fmt.Errorf("football-data request failed with status %d", resp.StatusCode)
	}
}
