package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"football-data-cache/pkg/models"
)

// APIFootball talks to an api-sports.io style football API. It is the
// primary provider: richest data, but a very small monthly quota on the
// free tier, which is why everything above it caches so aggressively.
type APIFootball struct {
	httpClient  *http.Client
	logger      *zap.Logger
	apiKey      string
	baseURL     string
	season      int
	mainLeagues []int
}

// NewAPIFootball creates the provider. An empty apiKey leaves it
// unconfigured; the client will skip it.
func NewAPIFootball(apiKey, baseURL string, season int, mainLeagues []int, logger *zap.Logger) *APIFootball {
	if baseURL == "" {
		baseURL = "https://v3.football.api-sports.io"
	}
	return &APIFootball{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		apiKey:      apiKey,
		baseURL:     baseURL,
		season:      season,
		mainLeagues: mainLeagues,
	}
}

// Name identifies this provider in status surfaces and logs
func (c *APIFootball) Name() string { return "api-football" }

// Configured reports whether an API key is present
func (c *APIFootball) Configured() bool { return c.apiKey != "" }

// api-football wraps every payload in a "response" envelope
type afFixtureEnvelope struct {
	Response []afFixture `json:"response"`
}

type afFixture struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Elapsed int    `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League afLeague `json:"league"`
	Teams  struct {
		Home afTeam `json:"home"`
		Away afTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type afLeague struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  int    `json:"season"`
	Logo    string `json:"logo"`
}

type afTeam struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
	Founded int    `json:"founded"`
}

type afStandingsEnvelope struct {
	Response []struct {
		League struct {
			afLeague
			Standings [][]afStandingRow `json:"standings"`
		} `json:"league"`
	} `json:"response"`
}

type afStandingRow struct {
	Rank   int    `json:"rank"`
	Team   afTeam `json:"team"`
	Points int    `json:"points"`
	Form   string `json:"form"`
	All    struct {
		Played int `json:"played"`
		Win    int `json:"win"`
		Draw   int `json:"draw"`
		Lose   int `json:"lose"`
		Goals  struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}

type afPlayersEnvelope struct {
	Response []struct {
		Player struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Age         int    `json:"age"`
			Nationality string `json:"nationality"`
			Photo       string `json:"photo"`
		} `json:"player"`
		Statistics []struct {
			Team  afTeam `json:"team"`
			Games struct {
				Position string `json:"position"`
			} `json:"games"`
		} `json:"statistics"`
	} `json:"response"`
}

type afTeamsEnvelope struct {
	Response []struct {
		Team afTeam `json:"team"`
	} `json:"response"`
}

type afLeaguesEnvelope struct {
	Response []struct {
		League  afLeague `json:"league"`
		Country struct {
			Name string `json:"name"`
		} `json:"country"`
	} `json:"response"`
}

// LiveMatches fetches all fixtures currently in play
func (c *APIFootball) LiveMatches(ctx context.Context) ([]models.Match, error) {
	var env afFixtureEnvelope
	if err := c.getJSON(ctx, "/fixtures", url.Values{"live": {"all"}}, &env); err != nil {
		return nil, err
	}
	return c.mapFixtures(env.Response), nil
}

// MatchesByDate fetches all fixtures on a YYYY-MM-DD date
func (c *APIFootball) MatchesByDate(ctx context.Context, date string) ([]models.Match, error) {
	var env afFixtureEnvelope
	if err := c.getJSON(ctx, "/fixtures", url.Values{"date": {date}}, &env); err != nil {
		return nil, err
	}
	return c.mapFixtures(env.Response), nil
}

// MatchesByLeague fetches a league's fixtures for a season
func (c *APIFootball) MatchesByLeague(ctx context.Context, leagueID, season int) ([]models.Match, error) {
	var env afFixtureEnvelope
	q := url.Values{
		"league": {fmt.Sprint(leagueID)},
		"season": {fmt.Sprint(season)},
	}
	if err := c.getJSON(ctx, "/fixtures", q, &env); err != nil {
		return nil, err
	}
	return c.mapFixtures(env.Response), nil
}

// Standings fetches a league table
func (c *APIFootball) Standings(ctx context.Context, leagueID, season int) (*models.LeagueStandings, error) {
	var env afStandingsEnvelope
	q := url.Values{
		"league": {fmt.Sprint(leagueID)},
		"season": {fmt.Sprint(season)},
	}
	if err := c.getJSON(ctx, "/standings", q, &env); err != nil {
		return nil, err
	}
	if len(env.Response) == 0 || len(env.Response[0].League.Standings) == 0 {
		return nil, fmt.Errorf("empty standings response for league %d", leagueID)
	}

	lg := env.Response[0].League
	out := &models.LeagueStandings{
		League: models.League{
			ID:      lg.ID,
			Name:    lg.Name,
			Country: lg.Country,
			Season:  lg.Season,
			Logo:    lg.Logo,
		},
	}
	for _, row := range lg.Standings[0] {
		out.Table = append(out.Table, models.Standing{
			Rank:         row.Rank,
			Team:         mapTeam(row.Team),
			Played:       row.All.Played,
			Won:          row.All.Win,
			Drawn:        row.All.Draw,
			Lost:         row.All.Lose,
			GoalsFor:     row.All.Goals.For,
			GoalsAgainst: row.All.Goals.Against,
			Points:       row.Points,
			Form:         row.Form,
		})
	}
	return out, nil
}

// Players fetches top scorers across the configured main leagues. One call
// per league, merged into a single list that search filters client-side.
func (c *APIFootball) Players(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	for _, leagueID := range c.mainLeagues {
		var env afPlayersEnvelope
		q := url.Values{
			"league": {fmt.Sprint(leagueID)},
			"season": {fmt.Sprint(c.season)},
		}
		if err := c.getJSON(ctx, "/players/topscorers", q, &env); err != nil {
			return nil, err
		}
		for _, item := range env.Response {
			p := models.Player{
				ID:          item.Player.ID,
				Name:        item.Player.Name,
				Age:         item.Player.Age,
				Nationality: item.Player.Nationality,
				Photo:       item.Player.Photo,
			}
			if len(item.Statistics) > 0 {
				p.Team = item.Statistics[0].Team.Name
				p.Position = item.Statistics[0].Games.Position
			}
			players = append(players, p)
		}
	}
	return players, nil
}

// Teams fetches the clubs of the configured main leagues
func (c *APIFootball) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	for _, leagueID := range c.mainLeagues {
		var env afTeamsEnvelope
		q := url.Values{
			"league": {fmt.Sprint(leagueID)},
			"season": {fmt.Sprint(c.season)},
		}
		if err := c.getJSON(ctx, "/teams", q, &env); err != nil {
			return nil, err
		}
		for _, item := range env.Response {
			teams = append(teams, mapTeam(item.Team))
		}
	}
	return teams, nil
}

// Leagues fetches the full competition list
func (c *APIFootball) Leagues(ctx context.Context) ([]models.League, error) {
	var env afLeaguesEnvelope
	if err := c.getJSON(ctx, "/leagues", url.Values{}, &env); err != nil {
		return nil, err
	}
	leagues := make([]models.League, 0, len(env.Response))
	for _, item := range env.Response {
		leagues = append(leagues, models.League{
			ID:      item.League.ID,
			Name:    item.League.Name,
			Country: item.Country.Name,
			Logo:    item.League.Logo,
		})
	}
	return leagues, nil
}

func (c *APIFootball) mapFixtures(fixtures []afFixture) []models.Match {
	matches := make([]models.Match, 0, len(fixtures))
	for _, f := range fixtures {
		m := models.Match{
			ID: f.Fixture.ID,
			League: models.League{
				ID:      f.League.ID,
				Name:    f.League.Name,
				Country: f.League.Country,
				Season:  f.League.Season,
				Logo:    f.League.Logo,
			},
			HomeTeam: mapTeam(f.Teams.Home),
			AwayTeam: mapTeam(f.Teams.Away),
			Status:   f.Fixture.Status.Short,
			Minute:   f.Fixture.Status.Elapsed,
		}
		if f.Goals.Home != nil {
			m.HomeGoals = *f.Goals.Home
		}
		if f.Goals.Away != nil {
			m.AwayGoals = *f.Goals.Away
		}
		if kickOff, err := time.Parse(time.RFC3339, f.Fixture.Date); err == nil {
			m.KickOff = kickOff
		}
		matches = append(matches, m)
	}
	return matches
}

func mapTeam(t afTeam) models.Team {
	return models.Team{
		ID:      t.ID,
		Name:    t.Name,
		Country: t.Country,
		Logo:    t.Logo,
		Founded: t.Founded,
	}
}

// getJSON performs one GET against the upstream and decodes the envelope.
// HTTP 429 maps to ErrRateLimited so the client benches this provider
// instead of marking it failed.
func (c *APIFootball) getJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api-football request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading api-football response: %w", err)
		}
		if err := json.Unmarshal(body, target); err != nil {
			c.logger.Warn("malformed api-football response",
				zap.String("path", path),
				zap.Int("length", len(body)),
				zap.Error(err))
			return fmt.Errorf("decoding api-football response: %w", err)
		}
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("api-football quota exhausted: %w", ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("api-football rejected credentials (status %d)", resp.StatusCode)
	default:
		return fmt.Errorf("api-football request failed with status %d", resp.StatusCode)
	}
}
