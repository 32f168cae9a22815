package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"football-data-cache/internal/analysis"
	"football-data-cache/internal/client"
	"football-data-cache/pkg/models"
)

// regionCountries groups provider country names into coarse regions for
// team browsing. Unknown regions match nothing.
var regionCountries = map[string][]string{
	"europe":        {"England", "Spain", "Italy", "Germany", "France", "Portugal", "Netherlands"},
	"south-america": {"Brazil", "Argentina", "Uruguay", "Colombia", "Chile"},
	"north-america": {"USA", "Mexico", "Canada"},
	"asia":          {"Japan", "South Korea", "Saudi Arabia", "China"},
}

// GameService is the aggregation layer between HTTP handlers, the scheduler
// and the failover client. Every public method catches internally and
// returns an empty or degraded result instead of propagating errors, so
// callers always get a renderable value.
type GameService struct {
	client   *client.Client
	analyses *analysis.Repository
	logger   *zap.Logger
}

func New(c *client.Client, analyses *analysis.Repository, logger *zap.Logger) *GameService {
	return &GameService{
		client:   c,
		analyses: analyses,
		logger:   logger,
	}
}

// GetLiveGames returns currently running matches. A degraded fetch still
// yields a renderable list, tagged with where the data came from.
func (s *GameService) GetLiveGames(ctx context.Context) models.MatchList {
	matches, src, err := s.client.LiveMatches(ctx)
	if err != nil {
		s.logger.Warn("live games degraded", zap.String("source", string(src)), zap.Error(err))
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return models.MatchList{Matches: matches, Source: src}
}

// SearchPlayers filters the full player list by a case-insensitive
// substring match on name, team and nationality
func (s *GameService) SearchPlayers(ctx context.Context, term string) models.PlayerList {
	players, src, err := s.client.Players(ctx)
	if err != nil {
		s.logger.Warn("player search degraded", zap.String("term", term), zap.Error(err))
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	matched := make([]models.Player, 0, len(players))
	for _, p := range players {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Team), needle) ||
			strings.Contains(strings.ToLower(p.Nationality), needle) {
			matched = append(matched, p)
		}
	}
	return models.PlayerList{Players: matched, Source: src}
}

// SearchTeams filters the full team list by name or country substring
func (s *GameService) SearchTeams(ctx context.Context, term string) models.TeamList {
	teams, src, err := s.client.Teams(ctx)
	if err != nil {
		s.logger.Warn("team search degraded", zap.String("term", term), zap.Error(err))
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	matched := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if needle == "" ||
			strings.Contains(strings.ToLower(t.Name), needle) ||
			strings.Contains(strings.ToLower(t.Country), needle) {
			matched = append(matched, t)
		}
	}
	return models.TeamList{Teams: matched, Source: src}
}

// SearchLeagues filters the league list by name or country substring
func (s *GameService) SearchLeagues(ctx context.Context, term string) models.LeagueList {
	leagues, src, err := s.client.Leagues(ctx)
	if err != nil {
		s.logger.Warn("league search degraded", zap.String("term", term), zap.Error(err))
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	matched := make([]models.League, 0, len(leagues))
	for _, l := range leagues {
		if needle == "" ||
			strings.Contains(strings.ToLower(l.Name), needle) ||
			strings.Contains(strings.ToLower(l.Country), needle) {
			matched = append(matched, l)
		}
	}
	return models.LeagueList{Leagues: matched, Source: src}
}

// SearchByCountry returns the leagues played in a given country
func (s *GameService) SearchByCountry(ctx context.Context, country string) models.LeagueList {
	leagues, src, err := s.client.Leagues(ctx)
	if err != nil {
		s.logger.Warn("country search degraded", zap.String("country", country), zap.Error(err))
	}
	needle := strings.ToLower(strings.TrimSpace(country))
	matched := make([]models.League, 0, len(leagues))
	for _, l := range leagues {
		if strings.ToLower(l.Country) == needle {
			matched = append(matched, l)
		}
	}
	return models.LeagueList{Leagues: matched, Source: src}
}

// SearchTeamsByRegion returns teams whose country belongs to a region
func (s *GameService) SearchTeamsByRegion(ctx context.Context, region string) models.TeamList {
	countries, ok := regionCountries[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		s.logger.Warn("unknown region", zap.String("region", region))
		return models.TeamList{Teams: []models.Team{}, Source: models.SourceCached}
	}
	teams, src, err := s.client.Teams(ctx)
	if err != nil {
		s.logger.Warn("region search degraded", zap.String("region", region), zap.Error(err))
	}
	wanted := make(map[string]bool, len(countries))
	for _, c := range countries {
		wanted[strings.ToLower(c)] = true
	}
	matched := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if wanted[strings.ToLower(t.Country)] {
			matched = append(matched, t)
		}
	}
	return models.TeamList{Teams: matched, Source: src}
}

// GetStandings returns the table for one league, empty table on failure
func (s *GameService) GetStandings(ctx context.Context, leagueID int) models.LeagueStandings {
	standings, src, err := s.client.Standings(ctx, leagueID)
	if err != nil {
		s.logger.Warn("standings degraded", zap.Int("league_id", leagueID), zap.Error(err))
	}
	if standings == nil {
		return models.LeagueStandings{
			League: models.League{ID: leagueID},
			Table:  []models.Standing{},
			Source: src,
		}
	}
	standings.Source = src
	return *standings
}

// GetMainLeagues returns the tracked top competitions
func (s *GameService) GetMainLeagues(ctx context.Context) models.LeagueList {
	leagues, src, err := s.client.Leagues(ctx)
	if err != nil {
		s.logger.Warn("main leagues lookup degraded", zap.Error(err))
	}
	tracked := make(map[int]bool, len(s.client.MainLeagues()))
	for _, id := range s.client.MainLeagues() {
		tracked[id] = true
	}
	matched := make([]models.League, 0, len(tracked))
	for _, l := range leagues {
		if tracked[l.ID] {
			matched = append(matched, l)
		}
	}
	// A degraded dataset may not carry the tracked IDs; the full list still
	// beats an empty response
	if len(matched) == 0 {
		matched = leagues
	}
	if matched == nil {
		matched = []models.League{}
	}
	return models.LeagueList{Leagues: matched, Source: src}
}

// GetAvailableCountries lists the distinct countries across known leagues,
// sorted alphabetically
func (s *GameService) GetAvailableCountries(ctx context.Context) []string {
	leagues, _, err := s.client.Leagues(ctx)
	if err != nil {
		s.logger.Warn("country list degraded", zap.Error(err))
	}
	seen := make(map[string]bool)
	countries := make([]string, 0, len(leagues))
	for _, l := range leagues {
		if l.Country == "" || seen[l.Country] {
			continue
		}
		seen[l.Country] = true
		countries = append(countries, l.Country)
	}
	sort.Strings(countries)
	return countries
}

// SearchMatchesByDate returns fixtures for a YYYY-MM-DD date
func (s *GameService) SearchMatchesByDate(ctx context.Context, date string) models.MatchList {
	matches, src, err := s.client.MatchesByDate(ctx, date)
	if err != nil {
		s.logger.Warn("matches by date degraded", zap.String("date", date), zap.Error(err))
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return models.MatchList{Matches: matches, Source: src}
}

// SearchMatchesByLeague returns fixtures for one league and season
func (s *GameService) SearchMatchesByLeague(ctx context.Context, leagueID, season int) models.MatchList {
	matches, src, err := s.client.MatchesByLeague(ctx, leagueID, season)
	if err != nil {
		s.logger.Warn("matches by league degraded",
			zap.Int("league_id", leagueID),
			zap.Int("season", season),
			zap.Error(err))
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return models.MatchList{Matches: matches, Source: src}
}

// GlobalSearch fans the term out over players, teams and leagues
// concurrently. Each branch settles on its own; a failed branch is just
// an empty sub-result.
func (s *GameService) GlobalSearch(ctx context.Context, term string) models.GlobalSearchResult {
	var result models.GlobalSearchResult
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		result.Players = s.SearchPlayers(ctx, term)
	}()
	go func() {
		defer wg.Done()
		result.Teams = s.SearchTeams(ctx, term)
	}()
	go func() {
		defer wg.Done()
		result.Leagues = s.SearchLeagues(ctx, term)
	}()
	wg.Wait()
	result.TotalResults = len(result.Players.Players) + len(result.Teams.Teams) + len(result.Leagues.Leagues)
	return result
}

// GetAPIStatus reports provider health without touching the network
func (s *GameService) GetAPIStatus() models.APIStatus {
	return s.client.Status()
}

// ResetAPIFailures clears failed and rate-limit flags on every provider
func (s *GameService) ResetAPIFailures() {
	s.client.ResetFailures()
}

// GetCacheStatus reports per-dataset freshness
func (s *GameService) GetCacheStatus(ctx context.Context) map[string]bool {
	return s.client.CacheStatus(ctx)
}

// ForceUpdateCache refreshes every tracked dataset, bypassing freshness
// checks. Satisfies the scheduler's refresher contract.
func (s *GameService) ForceUpdateCache(ctx context.Context) models.RefreshReport {
	return s.client.ForceRefresh(ctx)
}

// ClearCache drops every cached dataset
func (s *GameService) ClearCache(ctx context.Context) error {
	return s.client.ClearCache(ctx)
}

// SaveGameAnalysis upserts a user's analysis of one fixture. Without a
// configured analysis database this is a logged no-op.
func (s *GameService) SaveGameAnalysis(userID string, match models.Match, data models.JSONMap) error {
	if s.analyses == nil {
		s.logger.Warn("analysis store not configured, discarding analysis",
			zap.String("user_id", userID),
			zap.Int("fixture_id", match.ID))
		return nil
	}
	a := &models.GameAnalysis{
		UserID:    userID,
		FixtureID: match.ID,
		HomeTeam:  match.HomeTeam.Name,
		AwayTeam:  match.AwayTeam.Name,
		League:    match.League.Name,
		MatchDate: match.KickOff,
		Data:      data,
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.analyses.Save(a)
}

// GetUserGameAnalyses lists a user's saved analyses, newest first
func (s *GameService) GetUserGameAnalyses(userID string) []models.GameAnalysis {
	if s.analyses == nil {
		return []models.GameAnalysis{}
	}
	analyses, err := s.analyses.ListByUser(userID)
	if err != nil {
		s.logger.Warn("listing analyses failed", zap.String("user_id", userID), zap.Error(err))
		return []models.GameAnalysis{}
	}
	return analyses
}

// GetGameAnalysis returns one saved analysis, nil if absent
func (s *GameService) GetGameAnalysis(userID string, fixtureID int) *models.GameAnalysis {
	if s.analyses == nil {
		return nil
	}
	a, err := s.analyses.Get(userID, fixtureID)
	if err != nil {
		s.logger.Warn("loading analysis failed",
			zap.String("user_id", userID),
			zap.Int("fixture_id", fixtureID),
			zap.Error(err))
		return nil
	}
	return a
}

// DeleteGameAnalysis removes one saved analysis
func (s *GameService) DeleteGameAnalysis(userID string, fixtureID int) error {
	if s.analyses == nil {
		return nil
	}
	return s.analyses.Delete(userID, fixtureID)
}
