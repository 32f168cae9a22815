package providers

import (
	"time"

	"football-data-cache/pkg/models"
)

// Static mock datasets served when every provider is unusable and no cache
// entry exists. The UI would rather render plausible placeholder data than
// nothing at all; results built from these are tagged SourceMock so nothing
// downstream mistakes them for the real thing.

var mockLeagues = []models.League{
	{ID: 39, Name: "Premier League", Country: "England"},
	{ID: 140, Name: "La Liga", Country: "Spain"},
	{ID: 135, Name: "Serie A", Country: "Italy"},
	{ID: 78, Name: "Bundesliga", Country: "Germany"},
	{ID: 61, Name: "Ligue 1", Country: "France"},
	{ID: 71, Name: "Série A", Country: "Brazil"},
}

var mockTeams = []models.Team{
	{ID: 33, Name: "Manchester United", Country: "England", Founded: 1878},
	{ID: 40, Name: "Liverpool", Country: "England", Founded: 1892},
	{ID: 50, Name: "Manchester City", Country: "England", Founded: 1880},
	{ID: 529, Name: "Barcelona", Country: "Spain", Founded: 1899},
	{ID: 541, Name: "Real Madrid", Country: "Spain", Founded: 1902},
	{ID: 496, Name: "Juventus", Country: "Italy", Founded: 1897},
	{ID: 157, Name: "Bayern München", Country: "Germany", Founded: 1900},
	{ID: 85, Name: "Paris Saint-Germain", Country: "France", Founded: 1970},
}

var mockPlayers = []models.Player{
	{ID: 874, Name: "Cristiano Ronaldo", Team: "Al-Nassr", Position: "Attacker", Nationality: "Portugal"},
	{ID: 154, Name: "Lionel Messi", Team: "Inter Miami", Position: "Attacker", Nationality: "Argentina"},
	{ID: 1100, Name: "Erling Haaland", Team: "Manchester City", Position: "Attacker", Nationality: "Norway"},
	{ID: 278, Name: "Kylian Mbappé", Team: "Real Madrid", Position: "Attacker", Nationality: "France"},
	{ID: 306, Name: "Vinícius Júnior", Team: "Real Madrid", Position: "Attacker", Nationality: "Brazil"},
}

// MockLiveMatches returns placeholder live fixtures
func MockLiveMatches() []models.Match {
	return []models.Match{
		{
			ID:        1001,
			League:    mockLeagues[0],
			HomeTeam:  mockTeams[0],
			AwayTeam:  mockTeams[1],
			HomeGoals: 1,
			AwayGoals: 1,
			Status:    "2H",
			Minute:    67,
			KickOff:   time.Now().Add(-75 * time.Minute),
		},
		{
			ID:        1002,
			League:    mockLeagues[1],
			HomeTeam:  mockTeams[3],
			AwayTeam:  mockTeams[4],
			HomeGoals: 2,
			AwayGoals: 0,
			Status:    "1H",
			Minute:    31,
			KickOff:   time.Now().Add(-35 * time.Minute),
		},
	}
}

// MockMatches returns placeholder scheduled fixtures
func MockMatches() []models.Match {
	return []models.Match{
		{
			ID:       2001,
			League:   mockLeagues[0],
			HomeTeam: mockTeams[2],
			AwayTeam: mockTeams[0],
			Status:   "NS",
			KickOff:  time.Now().Add(26 * time.Hour),
		},
	}
}

// MockStandings returns a placeholder league table
func MockStandings(leagueID int) *models.LeagueStandings {
	league := mockLeagues[0]
	for _, l := range mockLeagues {
		if l.ID == leagueID {
			league = l
			break
		}
	}
	return &models.LeagueStandings{
		League: league,
		Table: []models.Standing{
			{Rank: 1, Team: mockTeams[2], Played: 3, Won: 3, Points: 9, GoalsFor: 8, GoalsAgainst: 2, Form: "WWW"},
			{Rank: 2, Team: mockTeams[1], Played: 3, Won: 2, Drawn: 1, Points: 7, GoalsFor: 6, GoalsAgainst: 3, Form: "WWD"},
			{Rank: 3, Team: mockTeams[0], Played: 3, Won: 2, Lost: 1, Points: 6, GoalsFor: 5, GoalsAgainst: 4, Form: "WLW"},
		},
	}
}

// MockPlayers returns placeholder players
func MockPlayers() []models.Player {
	return append([]models.Player(nil), mockPlayers...)
}

// MockTeams returns placeholder teams
func MockTeams() []models.Team {
	return append([]models.Team(nil), mockTeams...)
}

// MockLeagues returns placeholder leagues
func MockLeagues() []models.League {
	return append([]models.League(nil), mockLeagues...)
}
