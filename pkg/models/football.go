package models

import "time"

// League identifies a competition as exposed by the upstream providers
type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  int    `json:"season,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

// Team is a club as exposed by the upstream providers
type Team struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Founded int    `json:"founded,omitempty"`
}

// Player is a player record as exposed by the upstream providers
type Player struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Team        string `json:"team,omitempty"`
	Position    string `json:"position,omitempty"`
	Age         int    `json:"age,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

// Match is a fixture, live or otherwise
type Match struct {
	ID        int       `json:"id"`
	League    League    `json:"league"`
	HomeTeam  Team      `json:"home_team"`
	AwayTeam  Team      `json:"away_team"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
	Status    string    `json:"status"`
	Minute    int       `json:"minute,omitempty"`
	KickOff   time.Time `json:"kick_off"`
}

// Standing is one row of a league table
type Standing struct {
	Rank         int    `json:"rank"`
	Team         Team   `json:"team"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Points       int    `json:"points"`
	Form         string `json:"form,omitempty"`
}

// MatchList is a renderable set of matches tagged with its data source
type MatchList struct {
	Matches []Match    `json:"matches"`
	Source  DataSource `json:"source"`
}

// PlayerList is a renderable set of players tagged with its data source
type PlayerList struct {
	Players []Player   `json:"players"`
	Source  DataSource `json:"source"`
}

// TeamList is a renderable set of teams tagged with its data source
type TeamList struct {
	Teams  []Team     `json:"teams"`
	Source DataSource `json:"source"`
}

// LeagueList is a renderable set of leagues tagged with its data source
type LeagueList struct {
	Leagues []League   `json:"leagues"`
	Source  DataSource `json:"source"`
}

// LeagueStandings is a full league table tagged with its data source
type LeagueStandings struct {
	League League     `json:"league"`
	Table  []Standing `json:"table"`
	Source DataSource `json:"source"`
}

// GlobalSearchResult fans a search term out over players, teams and leagues.
// Each branch degrades independently; a failed branch is just empty.
type GlobalSearchResult struct {
	Players      PlayerList `json:"players"`
	Teams        TeamList   `json:"teams"`
	Leagues      LeagueList `json:"leagues"`
	TotalResults int        `json:"total_results"`
}
