package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"football-data-cache/internal/service"
)

// FootballHandler serves the football data endpoints. The service layer
// degrades instead of failing, so these handlers always answer 200 with
// a source-tagged payload.
type FootballHandler struct {
	service *service.GameService
	logger  *zap.Logger
}

// NewFootballHandler creates a new handler
func NewFootballHandler(svc *service.GameService, logger *zap.Logger) *FootballHandler {
	return &FootballHandler{
		service: svc,
		logger:  logger,
	}
}

// LiveGames handles GET /matches/live
func (h *FootballHandler) LiveGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetLiveGames(c.Request.Context()))
}

// MatchesByDate handles GET /matches?date=YYYY-MM-DD
func (h *FootballHandler) MatchesByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	c.JSON(http.StatusOK, h.service.SearchMatchesByDate(c.Request.Context(), date))
}

// MatchesByLeague handles GET /leagues/:id/matches
func (h *FootballHandler) MatchesByLeague(c *gin.Context) {
	leagueID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league id"})
		return
	}
	season, _ := strconv.Atoi(c.DefaultQuery("season", "0"))
	c.JSON(http.StatusOK, h.service.SearchMatchesByLeague(c.Request.Context(), leagueID, season))
}

// Standings handles GET /leagues/:id/standings
func (h *FootballHandler) Standings(c *gin.Context) {
	leagueID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league id"})
		return
	}
	c.JSON(http.StatusOK, h.service.GetStandings(c.Request.Context(), leagueID))
}

// Leagues handles GET /leagues
func (h *FootballHandler) Leagues(c *gin.Context) {
	if country := c.Query("country"); country != "" {
		c.JSON(http.StatusOK, h.service.SearchByCountry(c.Request.Context(), country))
		return
	}
	c.JSON(http.StatusOK, h.service.GetMainLeagues(c.Request.Context()))
}

// Countries handles GET /countries
func (h *FootballHandler) Countries(c *gin.Context) {
	countries := h.service.GetAvailableCountries(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"countries": countries,
		"count":     len(countries),
	})
}

// SearchPlayers handles GET /players?q=term
func (h *FootballHandler) SearchPlayers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.SearchPlayers(c.Request.Context(), c.Query("q")))
}

// SearchTeams handles GET /teams?q=term or /teams?region=europe
func (h *FootballHandler) SearchTeams(c *gin.Context) {
	if region := c.Query("region"); region != "" {
		c.JSON(http.StatusOK, h.service.SearchTeamsByRegion(c.Request.Context(), region))
		return
	}
	c.JSON(http.StatusOK, h.service.SearchTeams(c.Request.Context(), c.Query("q")))
}

// SearchLeagues handles GET /leagues/search?q=term
func (h *FootballHandler) SearchLeagues(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.SearchLeagues(c.Request.Context(), c.Query("q")))
}

// GlobalSearch handles GET /search?q=term
func (h *FootballHandler) GlobalSearch(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	h.logger.Debug("global search", zap.String("term", term))
	c.JSON(http.StatusOK, h.service.GlobalSearch(c.Request.Context(), term))
}
