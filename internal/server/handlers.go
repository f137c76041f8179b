package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quotedesk/internal/aggregate"
	"quotedesk/internal/market"
	"quotedesk/internal/resolver"
)

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type marketsStatusResponse struct {
	Markets   []market.Status          `json:"markets"`
	Adapters  []resolver.AdapterStatus `json:"adapters"`
	Timestamp time.Time                `json:"timestamp"`
}

type cacheHealth struct {
	Entries  int `json:"entries"`
	Capacity int `json:"capacity"`
}

type adapterHealth struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Health  string `json:"health"`
}

type healthResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds int             `json:"uptimeSeconds"`
	Cache         cacheHealth     `json:"cache"`
	Adapters      []adapterHealth `json:"adapters"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (s *Server) getTicker(c *gin.Context) {
	indian, ok := s.boolQuery(c, "indian", true)
	if !ok {
		return
	}
	global, ok := s.boolQuery(c, "global", true)
	if !ok {
		return
	}
	limit, ok := s.limitQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.svc.Ticker(c.Request.Context(), aggregate.Params{Indian: indian, Global: global, Limit: limit}))
}

func (s *Server) getIndian(c *gin.Context) {
	limit, ok := s.limitQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.svc.Ticker(c.Request.Context(), aggregate.Params{Indian: true, Limit: limit}))
}

func (s *Server) getGlobal(c *gin.Context) {
	limit, ok := s.limitQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.svc.Ticker(c.Request.Context(), aggregate.Params{Global: true, Limit: limit}))
}

func (s *Server) getDetail(c *gin.Context) {
	resp, err := s.svc.Detail(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "internal_error", "quote resolution failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getSearch(c *gin.Context) {
	marketFilter := strings.ToLower(c.Query("market"))
	if marketFilter != "" && marketFilter != market.Indian && marketFilter != market.Global {
		s.fail(c, http.StatusBadRequest, "bad_request", "market must be indian or global")
		return
	}
	c.JSON(http.StatusOK, s.svc.Search(c.Request.Context(), c.Param("query"), marketFilter))
}

func (s *Server) getMarketsStatus(c *gin.Context) {
	now := s.now().UTC()
	c.JSON(http.StatusOK, marketsStatusResponse{
		Markets: []market.Status{
			market.StatusAt(market.Indian, now),
			market.StatusAt(market.Global, now),
		},
		Adapters:  s.res.Adapters(),
		Timestamp: now,
	})
}

func (s *Server) getHealth(c *gin.Context) {
	statuses := s.res.Adapters()
	adapters := make([]adapterHealth, 0, len(statuses))
	for _, st := range statuses {
		adapters = append(adapters, adapterHealth{Name: st.Name, Enabled: st.Enabled, Health: st.Health})
	}
	now := s.now().UTC()
	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int(now.Sub(s.start) / time.Second),
		Cache:         cacheHealth{Entries: s.store.Len(), Capacity: s.store.Capacity()},
		Adapters:      adapters,
		Timestamp:     now,
	})
}

// boolQuery reads an optional boolean flag, rejecting the request with
// a 400 when the value does not parse.
func (s *Server) boolQuery(c *gin.Context, name string, def bool) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "bad_request", name+" must be a boolean")
		return false, false
	}
	return v, true
}

func (s *Server) limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return aggregate.DefaultLimit, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		s.fail(c, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
		return 0, false
	}
	return v, true
}

func (s *Server) fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: message, Timestamp: s.now().UTC()})
}
