package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/middleware"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminKey = "admin"

type testServer struct {
	router   *gin.Engine
	bot      *service.BotContext
	market   *market.Marketplace
	repo     *service.VenueSettingsStore
	activity *service.ActivityService
}

func newTestServer(t *testing.T, readOnly bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := market.NewMemoryCatalog([]model.CatalogEntry{
		{ID: 100, Class: model.ClassTradeGoods, Quality: model.QualityNormal, SellPrice: 10, BuyPrice: 40, MaxStack: 20, Loot: true},
		{ID: 200, Class: model.ClassWeapon, Quality: model.QualityNormal, SellPrice: 250, BuyPrice: 1000, MaxStack: 1, Loot: true},
	})
	filterCfg := config.FilterConfig{LootItems: true, LootTradeGoods: true, NoBind: true}
	index := service.NewItemIndex()
	require.True(t, index.Build(catalog.All(), service.NewItemFilter(filterCfg, false, nil)))

	participant := model.Participant{Account: 7, Character: 70}
	bot := service.NewBotContext(participant, false)
	m := market.NewMarketplace(market.Options{
		BotCharacter: participant.Character,
		Observer:     service.NewListingHooks(bot, catalog),
	})
	store := market.NewMemoryListingStore(m)

	repo := service.NewVenueSettingsStore()
	require.NoError(t, bot.LoadValues(t.Context(), repo, m, catalog))

	activity, err := service.NewActivityService(service.ActivityOptions{Counters: service.NewMemoryActivityCounters()})
	require.NoError(t, err)
	t.Cleanup(activity.Close)
	m.Mailer().AddSink(activity.Mail)

	rng := service.NewRNG(1)
	pump := service.NewQueryPump(service.SyncExecutor)
	seller := service.NewSeller(service.SellerOptions{Enabled: true, ItemsPerCycle: 50}, index, catalog, m, store, rng, activity)
	buyer := service.NewBuyer(service.BuyerOptions{Enabled: true}, catalog, m, store, pump, rng, activity)
	scheduler := service.NewScheduler(seller, buyer, pump, m, store, activity)
	commands := service.NewCommandService(bot, repo, m, store, activity)

	cfg := &config.Config{
		Auth:    config.AuthConfig{AdminKey: adminKey, ReadOnly: readOnly, AdminRatePerSec: 100, AdminBurst: 100},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	router := NewRouter(cfg, Handlers{
		Venues:   NewVenueHandler(bot, m, commands),
		Index:    NewIndexHandler(index),
		Activity: NewActivityHandler(activity),
		Bot:      NewBotHandler(bot, scheduler, pump),
	}, activity)

	return &testServer{router: router, bot: bot, market: m, repo: repo, activity: activity}
}

func (s *testServer) do(method, path, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(middleware.HeaderAdminKey, adminKey)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auctionbot")

	rec = s.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVenueReads(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/v1/venues", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var venues []VenueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &venues))
	require.Len(t, venues, 3)
	assert.Equal(t, "alliance", venues[0].Venue)
	assert.Len(t, venues[0].Buckets, model.BucketCount)

	rec = s.do(http.MethodGet, "/v1/venues/7", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var neutral VenueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &neutral))
	assert.Equal(t, "neutral", neutral.Venue)
	assert.Equal(t, model.HouseNeutral, neutral.House)

	rec = s.do(http.MethodGet, "/v1/venues/mars", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestSetMaxItems(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPut, "/v1/venues/horde/max-items", `{"value":40}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, "/v1/venues/horde/max-items", `{"value":40}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st VenueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint32(40), st.MaxItems)
	assert.Equal(t, uint32(40), st.MinItems)

	row, err := s.repo.Load(context.Background(), model.VenueHorde)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), row.MaxItems)

	rec = s.do(http.MethodPut, "/v1/venues/horde/max-items", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/v1/venues/neutral/commands", `{"command":"minitems","args":["5"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint32(5), s.bot.Config(model.VenueNeutral).Settings().MinItems)

	rec = s.do(http.MethodPost, "/v1/venues/neutral/commands", `{"command":6,"quality":3,"args":["300"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint32(300), s.bot.Config(model.VenueNeutral).GetMinPrice(model.QualityRare))

	rec = s.do(http.MethodPost, "/v1/venues/neutral/commands", `{"command":2,"args":["abc"]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/venues/neutral/commands", `{"args":["1"]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/activity?kind=command", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []model.ActivityLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = s.do(http.MethodGet, "/v1/activity?kind=api_call&venue=neutral", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 4)
}

func TestSetPercentagesValidation(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPut, "/v1/venues/alliance/percentages", `{"percentages":[1,2,3]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"percentages":[0,50,0,0,0,0,0,0,50,0,0,0,0,0]}`
	rec = s.do(http.MethodPut, "/v1/venues/alliance/percentages", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st VenueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint32(50), st.Buckets[8].Percent)
	assert.Equal(t, "white_items", st.Buckets[8].Bucket)
}

func TestTickAndDisable(t *testing.T) {
	s := newTestServer(t, false)
	s.bot.Config(model.VenueNeutral).SetMaxItems(10)
	s.bot.Config(model.VenueNeutral).CalculatePercents()

	rec := s.do(http.MethodPost, "/v1/tick", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report service.TickReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Skipped)
	assert.Len(t, report.Dispatched, 3)
	assert.Equal(t, report.Created["neutral"], s.market.House(model.VenueNeutral).Count())

	rec = s.do(http.MethodGet, "/v1/bot", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":true`)

	rec = s.do(http.MethodDelete, "/v1/bot", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.bot.Enabled())

	rec = s.do(http.MethodPost, "/v1/tick", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "BOT_DISABLED")
}

func TestReadOnlyStillAllowsStop(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPut, "/v1/venues/horde/min-items", `{"value":3}`, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/v1/bot", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.bot.Enabled())
}

func TestIndexAndDaily(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/v1/index", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var sizes struct {
		Total   int            `json:"total"`
		Buckets map[string]int `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sizes))
	assert.Equal(t, 2, sizes.Total)
	assert.Equal(t, 1, sizes.Buckets["white_tradegoods"])

	rec = s.do(http.MethodGet, "/v1/activity/daily", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/activity/daily?venue=neutral&kind=bid", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	rec = s.do(http.MethodGet, "/v1/activity?from=yesterday", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityStream(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/activity/stream?kind=bid"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan model.ActivityLog, 1)
	go func() {
		var e model.ActivityLog
		if err := conn.ReadJSON(&e); err == nil {
			received <- e
		}
	}()

	// the subscription starts after the upgrade; keep publishing until it is live
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case e := <-received:
			assert.Equal(t, model.ActivityBid, e.Kind)
			assert.Equal(t, uint64(42), e.ListingID)
			return
		case <-tick.C:
			s.activity.Log(&model.ActivityLog{Venue: "neutral", Kind: model.ActivityListed, ListingID: 1})
			s.activity.Log(&model.ActivityLog{Venue: "neutral", Kind: model.ActivityBid, ListingID: 42})
		case <-deadline:
			t.Fatal("no stream entry received")
		}
	}
}
