package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/reporting"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	testingpkg "github.com/aristath/rfqdesk/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	logistics = domain.Principal{ID: "u1", Role: domain.RoleLogistics}
	vendorA   = domain.Principal{ID: "u2", Role: domain.RoleVendor, Organization: "VendorA"}
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db, _ := testingpkg.NewTestDB(t, "procurement")
	log := zerolog.Nop()
	km := locks.NewKeyedMutex()
	ctx := context.Background()

	rfqRepo := rfq.NewRepository(db.Conn(), log)
	quoteRepo := quotes.NewRepository(db.Conn(), log)
	rfqs := rfq.NewService(rfqRepo, km, nil, log)
	quoteService := quotes.NewService(quoteRepo, rfqs, km, nil, log)
	engine := allocation.NewEngine(db.Conn(), allocation.NewRepository(db.Conn(), log), rfqRepo, quoteRepo, km, nil, log)
	accessService := access.NewService(rfqs, quoteService, engine, log)

	// One closed RFQ on Rotterdam/40HC with two quotes
	r, err := rfqs.Create(ctx, rfq.NewRFQ{
		ItemDescription:    "Copper cathodes",
		CompanyName:        "Acme Metals",
		PortOfLoading:      "Rotterdam",
		PortOfDestination:  "Nhava Sheva",
		ContainerType:      "40HC",
		NumberOfContainers: 2,
		CargoReadinessDate: "2026-11-01",
		Vendors:            []string{"VendorA", "VendorB"},
	}, logistics)
	require.NoError(t, err)

	var first *quotes.Quote
	for i, vendor := range []string{"VendorA", "VendorB"} {
		q, err := quoteService.Submit(ctx, r.ID, vendor, quotes.CostSheet{
			NumberOfContainers:     2,
			SeaFreightPerContainer: decimal.NewFromInt(int64(1000 * (i + 1))),
			TransshipOrDirect:      quotes.RoutingDirect,
			QuoteValidityDate:      "2026-12-31",
		})
		require.NoError(t, err)
		if first == nil {
			first = q
		}
	}
	_, err = engine.Finalize(ctx, r.ID, []allocation.Entry{{QuoteID: first.ID, ContainersAllottedHome: 2}})
	require.NoError(t, err)

	router := chi.NewRouter()
	service := reporting.NewService(rfqs, quoteService, log)
	NewHandler(service, accessService, log).RegisterRoutes(router)
	return router
}

func get(router chi.Router, p *domain.Principal, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if p != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), *p))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleLanes_JSON(t *testing.T) {
	router := setupRouter(t)

	w := get(router, &logistics, "/reports/lanes?top=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data []reporting.LaneSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	lane := resp.Data[0]
	assert.Equal(t, "Rotterdam", lane.PortOfLoading)
	assert.Equal(t, "40HC", lane.ContainerType)
	assert.Equal(t, 2, lane.QuoteCount)
	require.Len(t, lane.Cheapest, 1)
	assert.Equal(t, "VendorA", lane.Cheapest[0].VendorName)
}

func TestHandleLanes_Msgpack(t *testing.T) {
	router := setupRouter(t)

	w := get(router, &logistics, "/reports/lanes", ContentTypeMsgpack)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var lanes []reporting.LaneSummary
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &lanes))
	require.Len(t, lanes, 1)
	assert.Len(t, lanes[0].Cheapest, 2)
}

func TestHandleLanes_Errors(t *testing.T) {
	router := setupRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(router, nil, "/reports/lanes", "").Code)
	assert.Equal(t, http.StatusForbidden, get(router, &vendorA, "/reports/lanes", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, &logistics, "/reports/lanes?top=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, &logistics, "/reports/lanes?top=x", "").Code)
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		NewHandler(nil, nil, zerolog.Nop()).RegisterRoutes(router)
	})
}
