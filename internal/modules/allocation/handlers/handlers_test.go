package handlers

import (
	"bytes"
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
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	testingpkg "github.com/aristath/rfqdesk/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	logistics = domain.Principal{ID: "u1", Role: domain.RoleLogistics}
	vendorA   = domain.Principal{ID: "u2", Role: domain.RoleVendor, Organization: "VendorA"}
	vendorB   = domain.Principal{ID: "u3", Role: domain.RoleVendor, Organization: "VendorB"}
)

type env struct {
	router chi.Router
	rfq    *rfq.RFQ
	q1     *quotes.Quote
	q2     *quotes.Quote
}

func setup(t *testing.T) *env {
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

	router := chi.NewRouter()
	NewHandler(engine, accessService, log).RegisterRoutes(router)

	r, err := rfqs.Create(ctx, rfq.NewRFQ{
		ItemDescription:    "Copper cathodes",
		CompanyName:        "Acme Metals",
		PortOfLoading:      "Rotterdam",
		PortOfDestination:  "Nhava Sheva",
		ContainerType:      "40HC",
		NumberOfContainers: 10,
		CargoReadinessDate: "2026-11-01",
		Vendors:            []string{"VendorA", "VendorB"},
	}, logistics)
	require.NoError(t, err)

	sheet := quotes.CostSheet{
		NumberOfContainers:     10,
		SeaFreightPerContainer: decimal.NewFromInt(1000),
		CHAChargesHome:         decimal.NewFromInt(100),
		CHAChargesMOOWR:        decimal.NewFromInt(200),
		TransshipOrDirect:      quotes.RoutingDirect,
		QuoteValidityDate:      "2026-12-31",
	}
	q1, err := quoteService.Submit(ctx, r.ID, "VendorA", sheet)
	require.NoError(t, err)
	q2, err := quoteService.Submit(ctx, r.ID, "VendorB", sheet)
	require.NoError(t, err)

	return &env{router: router, rfq: r, q1: q1, q2: q2}
}

func (e *env) do(t *testing.T, p *domain.Principal, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if p != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), *p))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHandleFinalize(t *testing.T) {
	e := setup(t)
	path := "/rfqs/" + e.rfq.ID + "/finalize"

	w := e.do(t, &logistics, http.MethodPost, path, FinalizeRequest{Distribution: []allocation.Entry{
		{QuoteID: e.q1.ID, ContainersAllottedHome: 6},
		{QuoteID: e.q2.ID, ContainersAllottedMOOWR: 4},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			RFQ struct {
				Status string `json:"status"`
			} `json:"rfq"`
			Allocations []allocation.Allocation  `json:"allocations"`
			Quotes      []map[string]interface{} `json:"quotes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "closed", resp.Data.RFQ.Status)
	assert.Len(t, resp.Data.Allocations, 2)
	require.Len(t, resp.Data.Quotes, 2)
	assert.Equal(t, "6600", resp.Data.Quotes[0]["homeTotal"])
	assert.Equal(t, "4800", resp.Data.Quotes[1]["mooWRTotal"])

	// Single shot
	w = e.do(t, &logistics, http.MethodPost, path, FinalizeRequest{Distribution: []allocation.Entry{
		{QuoteID: e.q1.ID, ContainersAllottedHome: 10},
	}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleFinalize_MismatchReportsTotals(t *testing.T) {
	e := setup(t)

	w := e.do(t, &logistics, http.MethodPost, "/rfqs/"+e.rfq.ID+"/finalize", FinalizeRequest{Distribution: []allocation.Entry{
		{QuoteID: e.q1.ID, ContainersAllottedHome: 6},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(10), resp["expected"])
	assert.Equal(t, float64(6), resp["computed"])

	w = e.do(t, &logistics, http.MethodGet, "/rfqs/"+e.rfq.ID+"/allocations", nil)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestHandleFinalize_Errors(t *testing.T) {
	e := setup(t)
	path := "/rfqs/" + e.rfq.ID + "/finalize"
	body := FinalizeRequest{Distribution: []allocation.Entry{{QuoteID: e.q1.ID, ContainersAllottedHome: 10}}}

	assert.Equal(t, http.StatusUnauthorized, e.do(t, nil, http.MethodPost, path, body).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, &vendorA, http.MethodPost, path, body).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, &logistics, http.MethodPost, "/rfqs/missing/finalize", body).Code)

	negative := FinalizeRequest{Distribution: []allocation.Entry{{QuoteID: e.q1.ID, ContainersAllottedHome: -1}}}
	w := e.do(t, &logistics, http.MethodPost, path, negative)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "containersAllottedHome")
}

func TestHandleList_VendorsSeeOwnRows(t *testing.T) {
	e := setup(t)

	w := e.do(t, &logistics, http.MethodPost, "/rfqs/"+e.rfq.ID+"/finalize", FinalizeRequest{Distribution: []allocation.Entry{
		{QuoteID: e.q1.ID, ContainersAllottedHome: 6},
		{QuoteID: e.q2.ID, ContainersAllottedMOOWR: 4},
	}})
	require.Equal(t, http.StatusOK, w.Code)

	list := func(p *domain.Principal, path string) []allocation.Allocation {
		var resp struct {
			Data []allocation.Allocation `json:"data"`
		}
		w := e.do(t, p, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data
	}

	assert.Len(t, list(&logistics, "/allocations"), 2)
	assert.Len(t, list(&logistics, "/rfqs/"+e.rfq.ID+"/allocations"), 2)

	for _, p := range []*domain.Principal{&vendorA, &vendorB} {
		for _, rows := range [][]allocation.Allocation{list(p, "/allocations"), list(p, "/rfqs/"+e.rfq.ID+"/allocations")} {
			require.Len(t, rows, 1)
			assert.Equal(t, p.Organization, rows[0].VendorName)
		}
	}
}
