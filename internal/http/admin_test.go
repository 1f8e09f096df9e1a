package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/storage"
	"github.com/example/delivery-dispatch/internal/zone"
)

func TestAdmin_RequiresAPIKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/admin/zones", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/zones", "", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_BearerToken(t *testing.T) {
	ts := newTestServer(t)
	ts.zones.EXPECT().List(gomock.Any(), zone.ListFilter{}, models.NewPage(1, 20)).Return(nil, 0, nil)

	rec := ts.do(http.MethodGet, "/admin/zones", "", "Authorization", "Bearer secret")

	require.Equal(t, http.StatusOK, rec.Code)
	var page models.PageResult[models.Zone]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 20, page.Limit)
}

func TestAdmin_ListZonesFilters(t *testing.T) {
	ts := newTestServer(t)
	active := false
	ts.zones.EXPECT().List(gomock.Any(), zone.ListFilter{Active: &active, Search: "north"}, models.NewPage(2, 100)).
		Return([]models.Zone{{ID: "z1"}}, 101, nil)

	rec := ts.do(http.MethodGet, "/admin/zones?page=2&limit=500&active=false&search=north", "", "X-API-Key", "secret")

	require.Equal(t, http.StatusOK, rec.Code)
	var page models.PageResult[models.Zone]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.Page)

	rec = ts.do(http.MethodGet, "/admin/zones?active=perhaps", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_SaveZone(t *testing.T) {
	ts := newTestServer(t)
	ts.zones.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, z models.Zone) (models.Zone, error) {
		assert.True(t, z.Active)
		assert.Len(t, z.Polygon, 3)
		assert.Equal(t, 2.0, z.SurgeMultiplier)
		z.ID = "z1"
		return z, nil
	})

	rec := ts.do(http.MethodPost, "/admin/zones",
		`{"name":"core","surge_multiplier":2,"polygon":[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1}]}`,
		"X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"z1"`)

	rec = ts.do(http.MethodPost, "/admin/zones", `{"name":"line","polygon":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_SaveZoneSurgeDefault(t *testing.T) {
	ts := newTestServer(t)
	var got []models.Zone
	ts.zones.EXPECT().Save(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(func(_ any, z models.Zone) (models.Zone, error) {
		got = append(got, z)
		return z, nil
	})

	rec := ts.do(http.MethodPost, "/admin/zones",
		`{"id":"downtown","name":"downtown","polygon":[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1}]}`,
		"X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/admin/zones",
		`{"name":"promo","surge_multiplier":0,"polygon":[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1}]}`,
		"X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, got, 2)
	assert.Equal(t, models.DefaultSurgeMultiplier, got[0].SurgeMultiplier)
	assert.Equal(t, 0.0, got[1].SurgeMultiplier)
}

func TestAdmin_SetSurgeAndActive(t *testing.T) {
	ts := newTestServer(t)
	ts.zones.EXPECT().SetSurge(gomock.Any(), "z1", 0.0).Return(models.Zone{ID: "z1"}, nil)
	ts.zones.EXPECT().SetActive(gomock.Any(), "z9", false).Return(models.Zone{}, models.ErrZoneNotFound)

	rec := ts.do(http.MethodPatch, "/admin/zones/z1/surge", `{"surge_multiplier":0}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPatch, "/admin/zones/z1/surge", `{"surge_multiplier":-1}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPatch, "/admin/zones/z9/active", `{"active":false}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Riders(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatch.EXPECT().ListRiders(models.NewPage(1, 20)).Return([]models.RiderLocation{{RiderID: "r1"}}, 1)
	ts.records.EXPECT().SaveRider(gomock.Any(), models.Rider{ID: "r2", Name: "Asha", Rating: 5}).Return(nil)

	rec := ts.do(http.MethodGet, "/admin/riders", "", "X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"r1"`)

	rec = ts.do(http.MethodPost, "/admin/riders", `{"id":"r2","name":"Asha"}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/admin/riders", `{"id":"r3","rating":7}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_Orders(t *testing.T) {
	ts := newTestServer(t)
	ts.records.EXPECT().ListOrders(gomock.Any(), storage.OrderFilter{Status: models.StatusAssigned}, models.NewPage(1, 20)).
		Return([]models.Order{{ID: "o1", Status: models.StatusAssigned}}, 1, nil)
	ts.records.EXPECT().ListOrders(gomock.Any(), storage.OrderFilter{}, models.NewPage(1, 20)).
		Return(nil, 0, errors.New("db down"))

	rec := ts.do(http.MethodGet, "/admin/orders?status=assigned", "", "X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"o1"`)

	rec = ts.do(http.MethodGet, "/admin/orders?status=LOST", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/orders", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdmin_NearbyRiders(t *testing.T) {
	ts := newTestServer(t)
	ts.nearby.EXPECT().Nearby(gomock.Any(), models.Point{Lat: 1, Lng: 2}, 5000.0, 20).Return([]string{"r1", "r2"}, nil)

	rec := ts.do(http.MethodGet, "/admin/riders/nearby?lat=1&lng=2", "", "X-API-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `["r1","r2"]`)

	rec = ts.do(http.MethodGet, "/admin/riders/nearby?lat=100&lng=2", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/riders/nearby?lat=1&lng=2&radius_m=-5", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_AssignmentConfig(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatch.EXPECT().AssignmentConfig().Return(models.AssignmentConfig{
		Enabled:             true,
		MaxDistanceM:        5000,
		PrioritizeProximity: true,
		OfferTimeoutSeconds: 15,
	})

	rec := ts.do(http.MethodGet, "/admin/assignment-config", "", "X-API-Key", "secret")

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.AssignmentConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15.0, cfg.OfferTimeoutSeconds)
	assert.Equal(t, 5000.0, cfg.MaxDistanceM)

	rec = ts.do(http.MethodGet, "/admin/assignment-config", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
