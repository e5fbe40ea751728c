package metabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metasync-tools/metasync/internal/content"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		URL:           srv.URL + "/", // trailing slash must be tolerated
		Username:      "admin@example.com",
		Password:      "secret",
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, nil)
}

func TestLogin(t *testing.T) {
	var gotUser string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/session", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotUser = body["username"]
		json.NewEncoder(w).Encode(map[string]string{"id": "sess-token"})
	}))

	require.NoError(t, c.Login(context.Background()))
	assert.Equal(t, "admin@example.com", gotUser)
	assert.Equal(t, "sess-token", c.session)
}

func TestSessionHeaderSent(t *testing.T) {
	var gotHeader string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(sessionHeader)
		w.Write([]byte(`[]`))
	}))
	c.session = "sess-token"

	_, err := c.ListCards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-token", gotHeader)
}

func TestListUnwrapsDataEnvelope(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1,"name":"Revenue"},{"id":2,"name":"Churn"}],"total":2}`))
	}))

	cards, err := c.ListCards(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Revenue", cards[0].Name)
}

func TestListAcceptsBareArray(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3,"name":"sample"}]`))
	}))

	dbs, err := c.ListDatabases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, int64(3), dbs[0].ID)
}

func TestTransientFailuresAreRetried(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))

	_, err := c.ListCards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestTransientFailureSurfacesAfterAttempts(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.ListCards(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"not allowed"}`))
	}))

	_, err := c.ListCards(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "not allowed")
	assert.False(t, apiErr.Transient())
	assert.Equal(t, 1, attempts)
}

func TestCreateCardStripsSourceID(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/card", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]int64{"id": 101})
	}))

	id, err := c.CreateCard(context.Background(), cardFixture())
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)

	_, hasID := body["id"]
	assert.False(t, hasID, "source id must not leak to the target")
	assert.Nil(t, body["collection_id"], "cards land in the instance root")
	assert.Equal(t, "Revenue", body["name"])
}

func TestUpdateDashboardCards(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/dashboard/7/cards", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{}`))
	}))

	cid := int64(101)
	err := c.UpdateDashboardCards(context.Background(), 7, []DashcardPayload{
		{ID: -1, CardID: &cid, SizeX: 4, SizeY: 4, VisualizationSettings: map[string]any{}, ParameterMappings: []any{}},
	})
	require.NoError(t, err)

	cards := body["cards"].([]any)
	require.Len(t, cards, 1)
	assert.Equal(t, float64(-1), cards[0].(map[string]any)["id"])
}

func TestStats(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/properties":
			w.Write([]byte(`{"version":{"tag":"v0.50.1"}}`))
		case "/api/card":
			w.Write([]byte(`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`))
		case "/api/dashboard":
			w.Write([]byte(`[{"id":1,"name":"d"}]`))
		case "/api/database":
			w.Write([]byte(`{"data":[{"id":1,"name":"app db"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, InstanceStats{Version: "v0.50.1", Cards: 2, Dashboards: 1, Databases: 1}, stats)
}

func cardFixture() content.Card {
	return content.Card{
		ID:      9,
		Name:    "Revenue",
		Display: "table",
		DatasetQuery: map[string]any{
			"database": float64(2),
			"type":     "query",
			"query":    map[string]any{"source-table": float64(3)},
		},
	}
}
