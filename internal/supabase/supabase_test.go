package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden31/tend-sync/internal/models"
	"garden31/tend-sync/internal/pipeerror"
)

func TestUpsert(t *testing.T) {
	var (
		gotPath    string
		gotQuery   string
		gotHeaders http.Header
		gotBody    []map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	date := "2024-03-14"
	qty := "120"
	rows := []models.GreenhousePlanting{
		{TendID: "T-1", Date: &date, Quantity: &qty},
		{TendID: "T-2"},
	}
	client := NewClient(server.URL, "service-key")
	err := Upsert(context.Background(), client, "gh_planting_log", "Tend ID", rows)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/gh_planting_log", gotPath)
	assert.Equal(t, "on_conflict=Tend+ID", gotQuery)
	assert.Equal(t, "service-key", gotHeaders.Get("apikey"))
	assert.Equal(t, "Bearer service-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "resolution=merge-duplicates,return=minimal", gotHeaders.Get("Prefer"))

	require.Len(t, gotBody, 2)
	assert.Equal(t, "T-1", gotBody[0]["Tend ID"], "payload uses the persisted column names")
	assert.Equal(t, "120", gotBody[0]["Quantity"])
	assert.Nil(t, gotBody[1]["Date"], "absent fields persist as null")
	_, hasTaskType := gotBody[0]["task_type"]
	assert.False(t, hasTaskType, "the routing discriminant never reaches a payload")
}

func TestUpsertEmptyBatchIsNoOp(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-key")
	err := Upsert(context.Background(), client, "gh_planting_log", "Tend ID", []models.GreenhousePlanting{})
	require.NoError(t, err)
	assert.False(t, called, "empty batch must not issue a request")
}

func TestUpsertFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-key")
	err := Upsert(context.Background(), client, "row_planting_log", "Tend ID",
		[]models.RowPlanting{{TendID: "T-1"}})
	require.Error(t, err)

	var reqErr *pipeerror.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	assert.Contains(t, reqErr.Body, "duplicate key")
}
