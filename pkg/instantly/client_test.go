package instantly

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkAddLeads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leads/list", r.URL.Path)
		assert.Equal(t, "Bearer inst-key", r.Header.Get("Authorization"))

		var body struct {
			CampaignID       string `json:"campaign_id"`
			SkipIfInCampaign bool   `json:"skip_if_in_campaign"`
			Leads            []Lead `json:"leads"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "camp-1", body.CampaignID)
		assert.True(t, body.SkipIfInCampaign)
		require.Len(t, body.Leads, 2)
		assert.Equal(t, "spreadsheet check-ins", body.Leads[0].CustomVariables["painPoint"])

		json.NewEncoder(w).Encode(map[string]int{
			"leads_uploaded":  1,
			"duplicate_count": 1,
		})
	}))
	defer srv.Close()

	c := NewClient("inst-key", WithBaseURL(srv.URL))
	result, err := c.BulkAddLeads(context.Background(), "camp-1", []Lead{
		{
			Email:     "a@b.co",
			FirstName: "Jane",
			CustomVariables: map[string]string{
				"openingLine": "line",
				"painPoint":   "spreadsheet check-ins",
			},
		},
		{Email: "c@d.co"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestBulkAddLeadsSplitsBatches(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Leads []Lead `json:"leads"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batchSizes = append(batchSizes, len(body.Leads))

		json.NewEncoder(w).Encode(map[string]int{
			"leads_uploaded": len(body.Leads),
		})
	}))
	defer srv.Close()

	leads := make([]Lead, 1500)
	for i := range leads {
		leads[i] = Lead{Email: "x@y.co"}
	}

	c := NewClient("inst-key", WithBaseURL(srv.URL))
	result, err := c.BulkAddLeads(context.Background(), "camp-1", leads)
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 500}, batchSizes)
	assert.Equal(t, 1500, result.Added)
}

func TestBulkAddLeadsEmpty(t *testing.T) {
	c := NewClient("inst-key", WithBaseURL("http://127.0.0.1:1"))
	result, err := c.BulkAddLeads(context.Background(), "camp-1", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
}

func TestBulkAddLeadsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"bad campaign"}`))
	}))
	defer srv.Close()

	c := NewClient("inst-key", WithBaseURL(srv.URL))
	_, err := c.BulkAddLeads(context.Background(), "camp-1", []Lead{{Email: "a@b.co"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
