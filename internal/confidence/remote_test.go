package confidence

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
)

func TestRemoteScorer(t *testing.T) {
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://ticketd:8080"+ScorePath,
		func(req *http.Request) (*http.Response, error) {
			var body RemoteRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "o1", body.OrganizationID)
			assert.Equal(t, "quantity", body.FieldName)
			return httpmock.NewJsonResponse(200, map[string]any{
				"score": 0.85, "baseline_type": "driver_historical", "field_name": "quantity",
			})
		})

	rs := NewRemoteScorer("http://ticketd:8080/", client, nil)
	got, err := rs.ScoreForVertical(context.Background(), "o1", Request{FieldName: "quantity", ActualValue: 11})
	require.NoError(t, err)
	assert.Equal(t, 0.85, got.Score)
	assert.Equal(t, constants.BaselineDriver, got.BaselineType)
}

func TestRemoteScorer_Non2xx(t *testing.T) {
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodPost, "http://ticketd"+ScorePath, httpmock.NewStringResponder(500, `{"error":"x"}`))

	_, err := NewRemoteScorer("http://ticketd", client, nil).ScoreForVertical(context.Background(), "", Request{FieldName: "quantity"})
	assert.ErrorContains(t, err, "remote score")
}
