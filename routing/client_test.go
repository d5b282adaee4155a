package routing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://ors.test"

// Google's reference polyline: (38.5,-120.2) (40.7,-120.95) (43.252,-126.453).
const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient() *Client {
	return NewClient(ClientConfig{
		BaseURL: testBaseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func directionsBody(geometry string, distance, duration float64) string {
	b, _ := json.Marshal(map[string]any{
		"routes": []map[string]any{{
			"summary":  map[string]float64{"distance": distance, "duration": duration},
			"geometry": geometry,
		}},
	})
	return string(b)
}

func TestClient_Directions_Success(t *testing.T) {
	setupHTTPMock(t)

	var gotBody directionsRequest
	var gotAuth, gotContentType string
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/v2/directions/foot-walking",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			gotContentType = req.Header.Get("Content-Type")
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(raw, &gotBody); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusOK, directionsBody(samplePolyline, 1234.5, 125)), nil
		})

	route, err := newTestClient().Directions(context.Background(),
		Coordinate{Lat: 42.377, Lng: -71.1167}, Coordinate{Lat: 42.3736, Lng: -71.1097})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	require.Len(t, gotBody.Coordinates, 2)
	assert.Equal(t, [2]float64{-71.1167, 42.377}, gotBody.Coordinates[0])
	assert.Equal(t, [2]float64{-71.1097, 42.3736}, gotBody.Coordinates[1])

	assert.Equal(t, samplePolyline, route.Geometry)
	assert.InDelta(t, 1234.5, route.Distance, 1e-9)
	assert.InDelta(t, 125, route.Duration, 1e-9)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_Directions_CustomProfile(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/v2/directions/wheelchair",
		httpmock.NewStringResponder(http.StatusOK, directionsBody(samplePolyline, 10, 10)))

	c := NewClient(ClientConfig{BaseURL: testBaseURL + "/", APIKey: "k", Profile: "wheelchair"})
	_, err := c.Directions(context.Background(), Coordinate{}, Coordinate{Lat: 1, Lng: 1})
	require.NoError(t, err)
}

func TestClient_Directions_Failures(t *testing.T) {
	setupHTTPMock(t)

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusForbidden, `{"error":"Access to this API has been disallowed"}`},
		{"rate_limited", http.StatusTooManyRequests, `{"error":"Rate Limit Exceeded"}`},
		{"server_error", http.StatusInternalServerError, `oops`},
		{"invalid_json", http.StatusOK, `{invalid`},
		{"no_routes", http.StatusOK, `{"routes":[]}`},
		{"missing_geometry", http.StatusOK, `{"routes":[{"summary":{"distance":1,"duration":1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/v2/directions/foot-walking",
				httpmock.NewStringResponder(tt.status, tt.body))

			route, err := newTestClient().Directions(context.Background(), Coordinate{}, Coordinate{Lat: 1, Lng: 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
			assert.Nil(t, route)
		})
	}
}

func TestClient_Directions_TransportError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/v2/directions/foot-walking",
		httpmock.NewErrorResponder(assert.AnError))

	_, err := newTestClient().Directions(context.Background(), Coordinate{}, Coordinate{Lat: 1, Lng: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClient_Directions_NoAPIKey(t *testing.T) {
	setupHTTPMock(t)

	c := NewClient(ClientConfig{BaseURL: testBaseURL})
	_, err := c.Directions(context.Background(), Coordinate{}, Coordinate{Lat: 1, Lng: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "API key not configured")
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}
