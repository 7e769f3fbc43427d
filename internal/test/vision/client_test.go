package vision_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkiio/coffee-clock/internal/vision"
)

func TestClient_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "glm-4v-flash", req["model"])
		assert.Contains(t, string(body), "data:image/jpeg;base64,aW1n")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"product_name": "espresso"}`}},
			},
		})
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key", "glm-4v-flash")

	output, err := client.Analyze(context.Background(), "aW1n", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, `{"product_name": "espresso"}`, output)
}

func TestClient_Analyze_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key", "glm-4v-flash")

	_, err := client.Analyze(context.Background(), "aW1n", "image/jpeg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GLM API error")
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Analyze_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "1210", "message": "invalid api key"},
		})
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key", "glm-4v-flash")

	_, err := client.Analyze(context.Background(), "aW1n", "image/jpeg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestClient_Analyze_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key", "glm-4v-flash")

	_, err := client.Analyze(context.Background(), "aW1n", "image/jpeg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := vision.NewClient("https://api.test.com/v1/", "test-key", "glm-4v-flash")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := vision.NewClient("https://api.test.com/v1/", "test-key", "glm-4v-flash")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
