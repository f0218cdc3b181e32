package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	ts.uploadImage(t, "indexed")

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, statusHealthy, env.Data.Components["database"].Status)
	assert.Equal(t, statusHealthy, env.Data.Components["search"].Status)
	assert.Equal(t, "1 image indexed", env.Data.Components["search"].Message)
	// No task queue in tests.
	assert.Equal(t, statusDegraded, env.Data.Components["queue"].Status)
	assert.Equal(t, statusDegraded, env.Data.Status)
}

func TestListImagesAPI(t *testing.T) {
	ts := setupTestServer(t)
	tag := ts.createTag(t, "Beach")
	ts.uploadImage(t, "sand", tag.ID)
	ts.uploadImage(t, "snow")

	resp := ts.api.Get("/api/v1/images?sort=oldest")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[ListImagesResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Images, 2)
	assert.Equal(t, "sand", env.Data.Images[0].Title)
	assert.Equal(t, "snow", env.Data.Images[1].Title)
	assert.NotEmpty(t, env.Data.Images[0].URL)
	assert.Equal(t, 32, env.Data.Images[0].Width)
	require.Len(t, env.Data.Tags, 1)
	assert.Equal(t, "Beach", env.Data.Tags[0].Name)

	resp = ts.api.Get("/api/v1/images?category=" + strconv.FormatInt(tag.ID, 10))
	env = decodeEnvelope[ListImagesResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Images, 1)
	assert.Equal(t, "sand", env.Data.Images[0].Title)
	assert.Equal(t, "Beach", env.Data.Images[0].Tags[0].Name)
}

func TestGetImageAPI(t *testing.T) {
	ts := setupTestServer(t)
	img := ts.uploadImage(t, "portrait")

	resp := ts.api.Get("/api/v1/images/" + strconv.FormatInt(img.ID, 10))
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope[ImageResponse](t, resp.Body.Bytes())
	assert.Equal(t, img.ID, env.Data.ID)
	assert.Equal(t, img.PublicID, env.Data.PublicID)
	assert.NotEmpty(t, env.Data.ThumbnailURL)

	resp = ts.api.Get("/api/v1/images/9999")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	missing := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.False(t, missing.Success)
	assert.Equal(t, "Image not found", missing.Error)
}

func TestUpdateImageAPI(t *testing.T) {
	ts := setupTestServer(t)
	img := ts.uploadImage(t, "before")
	path := "/api/v1/images/" + strconv.FormatInt(img.ID, 10)
	body := map[string]any{"title": "after"}

	resp := ts.api.Patch(path, body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Patch(path, ts.sessionHeader(t, memberUser, memberPass), body)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch(path, ts.sessionHeader(t, adminUser, adminPassword), body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[ImageResponse](t, resp.Body.Bytes())
	assert.Equal(t, "after", env.Data.Title)
	assert.False(t, env.Data.UploadedAt.Before(img.UploadedAt))

	resp = ts.api.Patch("/api/v1/images/9999", ts.sessionHeader(t, adminUser, adminPassword), body)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchImagesAPI(t *testing.T) {
	ts := setupTestServer(t)
	tag := ts.createTag(t, "Mountains")
	ts.uploadImage(t, "alpine sunset")
	ts.uploadImage(t, "glacier", tag.ID)
	ts.uploadImage(t, "harbour")

	resp := ts.api.Get("/api/v1/images/search?q=sunset")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[struct {
		Images []ImageResponse `json:"images"`
	}](t, resp.Body.Bytes())
	require.Len(t, env.Data.Images, 1)
	assert.Equal(t, "alpine sunset", env.Data.Images[0].Title)

	resp = ts.api.Get("/api/v1/images/search?q=mountains")
	env = decodeEnvelope[struct {
		Images []ImageResponse `json:"images"`
	}](t, resp.Body.Bytes())
	require.Len(t, env.Data.Images, 1)
	assert.Equal(t, "glacier", env.Data.Images[0].Title)
}

func TestTagsAPI(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.sessionHeader(t, adminUser, adminPassword)

	t.Run("create requires an administrator", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "Wildlife"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = ts.api.Post("/api/v1/tags", ts.sessionHeader(t, memberUser, memberPass), map[string]any{"name": "Wildlife"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	var tagID int64
	t.Run("create derives the slug", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/tags", admin, map[string]any{"name": "Street Art"})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

		env := decodeEnvelope[TagResponse](t, resp.Body.Bytes())
		assert.Equal(t, "Street Art", env.Data.Name)
		assert.Equal(t, "street-art", env.Data.Slug)
		assert.Equal(t, "fa-tag", env.Data.Icon)
		tagID = env.Data.ID
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/tags", admin, map[string]any{"name": "street art"})
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("list", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/tags")
		require.Equal(t, http.StatusOK, resp.Code)
		env := decodeEnvelope[struct {
			Tags []TagResponse `json:"tags"`
		}](t, resp.Body.Bytes())
		require.Len(t, env.Data.Tags, 1)
	})

	t.Run("rename keeps the slug", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/tags/"+strconv.FormatInt(tagID, 10), admin, map[string]any{"name": "Murals", "icon": "fa-paint-brush"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		env := decodeEnvelope[TagResponse](t, resp.Body.Bytes())
		assert.Equal(t, "Murals", env.Data.Name)
		assert.Equal(t, "street-art", env.Data.Slug)
		assert.Equal(t, "fa-paint-brush", env.Data.Icon)
	})

	t.Run("delete detaches from images", func(t *testing.T) {
		img := ts.uploadImage(t, "wall", tagID)

		resp := ts.api.Delete("/api/v1/tags/"+strconv.FormatInt(tagID, 10), admin)
		assert.Equal(t, http.StatusNoContent, resp.Code)

		resp = ts.api.Get("/api/v1/tags/" + strconv.FormatInt(tagID, 10))
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = ts.api.Get("/api/v1/images/" + strconv.FormatInt(img.ID, 10))
		env := decodeEnvelope[ImageResponse](t, resp.Body.Bytes())
		assert.Empty(t, env.Data.Tags)
	})
}

func TestAPIValidation(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.sessionHeader(t, adminUser, adminPassword)

	resp := ts.api.Post("/api/v1/tags", admin, map[string]any{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
}

func TestMiddleware_AllowedHosts(t *testing.T) {
	ts := setupTestServer(t)

	for host, want := range map[string]int{
		"127.0.0.1:8000":       http.StatusOK,
		"localhost":            http.StatusOK,
		"example.com":          http.StatusOK,
		"photos.example.com":   http.StatusOK,
		"evil.com":             http.StatusBadRequest,
		"example.com.evil.com": http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Host = host
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, host)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	generated := resp.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	const supplied = "6f1c1a66-3f0e-4d55-9c59-3d3b5c1c2a10"
	resp = ts.api.Get("/health", RequestIDHeader+": "+supplied)
	assert.Equal(t, supplied, resp.Header().Get(RequestIDHeader))

	resp = ts.api.Get("/health", RequestIDHeader+": not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", resp.Header().Get(RequestIDHeader))
}

func TestMiddleware_CORSOnlyOnAPI(t *testing.T) {
	ts := setupTestServer(t)

	preflight := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, path, http.NoBody)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("/api/v1/images")
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight("/")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEnvelopeTransformer(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, APIEnvelope{Version: EnvelopeVersion, Success: true, Data: map[string]string{"k": "v"}}, out)

	out, err = EnvelopeTransformer(nil, "404", &APIError{status: 404, Code: "not_found", Message: "gone"})
	require.NoError(t, err)
	assert.Equal(t, APIEnvelope{Version: EnvelopeVersion, Success: false, Error: "gone"}, out)

	details := map[string]string{"field": "name"}
	out, err = EnvelopeTransformer(nil, "400", &APIError{status: 400, Code: "validation", Message: "bad", Details: details})
	require.NoError(t, err)
	assert.Equal(t, APIErrorEnvelope{Version: EnvelopeVersion, Success: false, Code: "validation", Message: "bad", Details: details}, out)

	already := APIEnvelope{Version: EnvelopeVersion, Success: true}
	out, err = EnvelopeTransformer(nil, "200", already)
	require.NoError(t, err)
	assert.Equal(t, already, out)
}
