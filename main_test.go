package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/consult"
	"neue-studio-server/modules/gallery"
	"neue-studio-server/modules/proxy"
	"neue-studio-server/modules/studio"
)

func newTestRouter() *mux.Router {
	cfg := &config.Config{
		StandardModel:  studio.DefaultCatalog.Standard,
		PremiumModel:   studio.DefaultCatalog.Premium,
		TextModel:      "gemini-2.5-flash",
		GenerationMode: config.ModeDirect,
	}
	newModels := studio.DefaultModelsFactory(cfg)

	studioService := studio.NewService(cfg, studio.NewMemoryCredentialStore(), nil, newModels)
	consultService := consult.NewService(consult.NewMemoryStore(), studioService)

	return newRouter(
		proxy.NewHandler(cfg, newModels),
		studio.NewHandler(studioService),
		consult.NewHandler(consultService, consult.NewHub(consultService)),
		gallery.NewHandler(gallery.NewService(nil, nil), nil),
	)
}

func TestPreflightOnEveryRoute(t *testing.T) {
	r := newTestRouter()

	paths := map[string]bool{}
	require.NoError(t, r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		paths[strings.ReplaceAll(tpl, "{id}", "x")] = true
		return nil
	}))
	require.Contains(t, paths, "/api/gallery/likes")
	require.Contains(t, paths, "/api/consult/sessions/x")

	for path := range paths {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://studio.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		req.Header.Set("Access-Control-Request-Headers", "authorization")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestPreflightAllowsAuthorizationHeader(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/gallery/likes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"neue-studio-server"}`, rec.Body.String())
}
