package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aircnc/aircnc-server/internal/config"
	"github.com/aircnc/aircnc-server/internal/store"
)

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	require.True(t, all.AllowAllOrigins)
	require.Nil(t, all.AllowOriginFunc)

	some := corsConfig([]string{"https://aircnc.web.app/", "http://localhost:5173"})
	require.False(t, some.AllowAllOrigins)
	require.True(t, some.AllowOriginFunc("https://aircnc.web.app"))
	require.True(t, some.AllowOriginFunc("http://localhost:5173"))
	require.False(t, some.AllowOriginFunc("https://evil.example.com"))
}

func TestCorsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cors.New(corsConfig([]string{"http://localhost:5173"})))
	r.POST("/bookings", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", readyHandler(store.NewMemoryStore(), nil, &config.Config{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"store":true`)

	cfg := &config.Config{}
	cfg.Redis.Host = "redis"
	r = gin.New()
	r.GET("/ready", readyHandler(store.NewMemoryStore(), nil, cfg))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
