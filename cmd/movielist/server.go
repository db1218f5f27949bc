package main

import (
	"net/http"

	"movielist/internal/app/catalog"
	"movielist/internal/app/lists"
	"movielist/internal/app/users"
	"movielist/internal/config"
	"movielist/internal/httpapi"
	"movielist/internal/middleware"
	"movielist/internal/store"
)

func newHTTPHandler(cfg *config.Config, dataStore *store.Store) http.Handler {
	userSvc := users.New(dataStore)
	catalogSvc := catalog.New(dataStore)
	listsSvc := lists.New(dataStore)

	server := httpapi.New(userSvc, catalogSvc, listsSvc, []byte(cfg.Security.SessionSecret))

	return middleware.CORS(cfg.CORS.AllowedOrigins)(server.Routes())
}
