// Package handler serves the escrow API as a serverless function.
package handler

import (
	"net/http"
	"sync"

	"github.com/amirasaad/escrow/infra/initializer"
	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once    sync.Once
	app     http.HandlerFunc
	initErr error
)

// Handler is the function entry point. The app is built on the first call
// and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		app, initErr = build()
	})
	if initErr != nil {
		http.Error(w, initErr.Error(), http.StatusInternalServerError)
		return
	}
	// This is needed to set the proper request path in `*fiber.Ctx`
	r.RequestURI = r.URL.String()
	app.ServeHTTP(w, r)
}

func build() (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, err
	}
	return adaptor.FiberApp(webapi.SetupApp(deps)), nil
}
