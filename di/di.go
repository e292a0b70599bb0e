package di

import (
	"lodge/internal/reconciler"
	"lodge/transport/http"
)

// App bundles the long-running pieces of the service: the HTTP server and
// the background reconciler.
type App struct {
	HTTP       *http.HTTP
	Reconciler *reconciler.Reconciler
}
