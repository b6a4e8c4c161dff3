package diet

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core/logger"
)

var (
	// Version is the version of the current build
	Version = "unset"
)

func (b *Backend) handleVersion(router *mux.Router) {
	logger.Default().Debugln("  handle version route: /version GET")
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		b.writeJSON(w, map[string]string{"version": Version})
	}).Methods(http.MethodOptions, http.MethodGet)
}
