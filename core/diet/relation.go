package diet

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core/logger"
)

// Link is a user-snack link row; every snack is associated with exactly one
// user through this relation
type Link struct {
	IDRel   uuid.UUID `json:"idRel"`
	UserID  uuid.UUID `json:"userId"`
	SnackID uuid.UUID `json:"snackId"`
}

func (b *Backend) handleRelationshipRoutes(router *mux.Router) {
	schema := b.db.Schema

	logger.Default().Debugln("  handle relationship route: /relship GET")

	listQuery := fmt.Sprintf(`SELECT "idRel", "userId", "snackId" FROM %s."relusersnack";`, schema)

	// administrative dump of the whole link relation, not session gated
	list := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		rows, err := b.db.Query(listQuery)
		if err != nil {
			rlog.WithError(err).Errorln("Error 2501: cannot query database")
			http.Error(w, "Error 2501: ", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		relship := []Link{}
		for rows.Next() {
			var l Link
			if err := rows.Scan(&l.IDRel, &l.UserID, &l.SnackID); err != nil {
				rlog.WithError(err).Errorln("Error 2502: cannot scan database row")
				http.Error(w, "Error 2502: ", http.StatusInternalServerError)
				return
			}
			relship = append(relship, l)
		}
		b.writeJSON(w, map[string]interface{}{"relship": relship})
	}

	router.Handle("/relship", handlers.CompressHandler(http.HandlerFunc(list))).Methods(http.MethodOptions, http.MethodGet)
}
