package diet

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core/logger"
)

// Metrics are the aggregates over a user's snacks, reached through the
// user-snack link relation.
type Metrics struct {
	Total        int          `json:"total"`
	WithinDiet   int          `json:"withinDiet"`
	OffDiet      int          `json:"offDiet"`
	BestSequence []DailyCount `json:"bestSequence"`
}

// DailyCount counts the within-diet snacks of one calendar date. The best
// sequence aggregate reports these per-date group sizes; it does not compute
// a longest run of consecutive days.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (b *Backend) handleMetricsRoutes(router *mux.Router) {
	schema := b.db.Schema

	logger.Default().Debugln("  handle metrics route: /users/metrics/{userId} GET")

	// all four aggregates run over the same double left join and are
	// computed independently of each other
	joinClause := userSnacksJoin(schema)

	totalQuery := `SELECT count(*) ` + joinClause + `;`
	withinDietQuery := `SELECT count(*) ` + joinClause + ` AND snack.at_diet = true;`
	offDietQuery := `SELECT count(*) ` + joinClause + ` AND snack.at_diet = false;`
	bestSequenceQuery := `SELECT snack.date::text, count(*) ` + joinClause +
		` AND snack.at_diet = true GROUP BY snack.date ORDER BY snack.date;`

	metrics := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		userID, err := uuid.Parse(params["userId"])
		if err != nil {
			http.Error(w, "parameter 'userId': "+err.Error(), http.StatusBadRequest)
			return
		}

		var m Metrics
		m.BestSequence = []DailyCount{} // do not return null in json, but empty array

		counts := []struct {
			query string
			value *int
		}{
			{totalQuery, &m.Total},
			{withinDietQuery, &m.WithinDiet},
			{offDietQuery, &m.OffDiet},
		}
		for _, c := range counts {
			if err := b.db.QueryRow(c.query, userID).Scan(c.value); err != nil {
				rlog.WithError(err).Errorln("Error 2401: cannot query database")
				http.Error(w, "Error 2401: ", http.StatusInternalServerError)
				return
			}
		}

		rows, err := b.db.Query(bestSequenceQuery, userID)
		if err != nil {
			rlog.WithError(err).Errorln("Error 2402: cannot query database")
			http.Error(w, "Error 2402: ", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var d DailyCount
			if err := rows.Scan(&d.Date, &d.Count); err != nil {
				rlog.WithError(err).Errorln("Error 2403: cannot scan database row")
				http.Error(w, "Error 2403: ", http.StatusInternalServerError)
				return
			}
			m.BestSequence = append(m.BestSequence, d)
		}

		b.writeJSON(w, map[string]interface{}{"metrics": m})
	}

	router.Handle("/users/metrics/{userId}", handlers.CompressHandler(http.HandlerFunc(metrics))).Methods(http.MethodOptions, http.MethodGet)
}
