package diet

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core/logger"
)

// tableStatistics represents information about one relation
type tableStatistics struct {
	Table        string  `json:"table"`
	Count        int64   `json:"count"`
	SizeMB       float64 `json:"size_mb"`
	AverageSizeB float64 `json:"average_size_b"`
}

func (b *Backend) handleStatistics(router *mux.Router) {
	logger.Default().Debugln("  handle statistics route: /statistics GET")
	router.HandleFunc("/statistics", func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		stats := []tableStatistics{}
		for _, table := range []string{"users", "snack", "relusersnack"} {
			row := b.db.QueryRow(fmt.Sprintf(`SELECT pg_total_relation_size('%s."%s"'), count(*) FROM %s."%s" `,
				b.db.Schema, table, b.db.Schema, table))
			var size, count int64
			if err := row.Scan(&size, &count); err != nil {
				rlog.WithError(err).Errorln("Error 2601: cannot query database")
				http.Error(w, "Error 2601: ", http.StatusInternalServerError)
				return
			}
			var averageSize float64
			if count != 0 {
				averageSize = float64(size / count)
			}
			stats = append(stats, tableStatistics{
				Table:        table,
				Count:        count,
				SizeMB:       float64(size) / 1024. / 1024.,
				AverageSizeB: averageSize,
			})
		}
		b.writeJSON(w, map[string]interface{}{"statistics": stats})
	}).Methods(http.MethodOptions, http.MethodGet)
}
