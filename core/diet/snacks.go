package diet

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/lib/pq"

	"github.com/snacktrack/snacktrack/core"
	"github.com/snacktrack/snacktrack/core/csql"
	"github.com/snacktrack/snacktrack/core/logger"
	"github.com/snacktrack/snacktrack/core/session"
)

// Snack is a logged snack event
type Snack struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	AtDiet      bool      `json:"at_diet"`
	SessionID   uuid.UUID `json:"session_id"`
}

func (b *Backend) handleSnackRoutes(router *mux.Router) {
	schema := b.db.Schema

	rlog := logger.Default()
	rlog.Debugln("  handle snack routes: /snack POST,GET")
	rlog.Debugln("  handle snack routes: /snack/{id} GET,PUT,DELETE")

	insertQuery := fmt.Sprintf(`INSERT INTO %s."snack" (id, title, description, date, time, at_diet, session_id) VALUES($1,$2,$3,$4,$5,$6,$7);`, schema)
	insertLinkQuery := fmt.Sprintf(`INSERT INTO %s."relusersnack" ("idRel", "userId", "snackId") VALUES($1,$2,$3);`, schema)
	listQuery := fmt.Sprintf(`SELECT id, title, description, created_at, date::text, time::text, at_diet, session_id FROM %s."snack" WHERE session_id = $1;`, schema)
	readQuery := fmt.Sprintf(`SELECT id, title, description, created_at, date::text, time::text, at_diet, session_id FROM %s."snack" WHERE id = $1 AND session_id = $2;`, schema)
	updateQuery := fmt.Sprintf(`UPDATE %s."snack" SET title = $3, description = $4, at_diet = $5, date = $6, time = $7 WHERE id = $1 AND session_id = $2 RETURNING id;`, schema)
	deleteQuery := fmt.Sprintf(`DELETE FROM %s."snack" WHERE id = $1 AND session_id = $2 RETURNING id;`, schema)

	// the snack insert and the link insert are one logical unit. They run in
	// a single transaction, a failing link insert must not leave an orphaned
	// snack behind.
	create := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "cannot read request body", http.StatusBadRequest)
			return
		}
		if err := b.jsonValidator.ValidateBytes(body, createSnackSchemaID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var s struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			AtDiet      bool   `json:"at_diet"`
			Date        string `json:"date"`
			Time        string `json:"time"`
			UserID      string `json:"userId"`
		}
		if err := json.Unmarshal(body, &s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sessionID := session.Ensure(w, r)
		snackID := uuid.New()
		linkID := uuid.New()
		err = b.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(insertQuery, snackID, s.Title, s.Description, s.Date, s.Time, s.AtDiet, sessionID); err != nil {
				return err
			}
			if _, err := tx.Exec(insertLinkQuery, linkID, s.UserID, snackID); err != nil {
				return err
			}
			return b.notify(tx, "snack", core.OperationCreate, snackID, body)
		})
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
				http.Error(w, "no such user "+s.UserID, http.StatusBadRequest)
				return
			}
			if errors.As(err, &pqErr) && (pqErr.Code.Name() == "invalid_datetime_format" || pqErr.Code.Name() == "datetime_field_overflow") {
				http.Error(w, "invalid date or time: "+pqErr.Message, http.StatusBadRequest)
				return
			}
			rlog.WithError(err).Errorln("Error 2201: cannot insert snack")
			http.Error(w, "Error 2201: ", http.StatusInternalServerError)
			return
		}
		b.notifyCommitted("snack", core.OperationCreate)
		w.WriteHeader(http.StatusCreated)
	}

	list := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		sessionID, _ := session.FromContext(r.Context())
		rows, err := b.db.Query(listQuery, sessionID)
		if err != nil {
			rlog.WithError(err).Errorln("Error 2202: cannot query database")
			http.Error(w, "Error 2202: ", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		snacks := []Snack{}
		for rows.Next() {
			var s Snack
			if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt,
				&s.Date, &s.Time, &s.AtDiet, &s.SessionID); err != nil {
				rlog.WithError(err).Errorln("Error 2203: cannot scan database row")
				http.Error(w, "Error 2203: ", http.StatusInternalServerError)
				return
			}
			snacks = append(snacks, s)
		}
		b.writeJSON(w, map[string]interface{}{"snacks": snacks})
	}

	read := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		snackID, err := uuid.Parse(params["id"])
		if err != nil {
			http.Error(w, "parameter 'id': "+err.Error(), http.StatusBadRequest)
			return
		}
		sessionID, _ := session.FromContext(r.Context())

		// the result is an array with zero or one element
		snack := []Snack{}
		var s Snack
		err = b.db.QueryRow(readQuery, snackID, sessionID).Scan(&s.ID, &s.Title, &s.Description,
			&s.CreatedAt, &s.Date, &s.Time, &s.AtDiet, &s.SessionID)
		if err == nil {
			snack = append(snack, s)
		} else if err != csql.ErrNoRows {
			rlog.WithError(err).Errorln("Error 2204: cannot query database")
			http.Error(w, "Error 2204: ", http.StatusInternalServerError)
			return
		}
		b.writeJSON(w, map[string]interface{}{"snack": snack})
	}

	update := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		snackID, err := uuid.Parse(params["id"])
		if err != nil {
			http.Error(w, "parameter 'id': "+err.Error(), http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "cannot read request body", http.StatusBadRequest)
			return
		}
		if err := b.jsonValidator.ValidateBytes(body, updateSnackSchemaID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var s struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			AtDiet      bool   `json:"at_diet"`
			Date        string `json:"date"`
			Time        string `json:"time"`
		}
		if err := json.Unmarshal(body, &s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sessionID, _ := session.FromContext(r.Context())
		updated := true
		err = b.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			var id uuid.UUID
			err := tx.QueryRow(updateQuery, snackID, sessionID, s.Title, s.Description, s.AtDiet, s.Date, s.Time).Scan(&id)
			if err == csql.ErrNoRows {
				// zero rows affected is a no-op, not an error
				updated = false
				return nil
			}
			if err != nil {
				return err
			}
			return b.notify(tx, "snack", core.OperationUpdate, id, body)
		})
		if err != nil {
			rlog.WithError(err).Errorln("Error 2205: cannot update snack")
			http.Error(w, "Error 2205: ", http.StatusInternalServerError)
			return
		}
		if updated {
			b.notifyCommitted("snack", core.OperationUpdate)
		}
		w.WriteHeader(http.StatusOK)
	}

	remove := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		snackID, err := uuid.Parse(params["id"])
		if err != nil {
			http.Error(w, "parameter 'id': "+err.Error(), http.StatusBadRequest)
			return
		}
		sessionID, _ := session.FromContext(r.Context())
		deleted := true
		err = b.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			var id uuid.UUID
			err := tx.QueryRow(deleteQuery, snackID, sessionID).Scan(&id)
			if err == csql.ErrNoRows {
				deleted = false
				return nil
			}
			if err != nil {
				return err
			}
			return b.notify(tx, "snack", core.OperationDelete, id, nil)
		})
		if err != nil {
			rlog.WithError(err).Errorln("Error 2206: cannot delete snack")
			http.Error(w, "Error 2206: ", http.StatusInternalServerError)
			return
		}
		if deleted {
			b.notifyCommitted("snack", core.OperationDelete)
		}
		w.WriteHeader(http.StatusOK)
	}

	router.HandleFunc("/snack", create).Methods(http.MethodOptions, http.MethodPost)
	router.Handle("/snack", handlers.CompressHandler(session.Gated(list))).Methods(http.MethodOptions, http.MethodGet)
	router.Handle("/snack/{id}", handlers.CompressHandler(session.Gated(read))).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/snack/{id}", session.Gated(update)).Methods(http.MethodOptions, http.MethodPut)
	router.HandleFunc("/snack/{id}", session.Gated(remove)).Methods(http.MethodOptions, http.MethodDelete)
}
