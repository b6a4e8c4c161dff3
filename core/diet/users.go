package diet

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core"
	"github.com/snacktrack/snacktrack/core/csql"
	"github.com/snacktrack/snacktrack/core/logger"
	"github.com/snacktrack/snacktrack/core/session"
)

// User is a registered user row
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Height    int       `json:"height"`
	Weight    int       `json:"weight"`
	SessionID uuid.UUID `json:"session_id"`
}

func (b *Backend) handleUserRoutes(router *mux.Router) {
	schema := b.db.Schema

	rlog := logger.Default()
	rlog.Debugln("  handle user routes: /users POST,GET")
	rlog.Debugln("  handle user routes: /users/{userId} GET")
	rlog.Debugln("  handle user routes: /users/snacks/{userId} GET")

	insertQuery := fmt.Sprintf(`INSERT INTO %s."users" (id, name, age, height, weight, session_id) VALUES($1,$2,$3,$4,$5,$6);`, schema)
	listQuery := fmt.Sprintf(`SELECT id, name, age, height, weight, session_id FROM %s."users";`, schema)
	readQuery := fmt.Sprintf(`SELECT id, name, age, height, weight, session_id FROM %s."users" WHERE id = $1 AND session_id = $2;`, schema)
	snacksQuery := `SELECT snack.id, snack.title, snack.description, snack.created_at, snack.date::text, snack.time::text, snack.at_diet, snack.session_id
` + userSnacksJoin(schema) + `;`

	create := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "cannot read request body", http.StatusBadRequest)
			return
		}
		if err := b.jsonValidator.ValidateBytes(body, createUserSchemaID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u struct {
			Name   string  `json:"name"`
			Age    float64 `json:"age"`
			Height float64 `json:"height"`
			Weight float64 `json:"weight"`
		}
		if err := json.Unmarshal(body, &u); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sessionID := session.Ensure(w, r)
		userID := uuid.New()
		err = b.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(insertQuery, userID, u.Name, u.Age, u.Height, u.Weight, sessionID); err != nil {
				return err
			}
			return b.notify(tx, "user", core.OperationCreate, userID, body)
		})
		if err != nil {
			rlog.WithError(err).Errorln("Error 2101: cannot insert user")
			http.Error(w, "Error 2101: ", http.StatusInternalServerError)
			return
		}
		b.notifyCommitted("user", core.OperationCreate)
		w.WriteHeader(http.StatusCreated)
	}

	// all users, deliberately not scoped to the calling session: any valid
	// session sees every registered user
	list := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		rows, err := b.db.Query(listQuery)
		if err != nil {
			rlog.WithError(err).Errorln("Error 2102: cannot query database")
			http.Error(w, "Error 2102: ", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		users := []User{}
		for rows.Next() {
			var u User
			if err := rows.Scan(&u.ID, &u.Name, &u.Age, &u.Height, &u.Weight, &u.SessionID); err != nil {
				rlog.WithError(err).Errorln("Error 2103: cannot scan database row")
				http.Error(w, "Error 2103: ", http.StatusInternalServerError)
				return
			}
			users = append(users, u)
		}
		b.writeJSON(w, map[string]interface{}{"users": users})
	}

	read := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		userID, err := uuid.Parse(params["userId"])
		if err != nil {
			http.Error(w, "parameter 'userId': "+err.Error(), http.StatusBadRequest)
			return
		}
		sessionID, _ := session.FromContext(r.Context())

		var u User
		err = b.db.QueryRow(readQuery, userID, sessionID).
			Scan(&u.ID, &u.Name, &u.Age, &u.Height, &u.Weight, &u.SessionID)

		// a missing row is an empty result, not an error
		response := map[string]interface{}{"user": nil}
		if err == nil {
			response["user"] = u
		} else if err != csql.ErrNoRows {
			rlog.WithError(err).Errorln("Error 2104: cannot query database")
			http.Error(w, "Error 2104: ", http.StatusInternalServerError)
			return
		}
		b.writeJSON(w, response)
	}

	// the snacks reachable from a user through the link relation. This route
	// is not session gated.
	listSnacks := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		params := mux.Vars(r)
		userID, err := uuid.Parse(params["userId"])
		if err != nil {
			http.Error(w, "parameter 'userId': "+err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := b.db.Query(snacksQuery, userID)
		if err != nil {
			rlog.WithError(err).Errorln("Error 2105: cannot query database")
			http.Error(w, "Error 2105: ", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		snacks := []Snack{}
		for rows.Next() {
			var s Snack
			if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt,
				&s.Date, &s.Time, &s.AtDiet, &s.SessionID); err != nil {
				rlog.WithError(err).Errorln("Error 2106: cannot scan database row")
				http.Error(w, "Error 2106: ", http.StatusInternalServerError)
				return
			}
			snacks = append(snacks, s)
		}
		b.writeJSON(w, map[string]interface{}{"stacksUser": snacks})
	}

	router.HandleFunc("/users", create).Methods(http.MethodOptions, http.MethodPost)
	router.Handle("/users", handlers.CompressHandler(session.Gated(list))).Methods(http.MethodOptions, http.MethodGet)
	router.Handle("/users/{userId}", handlers.CompressHandler(session.Gated(read))).Methods(http.MethodOptions, http.MethodGet)
	router.Handle("/users/snacks/{userId}", handlers.CompressHandler(http.HandlerFunc(listSnacks))).Methods(http.MethodOptions, http.MethodGet)
}
