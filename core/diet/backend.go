package diet

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"

	"github.com/snacktrack/snacktrack/core/csql"
	"github.com/snacktrack/snacktrack/core/logger"
	"github.com/snacktrack/snacktrack/core/schema"
)

// Backend is the diet tracking rest backend
type Backend struct {
	db            *csql.DB
	router        *mux.Router
	prefix        string
	jsonValidator *schema.Validator

	handlers             map[string]notificationHandler
	kafkaWriter          *kafka.Writer
	triggerNotifications func()
	pipelineConcurrency  int
	pipelineMaxAttempts  int

	notificationsUpdateQuery string
	notificationsDeleteQuery string
}

// Builder is a builder helper for the Backend
type Builder struct {
	// DB is the postgres database. This is mandatory.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Prefix is the path prefix for all routes. Default is "/diet".
	Prefix string
	// KafkaBrokers is the list of kafka brokers for entity change
	// notifications. This is optional; without brokers, notifications are
	// only delivered to in-process handlers.
	KafkaBrokers []string
	// PipelineConcurrency is the number of notification workers. Default is 5.
	PipelineConcurrency int
	// PipelineMaxAttempts is the number of delivery attempts per
	// notification. Default is 3.
	PipelineMaxAttempts int
}

// New realizes the actual backend. It creates the sql relations (if they
// do not exist) and adds the actual routes to the router
func New(bb *Builder) *Backend {
	if bb.DB == nil {
		panic("DB is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}

	prefix := bb.Prefix
	if prefix == "" {
		prefix = "/diet"
	}

	concurrency := bb.PipelineConcurrency
	if concurrency == 0 {
		concurrency = 5
	}
	maxAttempts := bb.PipelineMaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}

	b := &Backend{
		db:                  bb.DB,
		router:              bb.Router,
		prefix:              prefix,
		jsonValidator:       schema.MustNewValidator(requestSchemas),
		handlers:            make(map[string]notificationHandler),
		pipelineConcurrency: concurrency,
		pipelineMaxAttempts: maxAttempts,
	}
	b.triggerNotifications = func() {
		go b.ProcessNotifications()
	}
	if len(bb.KafkaBrokers) > 0 {
		b.kafkaWriter = &kafka.Writer{
			Addr:     kafka.TCP(bb.KafkaBrokers...),
			Topic:    notificationTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	b.createTables()
	b.handleNotifications()

	logger.AddRequestID(b.router)
	b.handleCORS()
	b.handleRoutes()
	return b
}

func (b *Backend) handleRoutes() {
	logger.Default().Debugln("backend: handle routes under prefix", b.prefix)

	router := b.router.PathPrefix(b.prefix).Subrouter()
	b.handleUserRoutes(router)
	b.handleMetricsRoutes(router)
	b.handleSnackRoutes(router)
	b.handleRelationshipRoutes(router)
	b.handleVersion(router)
	b.handleStatistics(router)
}

func (b *Backend) writeJSON(w http.ResponseWriter, object interface{}) {
	jsonData, err := json.Marshal(object)
	if err != nil {
		http.Error(w, "Error 2001: ", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(jsonData)
}

// Close shuts down the kafka writer, if the backend has one
func (b *Backend) Close() error {
	if b.kafkaWriter != nil {
		return b.kafkaWriter.Close()
	}
	return nil
}

func (b *Backend) handleCORS() {
	corsMiddleware := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Set CORS headers for all requests
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Cookie")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			// Handle preflight OPTIONS request
			if r.Method == http.MethodOptions {
				logger.FromContext(r.Context()).Debugln("called route for", r.URL, r.Method, " (handled by CORS middleware)")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
	b.router.Use(corsMiddleware)
}
