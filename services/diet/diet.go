package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/snacktrack/snacktrack/core/csql"
	"github.com/snacktrack/snacktrack/core/diet"
	"github.com/snacktrack/snacktrack/core/logger"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	Port             string `env:"PORT,default=3000" description:"the port the service listens on"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma separated kafka brokers for entity change notifications"`
}

func main() {
	logger.InitLogger(logrus.InfoLevel)

	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, "diet")
	defer db.Close()

	var brokers []string
	if len(service.KafkaBrokers) > 0 {
		brokers = strings.Split(service.KafkaBrokers, ",")
	}

	router := mux.NewRouter()
	b := diet.New(&diet.Builder{
		DB:           db,
		Router:       router,
		KafkaBrokers: brokers,
	})
	defer b.Close()

	logger.Default().Infoln("listen on port :" + service.Port)
	err := http.ListenAndServe(":"+service.Port,
		handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, router)))
	if err != nil {
		logger.Default().WithError(err).Fatalln("server stopped")
	}
}
