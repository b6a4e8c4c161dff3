package diet

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/snacktrack/snacktrack/core"
	"github.com/snacktrack/snacktrack/core/logger"
)

// notificationTopic is the kafka topic for entity change notifications
const notificationTopic = "entity_notification"

// Notification is an entity change notification. Receive them
// with RequestNotifications()
type Notification struct {
	Serial       int             `json:"serial"`
	Resource     string          `json:"resource"`
	Operation    core.Operation  `json:"operation"`
	ResourceID   uuid.UUID       `json:"resource_id"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	AttemptsLeft int             `json:"attempts_left"`
}

type txNotification struct {
	tx           *sql.Tx
	notification Notification
}

func (b *Backend) handleNotifications() {
	_, err := b.db.Exec(`CREATE table IF NOT EXISTS ` + b.db.Schema + `."_notification_"
(serial SERIAL,
resource VARCHAR NOT NULL,
operation VARCHAR NOT NULL,
resource_id uuid NOT NULL,
payload JSON NOT NULL,
created_at TIMESTAMP NOT NULL,
attempts_left INTEGER NOT NULL,
PRIMARY KEY(serial)
);`)
	if err != nil {
		panic(err)
	}

	b.notificationsUpdateQuery = `UPDATE ` + b.db.Schema + `."_notification_"
SET attempts_left = attempts_left - 1
WHERE serial = (
SELECT serial
 FROM ` + b.db.Schema + `."_notification_"
 WHERE attempts_left > 0
 ORDER BY attempts_left, serial
 FOR UPDATE SKIP LOCKED
 LIMIT 1
)
RETURNING serial, resource, operation, resource_id, payload, created_at, attempts_left;
`
	b.notificationsDeleteQuery = `DELETE FROM ` + b.db.Schema + `."_notification_"
WHERE serial = $1 RETURNING serial;`
}

// NotificationRequest represents a notification request for a resource and
// a list of database operations
type NotificationRequest struct {
	Resource   string
	Operations []core.Operation
}

type notificationHandler struct {
	request  string
	callback func(Notification) error
}

// RequestNotifications requests entity change notifications and installs a handler for them.
//
// There can only be one handler for each unique combination of resource and operation.
//
// If a handler returns an error and the notification still has attempts left, then it will be
// rescheduled. The number of possible attempts is a configuration setting of the backend itself.
//
// The order of notifications is based on the number of attempts left (highest first)
func (b *Backend) RequestNotifications(handler func(Notification) error, requests ...NotificationRequest) {
	for _, request := range requests {
		for _, operation := range request.Operations {
			key := notificationRequestKey(request.Resource, operation)
			if _, ok := b.handlers[key]; ok {
				logger.Default().Fatalf("notification handler for %s already installed", key)
			}
			logger.Default().Debugf("install notification handler %s", key)
			b.handlers[key] = notificationHandler{request: key, callback: handler}
		}
	}
}

func notificationRequestKey(resource string, operation core.Operation) string {
	return string(operation) + " " + resource
}

// hasConsumers returns true if anybody will ever pick up a notification for
// the given change, either an in-process handler or the kafka topic
func (b *Backend) hasConsumers(resource string, operation core.Operation) bool {
	if b.kafkaWriter != nil {
		return true
	}
	_, ok := b.handlers[notificationRequestKey(resource, operation)]
	return ok
}

// notify records an entity change notification inside the entity's own
// transaction, provided there is a consumer for it
func (b *Backend) notify(tx *sql.Tx, resource string, operation core.Operation, resourceID uuid.UUID, payload []byte) error {
	if !b.hasConsumers(resource, operation) {
		return nil
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	var serial int
	return tx.QueryRow("INSERT INTO "+b.db.Schema+".\"_notification_\""+
		"(resource,operation,resource_id,payload,created_at,attempts_left)"+
		"VALUES($1,$2,$3,$4,$5,$6) RETURNING serial;",
		resource,
		operation,
		resourceID,
		payload,
		time.Now().UTC(),
		b.pipelineMaxAttempts,
	).Scan(&serial)
}

// notifyCommitted triggers the delivery pipeline after the entity
// transaction has committed
func (b *Backend) notifyCommitted(resource string, operation core.Operation) {
	if b.hasConsumers(resource, operation) {
		b.triggerNotifications()
	}
}

// TriggerNotifications triggers pipeline processing by eventually calling
// ProcessNotifications(), by default in another go-routine.
func (b *Backend) TriggerNotifications() {
	b.triggerNotifications()
}

func callWithPanicEnvelope(callback func(Notification) error, notification Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %s", r)
		}
	}()
	err = callback(notification)
	return
}

func (b *Backend) deliver(notification Notification) error {
	request := notificationRequestKey(notification.Resource, notification.Operation)
	if handler, ok := b.handlers[request]; ok {
		return callWithPanicEnvelope(handler.callback, notification)
	}
	if b.kafkaWriter != nil {
		value, err := json.Marshal(notification)
		if err != nil {
			return err
		}
		return b.kafkaWriter.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte(notification.Resource + "/" + notification.ResourceID.String()),
			Value: value,
		})
	}
	return fmt.Errorf("no consumer for %s", request)
}

func (b *Backend) pipelineWorker(wg *sync.WaitGroup, jobs chan txNotification, output chan string) {
	defer wg.Done()

	for job := range jobs {
		tx := job.tx
		notification := job.notification
		request := notificationRequestKey(notification.Resource, notification.Operation)

		err := b.deliver(notification)
		if err != nil {
			output <- "error processing #" + strconv.Itoa(notification.Serial) + " " + request + ": " + err.Error()
			tx.Commit()
			continue
		}

		// notification handled successfully, delete from queue
		var serial int
		err = tx.QueryRow(b.notificationsDeleteQuery, &notification.Serial).Scan(&serial)
		if err == nil {
			err = tx.Commit()
		}
		if err != nil {
			output <- "error committing #" + strconv.Itoa(notification.Serial) + " " + request + ": " + err.Error()
		} else {
			output <- "successfully handled #" + strconv.Itoa(serial) + " " + request
		}
	}
}

// ProcessNotifications processes all pending notifications
func (b *Backend) ProcessNotifications() {
	output := make(chan string, 100)
	collect := make(chan []string)

	go func() {
		var collected []string
		for s := range output {
			collected = append(collected, s)
		}
		collect <- collected
	}()

	jobs := make(chan txNotification, 20)
	var wg sync.WaitGroup
	wg.Add(b.pipelineConcurrency)
	for i := 0; i < b.pipelineConcurrency; i++ {
		go b.pipelineWorker(&wg, jobs, output)
	}

	for {
		tx, err := b.db.BeginTx(context.Background(), nil)
		if err != nil {
			output <- "failed to begin transaction: " + err.Error()
			break
		}

		var notification Notification
		err = tx.QueryRow(b.notificationsUpdateQuery).Scan(
			&notification.Serial,
			&notification.Resource,
			&notification.Operation,
			&notification.ResourceID,
			&notification.Payload,
			&notification.CreatedAt,
			&notification.AttemptsLeft,
		)
		if err != nil {
			if err != sql.ErrNoRows {
				output <- "failed to retrieve notification: " + err.Error()
			}
			tx.Rollback()
			break
		}
		jobs <- txNotification{tx, notification}
	}
	close(jobs)
	wg.Wait()
	close(output)
	collected := <-collect
	if len(collected) > 0 {
		logger.Default().Debugln("notification processing report:\n  ", strings.Join(collected, "\n  "))
	}
}
