package diet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snacktrack/snacktrack/core"
)

func TestSnackCreateNotification(t *testing.T) {
	// drain anything left over from earlier tests
	for {
		select {
		case <-snackNotifications:
			continue
		default:
		}
		break
	}

	userID, sessionID := createTestUser(t, "tara")
	snackID := createTestSnack(t, sessionID, userID, "tara's tart", false, "2024-06-01", "15:00")

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case n := <-snackNotifications:
			if n.ResourceID != snackID {
				// notification from an earlier test, still in flight
				continue
			}
			assert.Equal(t, "snack", n.Resource)
			assert.Equal(t, core.OperationCreate, n.Operation)
			assert.Contains(t, string(n.Payload), "tara's tart")
			done = true
		case <-deadline:
			t.Fatal("no notification arrived")
		}
	}

	// the outbox row is gone once the notification was delivered
	assert.Eventually(t, func() bool {
		var count int
		err := testService.db.QueryRow(`SELECT count(*) FROM ` + testService.db.Schema + `."_notification_";`).Scan(&count)
		return err == nil && count == 0
	}, 5*time.Second, 100*time.Millisecond)
}
