package diet

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	userID, sessionID := createTestUser(t, "paula")

	createTestSnack(t, sessionID, userID, "paula's salad", true, "2024-05-01", "12:00")
	createTestSnack(t, sessionID, userID, "paula's smoothie", true, "2024-05-01", "16:00")
	createTestSnack(t, sessionID, userID, "paula's rice", true, "2024-05-02", "12:30")
	createTestSnack(t, sessionID, userID, "paula's donut", false, "2024-05-03", "15:00")

	var response struct {
		Metrics Metrics `json:"metrics"`
	}
	status, err := testService.client.RawGet("/diet/users/metrics/"+userID.String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)

	m := response.Metrics
	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 3, m.WithinDiet)
	assert.Equal(t, 1, m.OffDiet)
	assert.Equal(t, m.Total, m.WithinDiet+m.OffDiet)

	// daily counts cover the within-diet snacks only, ordered by date
	expected := []DailyCount{
		{Date: "2024-05-01", Count: 2},
		{Date: "2024-05-02", Count: 1},
	}
	assert.Equal(t, expected, m.BestSequence)
}

func TestMetricsOnlyCountOwnSnacks(t *testing.T) {
	userA, sessionA := createTestUser(t, "quentin")
	userB, sessionB := createTestUser(t, "rosa")
	createTestSnack(t, sessionA, userA, "quentin's toast", true, "2024-05-04", "08:00")
	createTestSnack(t, sessionB, userB, "rosa's toast", false, "2024-05-04", "08:00")

	var response struct {
		Metrics Metrics `json:"metrics"`
	}
	status, err := testService.client.RawGet("/diet/users/metrics/"+userA.String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, response.Metrics.Total)
	assert.Equal(t, 1, response.Metrics.WithinDiet)
	assert.Equal(t, 0, response.Metrics.OffDiet)
}

func TestMetricsUnknownUser(t *testing.T) {
	var response struct {
		Metrics Metrics `json:"metrics"`
	}
	status, err := testService.client.RawGet("/diet/users/metrics/"+uuid.New().String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, response.Metrics.Total)
	assert.Equal(t, []DailyCount{}, response.Metrics.BestSequence)
}

func TestMetricsInvalidID(t *testing.T) {
	status, _ := testService.client.RawGet("/diet/users/metrics/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetricsStable(t *testing.T) {
	userID, sessionID := createTestUser(t, "sven")
	createTestSnack(t, sessionID, userID, "sven's soup", true, "2024-05-05", "12:00")

	var first, second []byte
	_, err := testService.client.RawGet("/diet/users/metrics/"+userID.String(), &first)
	assert.Nil(t, err)
	_, err = testService.client.RawGet("/diet/users/metrics/"+userID.String(), &second)
	assert.Nil(t, err)
	assert.Equal(t, string(first), string(second))
}
