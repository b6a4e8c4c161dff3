package diet

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/snacktrack/snacktrack/core/session"
)

func TestCreateUserEstablishesSession(t *testing.T) {
	body := map[string]interface{}{"name": "alice", "age": 28, "height": 170, "weight": 60}
	status, header, err := testService.client.RawPostWithHeader("/diet/users", nil, &body, nil)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusCreated, status)

	sessionID, ok := sessionFromHeader(header)
	if !ok {
		t.Fatal("expected a session cookie on first write")
	}

	var storedSession uuid.UUID
	err = testService.db.QueryRow(fmt.Sprintf(`SELECT session_id FROM %s."users" WHERE name = $1;`,
		testService.db.Schema), "alice").Scan(&storedSession)
	assert.Nil(t, err)
	assert.Equal(t, sessionID, storedSession)
}

func TestCreateUserReusesSession(t *testing.T) {
	sessionID := uuid.New()
	cookie := http.Cookie{Name: session.CookieName, Value: sessionID.String()}

	body := map[string]interface{}{"name": "bob", "age": 42, "height": 185, "weight": 90}
	status, header, err := testService.client.RawPostWithHeader("/diet/users",
		map[string]string{"Cookie": cookie.String()}, &body, nil)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusCreated, status)

	// an existing session must not be replaced
	if _, ok := sessionFromHeader(header); ok {
		t.Fatal("session cookie was set although the request already had one")
	}

	var storedSession uuid.UUID
	err = testService.db.QueryRow(fmt.Sprintf(`SELECT session_id FROM %s."users" WHERE name = $1;`,
		testService.db.Schema), "bob").Scan(&storedSession)
	assert.Nil(t, err)
	assert.Equal(t, sessionID, storedSession)
}

func TestCreateUserValidation(t *testing.T) {
	var count int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s."users";`, testService.db.Schema)
	err := testService.db.QueryRow(countQuery).Scan(&count)
	assert.Nil(t, err)

	// name is required
	body := map[string]interface{}{"age": 28, "height": 170, "weight": 60}
	status, _ := testService.client.RawPost("/diet/users", &body, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// age must be a number
	body = map[string]interface{}{"name": "carl", "age": "twenty", "height": 170, "weight": 60}
	status, _ = testService.client.RawPost("/diet/users", &body, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = testService.client.RawPost("/diet/users", []byte("not json"), nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// nothing was written
	var countAfter int
	err = testService.db.QueryRow(countQuery).Scan(&countAfter)
	assert.Nil(t, err)
	assert.Equal(t, count, countAfter)
}

func TestListUsersVisibleAcrossSessions(t *testing.T) {
	userID, _ := createTestUser(t, "dora")

	// the user list is not scoped, any session sees all users
	var response struct {
		Users []User `json:"users"`
	}
	status, err := clientWithSession(uuid.New()).RawGet("/diet/users", &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)

	found := false
	for _, u := range response.Users {
		if u.ID == userID {
			found = true
			assert.Equal(t, "dora", u.Name)
		}
	}
	assert.True(t, found)
}

func TestReadUserScopedToSession(t *testing.T) {
	userID, sessionID := createTestUser(t, "emma")

	var response struct {
		User *User `json:"user"`
	}
	status, err := clientWithSession(sessionID).RawGet("/diet/users/"+userID.String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	if assert.NotNil(t, response.User) {
		assert.Equal(t, userID, response.User.ID)
		assert.Equal(t, "emma", response.User.Name)
	}

	// another session gets an empty result, not an error
	response.User = nil
	status, err = clientWithSession(uuid.New()).RawGet("/diet/users/"+userID.String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, response.User)
}

func TestReadUserInvalidID(t *testing.T) {
	status, _ := clientWithSession(uuid.New()).RawGet("/diet/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListUserSnacks(t *testing.T) {
	userID, sessionID := createTestUser(t, "frida")
	snackID := createTestSnack(t, sessionID, userID, "frida's apple", true, "2024-03-01", "09:30")

	var response struct {
		Snacks []Snack `json:"stacksUser"`
	}
	status, err := testService.client.RawGet("/diet/users/snacks/"+userID.String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	if assert.Len(t, response.Snacks, 1) {
		assert.Equal(t, snackID, response.Snacks[0].ID)
		assert.Equal(t, "frida's apple", response.Snacks[0].Title)
		assert.Equal(t, "2024-03-01", response.Snacks[0].Date)
	}

	// unknown user simply has no snacks
	response.Snacks = nil
	status, err = testService.client.RawGet("/diet/users/snacks/"+uuid.New().String(), &response)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []Snack{}, response.Snacks)
}
