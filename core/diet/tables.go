package diet

import (
	"fmt"

	"github.com/snacktrack/snacktrack/core/logger"
)

// userSnacksJoin is the join from a user through the link relation to its
// snacks, shared by the snacks-for-user and metrics queries
func userSnacksJoin(schema string) string {
	return fmt.Sprintf(`FROM %[1]s."users"
LEFT JOIN %[1]s."relusersnack" ON relusersnack."userId" = users.id
LEFT JOIN %[1]s."snack" ON relusersnack."snackId" = snack.id
WHERE relusersnack."userId" = $1`, schema)
}

// createTables creates the three relations if they do not exist yet. The
// relusersnack link table is the sole source of truth for the user-snack
// association and carries the only two foreign keys, both cascading.
func (b *Backend) createTables() {
	schema := b.db.Schema

	createQuery := fmt.Sprintf(`
CREATE table IF NOT EXISTS %[1]s."users" (
	id uuid NOT NULL PRIMARY KEY,
	name text NOT NULL,
	age smallint NOT NULL,
	height smallint NOT NULL,
	weight smallint NOT NULL,
	session_id uuid
);
CREATE index IF NOT EXISTS users_session_id ON %[1]s."users"(session_id);
CREATE table IF NOT EXISTS %[1]s."snack" (
	id uuid NOT NULL PRIMARY KEY,
	title text NOT NULL,
	description text NOT NULL,
	created_at timestamp NOT NULL DEFAULT now(),
	date date NOT NULL,
	time time NOT NULL,
	at_diet boolean NOT NULL,
	session_id uuid
);
CREATE index IF NOT EXISTS snack_session_id ON %[1]s."snack"(session_id);
CREATE table IF NOT EXISTS %[1]s."relusersnack" (
	"idRel" uuid NOT NULL PRIMARY KEY,
	"userId" uuid NOT NULL REFERENCES %[1]s."users" (id) ON DELETE CASCADE,
	"snackId" uuid NOT NULL REFERENCES %[1]s."snack" (id) ON DELETE CASCADE
);
`, schema)

	_, err := b.db.Exec(createQuery)
	if err != nil {
		logger.Default().WithError(err).Errorf("Error while updating schema when running: %s", createQuery)
		panic(fmt.Sprintf("invalid schema update: %v", err))
	}
}
