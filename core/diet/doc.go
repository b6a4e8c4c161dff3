/*
Package diet implements the diet tracking REST backend.

The backend manages three postgres relations - users, snack and the
relusersnack link table - and exposes them under a common path prefix,
by default "/diet":

	POST   /users                  register a user, establishes the session cookie
	GET    /users                  list all users (session gated)
	GET    /users/{userId}         read one user of the calling session (session gated)
	GET    /users/snacks/{userId}  list the snacks linked to a user
	GET    /users/metrics/{userId} aggregate snack metrics for a user
	POST   /snack                  log a snack, establishes the session cookie
	GET    /snack                  list the snacks of the calling session (session gated)
	GET    /snack/{id}             read one snack of the calling session (session gated)
	PUT    /snack/{id}             update a snack of the calling session (session gated)
	DELETE /snack/{id}             delete a snack of the calling session (session gated)
	GET    /relship                list all user-snack link rows
	GET    /version                build version
	GET    /statistics             per-table row counts and sizes

Ownership is scoped by the opaque session cookie, see the session package.
Mutations on snacks only ever touch rows of the calling session. Reads of
missing rows produce an empty value in a 200 response, not a 404.

Writes record entity change notifications in an outbox table inside the
entity transaction; consumers register in-process handlers with
RequestNotifications, or the notifications are published to Kafka when the
backend was built with brokers.
*/
package diet
