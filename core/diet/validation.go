package diet

// Request body schemas. Validation is strict about field presence and
// primitive types, but numeric fields are not range checked and extra
// fields are tolerated. Updates require the complete field set, there are
// no patch semantics.

const (
	createUserSchemaID  = "http://snacktrack.io/schemas/create-user.json"
	createSnackSchemaID = "http://snacktrack.io/schemas/create-snack.json"
	updateSnackSchemaID = "http://snacktrack.io/schemas/update-snack.json"
)

var requestSchemas = []string{
	`{
	"$id": "http://snacktrack.io/schemas/create-user.json",
	"type": "object",
	"required": ["name", "age", "height", "weight"],
	"properties": {
		"name":   { "type": "string" },
		"age":    { "type": "number" },
		"height": { "type": "number" },
		"weight": { "type": "number" }
	}
}`,
	`{
	"$id": "http://snacktrack.io/schemas/create-snack.json",
	"type": "object",
	"required": ["title", "description", "at_diet", "date", "time", "userId"],
	"properties": {
		"title":       { "type": "string" },
		"description": { "type": "string" },
		"at_diet":     { "type": "boolean" },
		"date":        { "type": "string" },
		"time":        { "type": "string" },
		"userId":      { "type": "string", "format": "uuid" }
	}
}`,
	`{
	"$id": "http://snacktrack.io/schemas/update-snack.json",
	"type": "object",
	"required": ["title", "description", "at_diet", "date", "time"],
	"properties": {
		"title":       { "type": "string" },
		"description": { "type": "string" },
		"at_diet":     { "type": "boolean" },
		"date":        { "type": "string" },
		"time":        { "type": "string" }
	}
}`,
}
