package core

import (
	"encoding/json"
	"fmt"
)

// Operation represents a modifying backend storage operation, one of Create, Update, Delete
type Operation string

// all supported database operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}
