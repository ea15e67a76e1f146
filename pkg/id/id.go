package id

import (
	"github.com/gofrs/uuid"
)

// GenTraceID new random traceID
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}
