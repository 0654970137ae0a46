package constant

// PostgreSQL error codes the core reacts to. Classes are matched by
// prefix against pgconn.PgError.Code.
const (
	UniqueViolationCode      = "23505"
	ForeignKeyViolationCode  = "23503"
	SerializationFailureCode = "40001"
	DeadlockDetectedCode     = "40P01"
	ConnectionExceptionClass = "08"
)
