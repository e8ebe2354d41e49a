package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldTrigger is the scheduler trigger name
	FieldTrigger = "trigger"

	// FieldJobID is the batch job ID
	FieldJobID = "job_id"

	// FieldCorrelationKey is the provider-issued batch identifier
	FieldCorrelationKey = "correlation_key"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSource is the ingestion source identifier
	FieldSource = "source"
)

// Standard metric fields, attached at the log site.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
