package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldAccountID     = "account_id"
	FieldAmountCents   = "amount_cents"
	FieldCategory      = "category"
	FieldPaymentID     = "payment_id"
	FieldRecordID      = "record_id"
	FieldImportID      = "import_id"
	FieldImportType    = "import_type"
	FieldRowsTotal     = "rows_total"
	FieldRowsInserted  = "rows_inserted"
	FieldRowsSkipped   = "rows_skipped"
	FieldPeriodStart   = "period_start"
	FieldPeriodEnd     = "period_end"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAnalytics = "analytics"
	ComponentImport    = "import"
	ComponentRecurring = "recurring"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpImport    = "import"
	OpExport    = "export"
	OpGenerate  = "generate"
	OpSummarize = "summarize"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
