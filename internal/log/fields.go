package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldOperation    = "operation"
	FieldError        = "error"
	FieldPlatform     = "platform"
	FieldUserID       = "user_id"
	FieldChannelID    = "channel_id"
	FieldCommand      = "command"
	FieldWindow       = "window"
	FieldCategory     = "category"
	FieldItem         = "item"
	FieldAmount       = "amount"
	FieldSheetsRef    = "sheets_ref"
	FieldRecords      = "records"
	FieldRejectedRows = "rejected_rows"
	FieldDuration     = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentDiscord  = "discord"
	ComponentTelegram = "telegram"
	ComponentSheets   = "sheets"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentHTTP     = "http"
	ComponentBackend  = "backend"
	ComponentAudit    = "audit"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpRead     = "read"
	OpSummary  = "summary"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpValidate = "validate"
	OpParse    = "parse"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSender adds the origin of a chat event
func (f LogFields) WithSender(platform, channelID, userID string) LogFields {
	f[FieldPlatform] = platform
	f[FieldChannelID] = channelID
	f[FieldUserID] = userID
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(category, item, amount string) LogFields {
	f[FieldCategory] = category
	f[FieldItem] = item
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
