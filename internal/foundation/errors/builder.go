package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
// The retry strategy starts from the category default.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    defaultRetry(category),
		message:  message,
		context:  make(ErrorContext),
	}
}

func defaultRetry(category ErrorCategory) RetryStrategy {
	switch category {
	case CategoryProject, CategoryPublish, CategoryDNS, CategoryNetwork, CategoryFileSystem, CategoryNotFound:
		return RetryNextPass
	case CategoryConfig, CategoryValidation, CategoryAuth, CategorySeed:
		return RetryUserAction
	default:
		return RetryNever
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithCause sets the underlying cause.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.cause = cause
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// NextPass marks the error as expected to clear on the next scheduled pass.
func (b *ErrorBuilder) NextPass() *ErrorBuilder {
	return b.WithRetry(RetryNextPass)
}

// UserAction sets the retry strategy to require operator intervention.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error (ConfigurationMissing).
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// AuthError creates an authentication error.
func AuthError(message string) *ErrorBuilder {
	return NewError(CategoryAuth, message).UserAction()
}

// ProjectSkipped creates a warning for a project that cannot be processed this pass.
func ProjectSkipped(message string) *ErrorBuilder {
	return NewError(CategoryProject, message).Warning().NextPass()
}

// SeedError creates a SeedIOFailure. It is never retryable by the service
// itself: minting a replacement would rotate the project's public identity.
func SeedError(message string) *ErrorBuilder {
	return NewError(CategorySeed, message).UserAction()
}

// PublishError creates a backend publish failure.
func PublishError(message string) *ErrorBuilder {
	return NewError(CategoryPublish, message).NextPass()
}

// DNSError creates a DNS provider API failure.
func DNSError(message string) *ErrorBuilder {
	return NewError(CategoryDNS, message).NextPass()
}

// NetworkError creates a transport-level failure.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).NextPass()
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).NextPass()
}

// DaemonError creates a daemon lifecycle error.
func DaemonError(message string) *ErrorBuilder {
	return NewError(CategoryDaemon, message).Fatal()
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
