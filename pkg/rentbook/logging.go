package rentbook

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service mutations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one applied (or rejected) mutation.
type OperationLog struct {
	Action string
	Status string
	Error  error
}

// WithOperationLogger wires a logger that receives callbacks for every
// mutation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithIDGenerator replaces the opaque-token generator used for ids the
// caller left empty.
func WithIDGenerator(generator func() string) ServiceOption {
	return func(service *Service) {
		if generator != nil {
			service.newID = generator
		}
	}
}
