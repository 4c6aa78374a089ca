package rentbook

const (
	operationStatusOK    = "ok"
	operationStatusError = "error"
)
