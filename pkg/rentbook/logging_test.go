package rentbook

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recorderLogger struct {
	entries []OperationLog
}

func (recorder *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	recorder.entries = append(recorder.entries, entry)
}

func TestApplyLogsSuccessfulMutations(test *testing.T) {
	test.Parallel()
	recorder := &recorderLogger{}
	service := mustNewService(test, &stubStore{book: DefaultBook()}, WithOperationLogger(recorder))

	if _, err := service.Apply(context.Background(), AddTenant{ID: "t1", Name: "Alice"}); err != nil {
		test.Fatalf("addTenant: %v", err)
	}
	if len(recorder.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Action != ActionAddTenant || entry.Status != "ok" || entry.Error != nil {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestApplyLogsRejectedMutations(test *testing.T) {
	test.Parallel()
	recorder := &recorderLogger{}
	service := mustNewService(test, &stubStore{book: DefaultBook()}, WithOperationLogger(recorder))

	if _, err := service.Apply(context.Background(), DeleteTenant{ID: "ghost"}); err == nil {
		test.Fatal("expected rejection")
	}
	entry := recorder.entries[0]
	if entry.Action != ActionDeleteTenant || entry.Status != "error" {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if !errors.Is(entry.Error, ErrTenantNotFound) {
		test.Fatalf("expected cause in log entry, got %v", entry.Error)
	}
}

func TestApplyToleratesMissingLogger(test *testing.T) {
	test.Parallel()
	service, err := NewService(&stubStore{book: DefaultBook()}, time.Now)
	if err != nil {
		test.Fatalf("service init: %v", err)
	}
	if _, err := service.Apply(context.Background(), AddTenant{ID: "t1", Name: "Alice"}); err != nil {
		test.Fatalf("apply without logger: %v", err)
	}
}
