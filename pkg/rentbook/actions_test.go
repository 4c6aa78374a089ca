package rentbook

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func decodeOrFail(test *testing.T, raw string) Action {
	test.Helper()
	action, err := DecodeAction([]byte(raw))
	if err != nil {
		test.Fatalf("decode %s: %v", raw, err)
	}
	return action
}

func TestDecodeActionAddApartment(test *testing.T) {
	test.Parallel()
	action := decodeOrFail(test, `{"action":"addApartment","data":{"id":"a1","name":"Flat A","purchase":100000}}`)
	request, ok := action.(AddApartment)
	if !ok {
		test.Fatalf("expected AddApartment, got %T", action)
	}
	if request.ID != "a1" || request.Name != "Flat A" {
		test.Fatalf("unexpected payload: %+v", request)
	}
	if request.Purchase.String() != "100000" {
		test.Fatalf("unexpected purchase: %s", request.Purchase)
	}
}

func TestDecodeActionUpdateApartmentDistinguishesAbsentFields(test *testing.T) {
	test.Parallel()
	action := decodeOrFail(test, `{"action":"updateApartment","data":{"id":"a1","name":"Renamed"}}`)
	request, ok := action.(UpdateApartment)
	if !ok {
		test.Fatalf("expected UpdateApartment, got %T", action)
	}
	if request.Name == nil || *request.Name != "Renamed" {
		test.Fatalf("expected name patch, got %+v", request)
	}
	if request.Purchase != nil {
		test.Fatalf("absent field must decode to nil, got %v", request.Purchase)
	}
}

func TestDecodeActionDeleteVariantsReadTopLevelIDs(test *testing.T) {
	test.Parallel()

	action := decodeOrFail(test, `{"action":"deleteApartment","id":"a1"}`)
	if request, ok := action.(DeleteApartment); !ok || request.ID != "a1" {
		test.Fatalf("unexpected deleteApartment decode: %#v", action)
	}

	action = decodeOrFail(test, `{"action":"deleteSub","apartmentId":"a1","subId":"s1"}`)
	if request, ok := action.(DeleteSub); !ok || request.ApartmentID != "a1" || request.SubID != "s1" {
		test.Fatalf("unexpected deleteSub decode: %#v", action)
	}

	action = decodeOrFail(test, `{"action":"deleteTenant","id":"t1"}`)
	if request, ok := action.(DeleteTenant); !ok || request.ID != "t1" {
		test.Fatalf("unexpected deleteTenant decode: %#v", action)
	}

	action = decodeOrFail(test, `{"action":"deleteLedger","id":"l1"}`)
	if request, ok := action.(DeleteLedger); !ok || request.ID != "l1" {
		test.Fatalf("unexpected deleteLedger decode: %#v", action)
	}
}

func TestDecodeActionAddLedger(test *testing.T) {
	test.Parallel()
	action := decodeOrFail(test, `{"action":"addLedger","data":{"id":"l1","date":"2024-03-01","apartmentId":"a1","tenantId":"t1","type":"RENT","amount":750.50,"from":"2024-03-01","to":"2024-03-31"}}`)
	request, ok := action.(AddLedger)
	if !ok {
		test.Fatalf("expected AddLedger, got %T", action)
	}
	entry := request.Entry
	if entry.ID != "l1" || entry.Type != EntryRent || entry.To != "2024-03-31" {
		test.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.Amount.Equal(decimal.NewFromFloat(750.5)) {
		test.Fatalf("unexpected amount: %s", entry.Amount)
	}
}

func TestDecodeActionUpdateLedgerPatch(test *testing.T) {
	test.Parallel()
	action := decodeOrFail(test, `{"action":"updateLedger","data":{"id":"l1","note":"late payment","amount":800}}`)
	request, ok := action.(UpdateLedger)
	if !ok {
		test.Fatalf("expected UpdateLedger, got %T", action)
	}
	if request.ID != "l1" || request.Note == nil || *request.Note != "late payment" {
		test.Fatalf("unexpected patch: %+v", request)
	}
	if request.Date != nil || request.Type != nil {
		test.Fatalf("absent fields must decode to nil: %+v", request)
	}
}

func TestDecodeActionReplaceAll(test *testing.T) {
	test.Parallel()
	action := decodeOrFail(test, `{"action":"replaceAll","data":{"currency":"EUR","tenants":[]}}`)
	request, ok := action.(ReplaceAll)
	if !ok {
		test.Fatalf("expected ReplaceAll, got %T", action)
	}
	if request.Currency == nil || *request.Currency != "EUR" {
		test.Fatalf("expected currency patch, got %+v", request)
	}
	if request.Tenants == nil || len(*request.Tenants) != 0 {
		test.Fatalf("expected explicit empty tenants, got %+v", request.Tenants)
	}
	if request.Apartments != nil || request.Ledger != nil {
		test.Fatalf("absent collections must decode to nil: %+v", request)
	}
}

func TestDecodeActionRejectsUnknownAction(test *testing.T) {
	test.Parallel()
	_, err := DecodeAction([]byte(`{"action":"dropEverything","data":{}}`))
	if !errors.Is(err, ErrInvalidAction) {
		test.Fatalf("expected invalid action, got %v", err)
	}
}

func TestDecodeActionRejectsMissingAction(test *testing.T) {
	test.Parallel()
	_, err := DecodeAction([]byte(`{"data":{"id":"a1"}}`))
	if !errors.Is(err, ErrInvalidPayload) {
		test.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestDecodeActionRejectsMalformedBody(test *testing.T) {
	test.Parallel()
	_, err := DecodeAction([]byte(`{"action":`))
	if !errors.Is(err, ErrInvalidPayload) {
		test.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestDecodeActionRejectsMissingData(test *testing.T) {
	test.Parallel()
	_, err := DecodeAction([]byte(`{"action":"addApartment"}`))
	if !errors.Is(err, ErrInvalidPayload) {
		test.Fatalf("expected invalid payload, got %v", err)
	}
}
