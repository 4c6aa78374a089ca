package rentbook

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDateAcceptsISODays(test *testing.T) {
	test.Parallel()
	date, err := ParseDate("2024-02-29")
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	if date != "2024-02-29" {
		test.Fatalf("unexpected date: %s", date)
	}
}

func TestParseDateRejectsMalformedInput(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"", "  ", "2024-13-01", "2023-02-29", "01/15/2024", "2024-1-5"} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			test.Fatalf("expected invalid date for %q, got %v", raw, err)
		}
	}
}

func TestDateOrderingIsLexicographic(test *testing.T) {
	test.Parallel()
	if !(Date("2024-01-09") < Date("2024-01-10")) {
		test.Fatal("date comparison broken for padded days")
	}
	if !(Date("2023-12-31") < Date("2024-01-01")) {
		test.Fatal("date comparison broken across years")
	}
}

func TestDateOfTruncatesToUTCDay(test *testing.T) {
	test.Parallel()
	instant := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("east", 3*3600))
	if day := DateOf(instant); day != "2024-03-01" {
		test.Fatalf("expected UTC day 2024-03-01, got %s", day)
	}
}

func TestParseEntryType(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"RENT", "DEPOSIT", "EXPENSE", "REFUND"} {
		if _, err := ParseEntryType(raw); err != nil {
			test.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseEntryType("rent"); !errors.Is(err, ErrInvalidEntryType) {
		test.Fatalf("entry types are case sensitive, got %v", err)
	}
}

func TestLedgerEntryValidate(test *testing.T) {
	test.Parallel()
	valid := LedgerEntry{ID: "l1", Date: "2024-01-01", Type: EntryRent, Amount: decimal.NewFromInt(100)}
	if err := valid.Validate(); err != nil {
		test.Fatalf("valid entry rejected: %v", err)
	}

	negative := valid
	negative.Amount = decimal.NewFromInt(-1)
	if err := negative.Validate(); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf("expected invalid amount, got %v", err)
	}

	badType := valid
	badType.Type = "LOAN"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidEntryType) {
		test.Fatalf("expected invalid entry type, got %v", err)
	}

	badDate := valid
	badDate.To = "soon"
	if err := badDate.Validate(); !errors.Is(err, ErrInvalidDate) {
		test.Fatalf("expected invalid date, got %v", err)
	}
}

func TestNormalizeFillsLegacyDocuments(test *testing.T) {
	test.Parallel()
	book := Book{}
	book.Normalize()
	if book.Currency != DefaultCurrency {
		test.Fatalf("expected default currency, got %q", book.Currency)
	}
	if book.Apartments == nil || book.Tenants == nil || book.Ledger == nil {
		test.Fatalf("collections must be non-nil: %+v", book)
	}

	populated := Book{Currency: "EUR", Tenants: []Tenant{{ID: "t1"}}}
	populated.Normalize()
	if populated.Currency != "EUR" || len(populated.Tenants) != 1 {
		test.Fatalf("normalize must not clobber data: %+v", populated)
	}
}

func TestBookJSONRoundTripMatchesPersistedLayout(test *testing.T) {
	test.Parallel()
	raw := `{"currency":"USD","apartments":[{"id":"a1","name":"Flat A","purchase":100000,"sub":[{"id":"s1","name":"Attic","purchase":5000}]}],"tenants":[{"id":"t1","name":"Alice"}],"ledger":[{"id":"l1","date":"2024-01-01","apartmentId":"a1","tenantId":"t1","type":"RENT","amount":750.5,"to":"2024-02-01"}]}`

	var book Book
	if err := json.Unmarshal([]byte(raw), &book); err != nil {
		test.Fatalf("unmarshal: %v", err)
	}
	if book.Apartments[0].Purchase.String() != "100000" {
		test.Fatalf("purchase mangled: %s", book.Apartments[0].Purchase)
	}

	encoded, err := json.Marshal(book)
	if err != nil {
		test.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(encoded), `"amount":"750.5"`) {
		test.Fatalf("amounts must encode as JSON numbers: %s", encoded)
	}
	if !strings.Contains(string(encoded), `"amount":750.5`) {
		test.Fatalf("amount missing from output: %s", encoded)
	}
}
