package rentbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts travel as plain JSON numbers, matching the persisted document
// layout.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCurrency is applied to documents that predate the currency field.
const DefaultCurrency = "USD"

const dateLayout = "2006-01-02"

// Date is a zero-padded ISO calendar day (YYYY-MM-DD). Lexicographic order
// equals chronological order, so Date values compare with < and >.
type Date string

// ParseDate validates and normalizes a calendar day.
func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return Date(parsed.Format(dateLayout)), nil
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(instant time.Time) Date {
	return Date(instant.UTC().Format(dateLayout))
}

// IsZero reports whether the date is absent.
func (date Date) IsZero() bool {
	return date == ""
}

// Time returns the UTC midnight of the day.
func (date Date) Time() (time.Time, error) {
	parsed, err := time.Parse(dateLayout, string(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(date))
	}
	return parsed.UTC(), nil
}

// String returns the ISO day string.
func (date Date) String() string {
	return string(date)
}

// EntryType enumerates ledger entry kinds.
type EntryType string

const (
	EntryRent    EntryType = "RENT"
	EntryDeposit EntryType = "DEPOSIT"
	EntryExpense EntryType = "EXPENSE"
	EntryRefund  EntryType = "REFUND"
)

// ParseEntryType validates a ledger entry kind.
func ParseEntryType(raw string) (EntryType, error) {
	switch EntryType(raw) {
	case EntryRent, EntryDeposit, EntryExpense, EntryRefund:
		return EntryType(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEntryType, raw)
}

// String returns the wire representation.
func (entryType EntryType) String() string {
	return string(entryType)
}

// Book is the single persisted aggregate: every property, tenant, and
// financial event of the operator, read and rewritten wholesale.
type Book struct {
	Currency   string        `json:"currency"`
	Apartments []Apartment   `json:"apartments"`
	Tenants    []Tenant      `json:"tenants"`
	Ledger     []LedgerEntry `json:"ledger"`
}

// Apartment is one physical property, optionally split into sub-units
// (floors, rooms, parking spots).
type Apartment struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Purchase decimal.Decimal `json:"purchase"`
	Sub      []SubUnit       `json:"sub,omitempty"`
}

// SubUnit is a rentable part of an apartment.
type SubUnit struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Purchase decimal.Decimal `json:"purchase"`
}

// Tenant is a renter known by display name only.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LedgerEntry is one financial event. Amounts are stored positive; the
// type carries the meaning. From/To bound the coverage period a RENT
// entry pays for.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	ApartmentID string          `json:"apartmentId,omitempty"`
	SubID       string          `json:"subId,omitempty"`
	TenantID    string          `json:"tenantId,omitempty"`
	Type        EntryType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	From        Date            `json:"from,omitempty"`
	To          Date            `json:"to,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// Validate checks the entry's own fields. Referential integrity is
// deliberately not checked on insert.
func (entry LedgerEntry) Validate() error {
	if _, err := ParseEntryType(string(entry.Type)); err != nil {
		return err
	}
	if entry.Amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	for _, date := range []Date{entry.Date, entry.From, entry.To} {
		if date.IsZero() {
			continue
		}
		if _, err := ParseDate(string(date)); err != nil {
			return err
		}
	}
	return nil
}

// DefaultBook is the document returned when nothing has been persisted yet.
func DefaultBook() Book {
	return Book{
		Currency:   DefaultCurrency,
		Apartments: []Apartment{},
		Tenants:    []Tenant{},
		Ledger:     []LedgerEntry{},
	}
}

// Normalize applies the read-time defaults that stand in for schema
// migrations: documents written before a field existed load as if the
// field had been there all along.
func (book *Book) Normalize() {
	if strings.TrimSpace(book.Currency) == "" {
		book.Currency = DefaultCurrency
	}
	if book.Apartments == nil {
		book.Apartments = []Apartment{}
	}
	if book.Tenants == nil {
		book.Tenants = []Tenant{}
	}
	if book.Ledger == nil {
		book.Ledger = []LedgerEntry{}
	}
}

func (book *Book) findApartment(id string) *Apartment {
	for index := range book.Apartments {
		if book.Apartments[index].ID == id {
			return &book.Apartments[index]
		}
	}
	return nil
}

func (book *Book) findTenant(id string) *Tenant {
	for index := range book.Tenants {
		if book.Tenants[index].ID == id {
			return &book.Tenants[index]
		}
	}
	return nil
}

func (book *Book) findEntryIndex(id string) int {
	for index := range book.Ledger {
		if book.Ledger[index].ID == id {
			return index
		}
	}
	return -1
}

func (apartment *Apartment) findSub(id string) *SubUnit {
	for index := range apartment.Sub {
		if apartment.Sub[index].ID == id {
			return &apartment.Sub[index]
		}
	}
	return nil
}

func (apartment *Apartment) subIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(apartment.Sub))
	for _, sub := range apartment.Sub {
		ids[sub.ID] = struct{}{}
	}
	return ids
}
