package rentbook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract for the single document.
type Store interface {
	Load(ctx context.Context) (Book, error)
	Save(ctx context.Context, book Book) error
}

// Service applies mutations to the document as whole read-modify-write
// cycles. A mutex serializes writers within the process; separate
// processes sharing one backing document still race last-write-wins.
type Service struct {
	store      Store
	nowFn      func() time.Time
	newID      func() string
	logger     OperationLogger
	mutateLock sync.Mutex
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, newID: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Book loads the current document, applying the read-time defaults for
// fields that older documents omit.
func (service *Service) Book(ctx context.Context) (Book, error) {
	book, err := service.store.Load(ctx)
	if err != nil {
		return Book{}, err
	}
	book.Normalize()
	return book, nil
}

// Report computes every derived view over the current document in one
// load. The window restricts totals and ROI; coverage always reflects the
// full ledger against the service clock.
func (service *Service) Report(ctx context.Context, window Window) (Report, error) {
	book, err := service.Book(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Totals:     Summarize(book, window),
		Properties: ROIByProperty(book, window),
		Coverage:   Coverage(book, service.nowFn()),
	}, nil
}

// Apply runs one mutation: load the document, transform it in memory,
// write it back. A failure before the save means the backing store keeps
// its prior value; there is no partial-success state.
func (service *Service) Apply(ctx context.Context, action Action) (Book, error) {
	service.mutateLock.Lock()
	defer service.mutateLock.Unlock()

	book, operationError := service.applyOnce(ctx, action)
	service.logOperation(ctx, OperationLog{
		Action: action.actionName(),
		Error:  operationError,
	})
	if operationError != nil {
		return Book{}, operationError
	}
	return book, nil
}

func (service *Service) applyOnce(ctx context.Context, action Action) (Book, error) {
	book, err := service.store.Load(ctx)
	if err != nil {
		return Book{}, err
	}
	book.Normalize()
	if err := service.mutate(&book, action); err != nil {
		return Book{}, err
	}
	if err := service.store.Save(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func (service *Service) mutate(book *Book, action Action) error {
	switch request := action.(type) {
	case AddApartment:
		return service.addApartment(book, request)
	case UpdateApartment:
		return updateApartment(book, request)
	case DeleteApartment:
		return deleteApartment(book, request)
	case AddSub:
		return service.addSub(book, request)
	case UpdateSub:
		return updateSub(book, request)
	case DeleteSub:
		return deleteSub(book, request)
	case AddTenant:
		return service.addTenant(book, request)
	case UpdateTenant:
		return updateTenant(book, request)
	case DeleteTenant:
		return deleteTenant(book, request)
	case AddLedger:
		return service.addLedger(book, request)
	case UpdateLedger:
		return updateLedger(book, request)
	case DeleteLedger:
		return deleteLedger(book, request)
	case ReplaceAll:
		return replaceAll(book, request)
	}
	return fmt.Errorf("%w: unsupported action type %T", ErrInvalidAction, action)
}

// fillID keeps caller-supplied identifiers and generates an opaque token
// when the caller left the id empty.
func (service *Service) fillID(id string) string {
	if strings.TrimSpace(id) == "" {
		return service.newID()
	}
	return id
}

func (service *Service) addApartment(book *Book, request AddApartment) error {
	if request.Purchase.IsNegative() {
		return fmt.Errorf("%w: purchase must not be negative", ErrInvalidAmount)
	}
	apartment := Apartment{
		ID:       service.fillID(request.ID),
		Name:     request.Name,
		Purchase: request.Purchase,
		Sub:      request.Sub,
	}
	if apartment.Sub == nil {
		apartment.Sub = []SubUnit{}
	}
	book.Apartments = append(book.Apartments, apartment)
	return nil
}

func updateApartment(book *Book, request UpdateApartment) error {
	apartment := book.findApartment(request.ID)
	if apartment == nil {
		return fmt.Errorf("%w: %q", ErrApartmentNotFound, request.ID)
	}
	if request.Name != nil {
		apartment.Name = *request.Name
	}
	if request.Purchase != nil {
		if request.Purchase.IsNegative() {
			return fmt.Errorf("%w: purchase must not be negative", ErrInvalidAmount)
		}
		apartment.Purchase = *request.Purchase
	}
	return nil
}

func deleteApartment(book *Book, request DeleteApartment) error {
	apartment := book.findApartment(request.ID)
	if apartment == nil {
		return fmt.Errorf("%w: %q", ErrApartmentNotFound, request.ID)
	}
	subIDs := apartment.subIDSet()
	kept := book.Ledger[:0]
	for _, entry := range book.Ledger {
		if entry.ApartmentID == request.ID {
			continue
		}
		if entry.SubID != "" {
			if _, owned := subIDs[entry.SubID]; owned {
				continue
			}
		}
		kept = append(kept, entry)
	}
	book.Ledger = kept

	apartments := book.Apartments[:0]
	for _, candidate := range book.Apartments {
		if candidate.ID != request.ID {
			apartments = append(apartments, candidate)
		}
	}
	book.Apartments = apartments
	return nil
}

func (service *Service) addSub(book *Book, request AddSub) error {
	apartment := book.findApartment(request.ApartmentID)
	if apartment == nil {
		return fmt.Errorf("%w: %q", ErrApartmentNotFound, request.ApartmentID)
	}
	sub := request.Sub
	sub.ID = service.fillID(sub.ID)
	apartment.Sub = append(apartment.Sub, sub)
	return nil
}

func updateSub(book *Book, request UpdateSub) error {
	apartment := book.findApartment(request.ApartmentID)
	if apartment == nil {
		return fmt.Errorf("%w: %q", ErrApartmentNotFound, request.ApartmentID)
	}
	sub := apartment.findSub(request.Sub.ID)
	if sub == nil {
		return fmt.Errorf("%w: %q", ErrSubUnitNotFound, request.Sub.ID)
	}
	if request.Sub.Name != nil {
		sub.Name = *request.Sub.Name
	}
	if request.Sub.Purchase != nil {
		sub.Purchase = *request.Sub.Purchase
	}
	return nil
}

func deleteSub(book *Book, request DeleteSub) error {
	apartment := book.findApartment(request.ApartmentID)
	if apartment == nil {
		return fmt.Errorf("%w: %q", ErrApartmentNotFound, request.ApartmentID)
	}
	if apartment.findSub(request.SubID) == nil {
		return fmt.Errorf("%w: %q", ErrSubUnitNotFound, request.SubID)
	}
	subs := apartment.Sub[:0]
	for _, candidate := range apartment.Sub {
		if candidate.ID != request.SubID {
			subs = append(subs, candidate)
		}
	}
	apartment.Sub = subs

	kept := book.Ledger[:0]
	for _, entry := range book.Ledger {
		if entry.SubID != request.SubID {
			kept = append(kept, entry)
		}
	}
	book.Ledger = kept
	return nil
}

func (service *Service) addTenant(book *Book, request AddTenant) error {
	book.Tenants = append(book.Tenants, Tenant{
		ID:   service.fillID(request.ID),
		Name: request.Name,
	})
	return nil
}

func updateTenant(book *Book, request UpdateTenant) error {
	tenant := book.findTenant(request.ID)
	if tenant == nil {
		return fmt.Errorf("%w: %q", ErrTenantNotFound, request.ID)
	}
	if request.Name != nil {
		tenant.Name = *request.Name
	}
	return nil
}

func deleteTenant(book *Book, request DeleteTenant) error {
	if book.findTenant(request.ID) == nil {
		return fmt.Errorf("%w: %q", ErrTenantNotFound, request.ID)
	}
	tenants := book.Tenants[:0]
	for _, candidate := range book.Tenants {
		if candidate.ID != request.ID {
			tenants = append(tenants, candidate)
		}
	}
	book.Tenants = tenants

	kept := book.Ledger[:0]
	for _, entry := range book.Ledger {
		if entry.TenantID != request.ID {
			kept = append(kept, entry)
		}
	}
	book.Ledger = kept
	return nil
}

func (service *Service) addLedger(book *Book, request AddLedger) error {
	entry := request.Entry
	entry.ID = service.fillID(entry.ID)
	if err := entry.Validate(); err != nil {
		return err
	}
	resolveParentApartment(book, &entry)
	book.Ledger = append(book.Ledger, entry)
	return nil
}

func updateLedger(book *Book, request UpdateLedger) error {
	index := book.findEntryIndex(request.ID)
	if index < 0 {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, request.ID)
	}
	merged := book.Ledger[index]
	if request.Date != nil {
		merged.Date = *request.Date
	}
	if request.ApartmentID != nil {
		merged.ApartmentID = *request.ApartmentID
	}
	if request.SubID != nil {
		merged.SubID = *request.SubID
	}
	if request.TenantID != nil {
		merged.TenantID = *request.TenantID
	}
	if request.Type != nil {
		merged.Type = *request.Type
	}
	if request.Amount != nil {
		merged.Amount = *request.Amount
	}
	if request.From != nil {
		merged.From = *request.From
	}
	if request.To != nil {
		merged.To = *request.To
	}
	if request.Note != nil {
		merged.Note = *request.Note
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	resolveParentApartment(book, &merged)
	book.Ledger[index] = merged
	return nil
}

func deleteLedger(book *Book, request DeleteLedger) error {
	if book.findEntryIndex(request.ID) < 0 {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, request.ID)
	}
	kept := book.Ledger[:0]
	for _, entry := range book.Ledger {
		if entry.ID != request.ID {
			kept = append(kept, entry)
		}
	}
	book.Ledger = kept
	return nil
}

func replaceAll(book *Book, request ReplaceAll) error {
	if request.Currency != nil {
		book.Currency = *request.Currency
	}
	if request.Apartments != nil {
		book.Apartments = *request.Apartments
	}
	if request.Tenants != nil {
		book.Tenants = *request.Tenants
	}
	if request.Ledger != nil {
		book.Ledger = *request.Ledger
	}
	book.Normalize()
	return nil
}

// resolveParentApartment fills the apartment id for entries that reference
// a sub-unit only, so property roll-ups keep working. Writes stay
// permissive otherwise: unknown ids pass through untouched.
func resolveParentApartment(book *Book, entry *LedgerEntry) {
	if entry.SubID == "" || entry.ApartmentID != "" {
		return
	}
	for index := range book.Apartments {
		if book.Apartments[index].findSub(entry.SubID) != nil {
			entry.ApartmentID = book.Apartments[index].ID
			return
		}
	}
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
