package rentbook

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Action names as they appear on the wire.
const (
	ActionAddApartment    = "addApartment"
	ActionUpdateApartment = "updateApartment"
	ActionDeleteApartment = "deleteApartment"
	ActionAddSub          = "addSub"
	ActionUpdateSub       = "updateSub"
	ActionDeleteSub       = "deleteSub"
	ActionAddTenant       = "addTenant"
	ActionUpdateTenant    = "updateTenant"
	ActionDeleteTenant    = "deleteTenant"
	ActionAddLedger       = "addLedger"
	ActionUpdateLedger    = "updateLedger"
	ActionDeleteLedger    = "deleteLedger"
	ActionReplaceAll      = "replaceAll"
)

// Action is the tagged union of mutation requests: one variant per action,
// each carrying its own typed payload. Apply matches exhaustively over the
// variants, so the dispatch table is covered at compile time.
type Action interface {
	actionName() string
}

// AddApartment appends a property. Sub defaults to empty.
type AddApartment struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Purchase decimal.Decimal `json:"purchase"`
	Sub      []SubUnit       `json:"sub"`
}

func (AddApartment) actionName() string { return ActionAddApartment }

// UpdateApartment merges the provided fields into a property.
type UpdateApartment struct {
	ID       string           `json:"id"`
	Name     *string          `json:"name"`
	Purchase *decimal.Decimal `json:"purchase"`
}

func (UpdateApartment) actionName() string { return ActionUpdateApartment }

// DeleteApartment removes a property and cascades its ledger entries,
// including entries that reference its sub-units.
type DeleteApartment struct {
	ID string `json:"id"`
}

func (DeleteApartment) actionName() string { return ActionDeleteApartment }

// AddSub appends a sub-unit to a property.
type AddSub struct {
	ApartmentID string  `json:"apartmentId"`
	Sub         SubUnit `json:"sub"`
}

func (AddSub) actionName() string { return ActionAddSub }

// SubUnitPatch carries the mergeable fields of a sub-unit.
type SubUnitPatch struct {
	ID       string           `json:"id"`
	Name     *string          `json:"name"`
	Purchase *decimal.Decimal `json:"purchase"`
}

// UpdateSub merges the provided fields into a sub-unit.
type UpdateSub struct {
	ApartmentID string       `json:"apartmentId"`
	Sub         SubUnitPatch `json:"sub"`
}

func (UpdateSub) actionName() string { return ActionUpdateSub }

// DeleteSub removes a sub-unit and cascades its ledger entries.
type DeleteSub struct {
	ApartmentID string `json:"apartmentId"`
	SubID       string `json:"subId"`
}

func (DeleteSub) actionName() string { return ActionDeleteSub }

// AddTenant appends a tenant.
type AddTenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (AddTenant) actionName() string { return ActionAddTenant }

// UpdateTenant merges the provided fields into a tenant.
type UpdateTenant struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

func (UpdateTenant) actionName() string { return ActionUpdateTenant }

// DeleteTenant removes a tenant and cascades its ledger entries.
type DeleteTenant struct {
	ID string `json:"id"`
}

func (DeleteTenant) actionName() string { return ActionDeleteTenant }

// AddLedger appends a ledger entry. No referential check is performed.
type AddLedger struct {
	Entry LedgerEntry
}

func (AddLedger) actionName() string { return ActionAddLedger }

// UpdateLedger merges the provided fields into a ledger entry.
type UpdateLedger struct {
	ID          string           `json:"id"`
	Date        *Date            `json:"date"`
	ApartmentID *string          `json:"apartmentId"`
	SubID       *string          `json:"subId"`
	TenantID    *string          `json:"tenantId"`
	Type        *EntryType       `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	From        *Date            `json:"from"`
	To          *Date            `json:"to"`
	Note        *string          `json:"note"`
}

func (UpdateLedger) actionName() string { return ActionUpdateLedger }

// DeleteLedger removes a ledger entry.
type DeleteLedger struct {
	ID string `json:"id"`
}

func (DeleteLedger) actionName() string { return ActionDeleteLedger }

// ReplaceAll shallow-merges the provided top-level fields into the whole
// document. Escape hatch for bulk import and restore.
type ReplaceAll struct {
	Currency   *string        `json:"currency"`
	Apartments *[]Apartment   `json:"apartments"`
	Tenants    *[]Tenant      `json:"tenants"`
	Ledger     *[]LedgerEntry `json:"ledger"`
}

func (ReplaceAll) actionName() string { return ActionReplaceAll }

// envelope is the wire shape of a mutation request. Delete actions carry
// their identifiers at the top level; everything else rides in data.
type envelope struct {
	Action      string          `json:"action"`
	Data        json.RawMessage `json:"data"`
	ID          string          `json:"id"`
	ApartmentID string          `json:"apartmentId"`
	SubID       string          `json:"subId"`
}

// DecodeAction parses a raw request body into its typed action.
func DecodeAction(raw []byte) (Action, error) {
	var request envelope
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	switch request.Action {
	case ActionAddApartment:
		var action AddApartment
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionUpdateApartment:
		var action UpdateApartment
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionDeleteApartment:
		return DeleteApartment{ID: request.ID}, nil
	case ActionAddSub:
		var action AddSub
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionUpdateSub:
		var action UpdateSub
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionDeleteSub:
		return DeleteSub{ApartmentID: request.ApartmentID, SubID: request.SubID}, nil
	case ActionAddTenant:
		var action AddTenant
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionUpdateTenant:
		var action UpdateTenant
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionDeleteTenant:
		return DeleteTenant{ID: request.ID}, nil
	case ActionAddLedger:
		var entry LedgerEntry
		if err := decodeData(request.Data, &entry); err != nil {
			return nil, err
		}
		return AddLedger{Entry: entry}, nil
	case ActionUpdateLedger:
		var action UpdateLedger
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case ActionDeleteLedger:
		return DeleteLedger{ID: request.ID}, nil
	case ActionReplaceAll:
		var action ReplaceAll
		if err := decodeData(request.Data, &action); err != nil {
			return nil, err
		}
		return action, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrInvalidPayload)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, request.Action)
}

func decodeData(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
