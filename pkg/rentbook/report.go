package rentbook

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Window restricts a calculation to ledger entries dated on or after
// Since. The zero value means full history.
type Window struct {
	Since Date
}

func (window Window) contains(entry LedgerEntry) bool {
	return window.Since.IsZero() || entry.Date >= window.Since
}

// Totals are the aggregate sums over the ledger. Net is rent minus
// expenses; deposits and refunds are balance-sheet items and stay out of
// it.
type Totals struct {
	Rent     decimal.Decimal `json:"rent"`
	Deposits decimal.Decimal `json:"deposits"`
	Expenses decimal.Decimal `json:"expenses"`
	Refunds  decimal.Decimal `json:"refunds"`
	Net      decimal.Decimal `json:"net"`
}

// Summarize partitions the ledger by entry type and sums the amounts.
func Summarize(book Book, window Window) Totals {
	totals := Totals{
		Rent:     decimal.Zero,
		Deposits: decimal.Zero,
		Expenses: decimal.Zero,
		Refunds:  decimal.Zero,
	}
	for _, entry := range book.Ledger {
		if !window.contains(entry) {
			continue
		}
		switch entry.Type {
		case EntryRent:
			totals.Rent = totals.Rent.Add(entry.Amount)
		case EntryDeposit:
			totals.Deposits = totals.Deposits.Add(entry.Amount)
		case EntryExpense:
			totals.Expenses = totals.Expenses.Add(entry.Amount)
		case EntryRefund:
			totals.Refunds = totals.Refunds.Add(entry.Amount)
		}
	}
	totals.Net = totals.Rent.Sub(totals.Expenses)
	return totals
}

// PropertyROI is the per-property return view. Purchase includes the
// sub-unit acquisition costs; income and expense roll up by apartment id.
type PropertyROI struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Purchase decimal.Decimal `json:"purchase"`
	ROI      decimal.Decimal `json:"roi"`
}

// ROIByProperty walks the ledger once and attributes RENT and EXPENSE
// entries to their apartment. ROI is net over purchase, zero when the
// purchase cost is zero.
func ROIByProperty(book Book, window Window) []PropertyROI {
	rows := make([]PropertyROI, 0, len(book.Apartments))
	rowIndex := make(map[string]int, len(book.Apartments))
	for _, apartment := range book.Apartments {
		purchase := apartment.Purchase
		for _, sub := range apartment.Sub {
			purchase = purchase.Add(sub.Purchase)
		}
		rowIndex[apartment.ID] = len(rows)
		rows = append(rows, PropertyROI{
			ID:       apartment.ID,
			Name:     apartment.Name,
			Income:   decimal.Zero,
			Expense:  decimal.Zero,
			Purchase: purchase,
			ROI:      decimal.Zero,
		})
	}
	for _, entry := range book.Ledger {
		if entry.ApartmentID == "" || !window.contains(entry) {
			continue
		}
		index, known := rowIndex[entry.ApartmentID]
		if !known {
			continue
		}
		switch entry.Type {
		case EntryRent:
			rows[index].Income = rows[index].Income.Add(entry.Amount)
		case EntryExpense:
			rows[index].Expense = rows[index].Expense.Add(entry.Amount)
		}
	}
	for index := range rows {
		if rows[index].Purchase.IsPositive() {
			net := rows[index].Income.Sub(rows[index].Expense)
			rows[index].ROI = net.Div(rows[index].Purchase)
		}
	}
	return rows
}

// CoverageRow is the paid-through status of one (apartment, tenant) pair.
// Negative DaysLeft means overdue by that many days. Pairs with no RENT
// entry carrying a `to` date produce no row at all.
type CoverageRow struct {
	ApartmentID   string `json:"apartmentId,omitempty"`
	TenantID      string `json:"tenantId,omitempty"`
	ApartmentName string `json:"apartmentName,omitempty"`
	TenantName    string `json:"tenantName,omitempty"`
	PaidUntil     Date   `json:"paidUntil"`
	DaysLeft      int    `json:"daysLeft"`
}

// Coverage groups RENT entries with a `to` date by (apartment, tenant),
// keeps the latest paid-through date per pair, and sorts the most overdue
// first.
func Coverage(book Book, today time.Time) []CoverageRow {
	type groupKey struct {
		apartmentID string
		tenantID    string
	}
	latest := make(map[groupKey]Date)
	for _, entry := range book.Ledger {
		if entry.Type != EntryRent || entry.To.IsZero() {
			continue
		}
		if _, err := entry.To.Time(); err != nil {
			continue
		}
		key := groupKey{apartmentID: entry.ApartmentID, tenantID: entry.TenantID}
		if current, seen := latest[key]; !seen || entry.To > current {
			latest[key] = entry.To
		}
	}

	apartmentNames := make(map[string]string, len(book.Apartments))
	for _, apartment := range book.Apartments {
		apartmentNames[apartment.ID] = apartment.Name
	}
	tenantNames := make(map[string]string, len(book.Tenants))
	for _, tenant := range book.Tenants {
		tenantNames[tenant.ID] = tenant.Name
	}

	rows := make([]CoverageRow, 0, len(latest))
	for key, paidUntil := range latest {
		rows = append(rows, CoverageRow{
			ApartmentID:   key.apartmentID,
			TenantID:      key.tenantID,
			ApartmentName: apartmentNames[key.apartmentID],
			TenantName:    tenantNames[key.tenantID],
			PaidUntil:     paidUntil,
			DaysLeft:      DaysLeft(paidUntil, today),
		})
	}
	sort.Slice(rows, func(left, right int) bool {
		if rows[left].DaysLeft != rows[right].DaysLeft {
			return rows[left].DaysLeft < rows[right].DaysLeft
		}
		if rows[left].ApartmentID != rows[right].ApartmentID {
			return rows[left].ApartmentID < rows[right].ApartmentID
		}
		return rows[left].TenantID < rows[right].TenantID
	})
	return rows
}

// CoverageByApartment returns the latest paid-through date per apartment,
// ignoring the tenant dimension.
func CoverageByApartment(book Book) map[string]Date {
	latest := make(map[string]Date)
	for _, entry := range book.Ledger {
		if entry.Type != EntryRent || entry.ApartmentID == "" || entry.To.IsZero() {
			continue
		}
		if current, seen := latest[entry.ApartmentID]; !seen || entry.To > current {
			latest[entry.ApartmentID] = entry.To
		}
	}
	return latest
}

// DaysLeft is the whole number of days between today (UTC midnight) and
// the paid-through day: zero when paid through today, negative when
// overdue.
func DaysLeft(paidUntil Date, today time.Time) int {
	target, err := paidUntil.Time()
	if err != nil {
		return 0
	}
	diff := target.Sub(utcMidnight(today))
	return int(math.Ceil(diff.Hours() / 24))
}

// Report bundles every derived view for one document read.
type Report struct {
	Totals     Totals        `json:"totals"`
	Properties []PropertyROI `json:"properties"`
	Coverage   []CoverageRow `json:"coverage"`
}

func utcMidnight(instant time.Time) time.Time {
	day := instant.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
