package cli

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/cardvault/cardledger/internal/repo"
	md "github.com/nao1215/markdown"
)

func (a *App) renderItems(items []db.Item) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Inventory")

	table := md.TableSet{
		Header: []string{"ID", "Name", "Category", "Rarity", "Value", "Quantity"},
		Rows:   [][]string{},
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			item.Category,
			item.Rarity,
			a.formatMoney(item.Value),
			strconv.Itoa(item.Quantity),
		})
	}
	doc.Table(table)
	return doc.String()
}

func renderSuppliers(suppliers []db.Supplier) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Suppliers")

	table := md.TableSet{
		Header: []string{"ID", "Name", "Contact", "Email", "Phone"},
		Rows:   [][]string{},
	}
	for _, s := range suppliers {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Name,
			s.Contact,
			s.Email,
			s.Phone,
		})
	}
	doc.Table(table)
	return doc.String()
}

func (a *App) renderComparison(card string, rows []repo.PriceComparison) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Price comparison for %s", card))

	if len(rows) == 0 {
		doc.PlainText("No supplier quotes recorded.")
		return doc.String()
	}

	table := md.TableSet{
		Header: []string{"Supplier", "Price", "Last Updated"},
		Rows:   [][]string{},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{row.SupplierName, a.formatMoney(row.Price), row.LastUpdated})
	}
	doc.Table(table)
	return doc.String()
}

func (a *App) renderSales(report *repo.SalesReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Sales Report")

	table := md.TableSet{
		Header: []string{"Sale ID", "Card", "Supplier", "Quantity", "Sale Date", "Sale Price", "Total"},
		Rows:   [][]string{},
	}
	for _, row := range report.Rows {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.ItemName,
			row.SupplierName,
			strconv.Itoa(row.Quantity),
			row.SaleDate,
			a.formatMoney(row.SalePrice),
			a.formatMoney(row.Total),
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("Total Sales: %s", a.formatMoney(report.Total)))
	return doc.String()
}

func renderMovements(cardID uint, movements []db.StockMovement) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Stock movements for card %d", cardID))

	table := md.TableSet{
		Header: []string{"When", "Kind", "Sale", "Change", "Before", "After"},
		Rows:   [][]string{},
	}
	for _, m := range movements {
		sale := ""
		if m.SaleID != nil {
			sale = strconv.FormatUint(uint64(*m.SaleID), 10)
		}
		table.Rows = append(table.Rows, []string{
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Kind,
			sale,
			fmt.Sprintf("%+d", m.Delta),
			strconv.Itoa(m.QuantityBefore),
			strconv.Itoa(m.QuantityAfter),
		})
	}
	doc.Table(table)
	return doc.String()
}

func renderStats(s repo.Stats) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Ledger")
	doc.Table(md.TableSet{
		Header: []string{"Cards", "Suppliers", "Sales", "Units on hand"},
		Rows: [][]string{{
			strconv.FormatInt(s.Items, 10),
			strconv.FormatInt(s.Suppliers, 10),
			strconv.FormatInt(s.Sales, 10),
			strconv.FormatInt(s.UnitsOnHand, 10),
		}},
	})
	return doc.String()
}
