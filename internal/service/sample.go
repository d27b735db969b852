package service

import "github.com/honeylavenderwrites/retailytic/internal/domain"

// sampleTransactions is the built-in demo dataset served before the first
// upload. It is small but deliberately shaped to light up every dashboard
// section: three months of history, repeat buyers, walk-ins, and enough
// multi-item baskets for association rules.
func sampleTransactions() []domain.Transaction {
	type item struct {
		name, code string
		qty, net   float64
	}
	mk := func(date, voucher, customer, mode string, items ...item) domain.Transaction {
		t := domain.Transaction{
			Date:            date,
			VoucherNo:       voucher,
			CustomerName:    customer,
			TransactionMode: mode,
		}
		for _, it := range items {
			t.Lines = append(t.Lines, domain.ProductLine{
				ProductName: it.name,
				ProductCode: it.code,
				Unit:        "Pcs",
				Quantity:    it.qty,
				Rate:        it.net / it.qty,
				Gross:       it.net,
				NetAmt:      it.net,
			})
			t.TotalNet += it.net
			t.TotalGross += it.net
			t.TotalQty += it.qty
		}
		return t
	}

	return []domain.Transaction{
		mk("2025-11-04", "SI-1001", "Anusmriti Sharma", "Cash",
			item{"Slim Fit Jeans", "JN-4410", 1, 3200}, item{"Leather Belt", "AC-9002", 1, 950}),
		mk("2025-11-09", "SI-1002", domain.WalkInName, "Cash",
			item{"Running Shoes", "FW-9806", 1, 4800}),
		mk("2025-11-15", "SI-1003", "Ramesh Thapa", "FonePay",
			item{"Cotton T-Shirt", "TP-1201", 2, 1600}),
		mk("2025-11-23", "SI-1004", "Anusmriti Sharma", "eSewa",
			item{"Evening Gown", "DR-2201", 1, 7500}),
		mk("2025-12-02", "SI-1005", "Sita Gurung", "Card",
			item{"Slim Fit Jeans", "JN-4410", 1, 3200}, item{"Leather Belt", "AC-9002", 1, 950}),
		mk("2025-12-08", "SI-1006", domain.WalkInName, "Khalti",
			item{"Winter Scarf", "AC-7001", 2, 1300}),
		mk("2025-12-14", "SI-1007", "Ramesh Thapa", "FonePay",
			item{"Running Shoes", "FW-9806", 1, 4800}, item{"Cotton T-Shirt", "TP-1201", 1, 800}),
		mk("2025-12-21", "SI-1008", "Anusmriti Sharma", "Cash",
			item{"Slim Fit Jeans", "JN-4410", 1, 3200}, item{"Winter Scarf", "AC-7001", 1, 650}),
		mk("2026-01-03", "SI-1009", "Sita Gurung", "Card",
			item{"Evening Gown", "DR-2201", 1, 7500}, item{"Clutch Bag", "AC-5501", 1, 2100}),
		mk("2026-01-10", "SI-1010", domain.WalkInName, "Cash",
			item{"Kids Frock", "DR-3301", 2, 2400}),
		mk("2026-01-18", "SI-1011", "Anusmriti Sharma", "eSewa",
			item{"Running Shoes", "FW-9806", 1, 4800}),
		mk("2026-01-27", "SI-1012", "Ramesh Thapa", "FonePay",
			item{"Slim Fit Jeans", "JN-4410", 1, 3200}, item{"Leather Belt", "AC-9002", 1, 950}),
	}
}
