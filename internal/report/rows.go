package report

import (
	"strconv"
	"time"

	"galaxyinn/backend/internal/domain"
)

var TransactionHeader = []string{
	"Transaction ID", "Date", "Items", "Total", "Cost", "Profit", "Tax", "Payment Method", "Status", "User ID",
}

// TransactionRows flattens transactions into export rows matching TransactionHeader.
func TransactionRows(txs []domain.Transaction) ([][]string, error) {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		groups, err := GroupItems(tx.Items)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			tx.ID,
			tx.Timestamp.Format(time.DateTime),
			FormatGroupedItems(groups),
			tx.TotalAmount.StringFixed(2),
			tx.TotalCost.StringFixed(2),
			tx.Profit.StringFixed(2),
			tx.Tax.StringFixed(2),
			tx.PaymentMethod,
			string(tx.Status),
			strconv.Itoa(tx.UserID),
		})
	}
	return rows, nil
}
