package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"galaxyinn/backend/internal/domain"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Receipt {{.ID}}</title></head>
<body class="receipt">
<h1>Galaxy Inn</h1>
<p class="meta">Receipt {{.ID}}<br>{{.Date}}<br>{{.PaymentMethod}}{{if .Reversed}}<br><strong>REVERSED</strong>{{end}}</p>
<table class="items">
<thead><tr><th>Item</th><th>Qty</th><th>Amount</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Amount}}</td></tr>
{{end}}</tbody>
</table>
<p class="totals">Total: {{.Total}}<br>Incl. VAT: {{.Tax}}</p>
<p class="footer">Thank you for visiting Galaxy Inn</p>
</body></html>
`))

type receiptLine struct {
	Name     string
	Quantity string
	Amount   string
}

type receiptView struct {
	ID            string
	Date          string
	PaymentMethod string
	Reversed      bool
	Lines         []receiptLine
	Total         string
	Tax           string
}

// Receipt renders a transaction as printable HTML, a plain-text preview and the same
// text wrapped in ESC/POS init and cut commands.
func (s *Service) Receipt(ctx context.Context, id string) (domain.ReceiptResponse, error) {
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	view := receiptView{
		ID:            tx.ID,
		Date:          tx.Timestamp.Format("2006-01-02 15:04"),
		PaymentMethod: tx.PaymentMethod,
		Reversed:      tx.Status == domain.TxStatusReversed,
		Total:         "KES " + tx.TotalAmount.StringFixed(2),
		Tax:           "KES " + tx.Tax.StringFixed(2),
	}
	for _, line := range tx.Items {
		view.Lines = append(view.Lines, receiptLine{
			Name:     line.Name,
			Quantity: quantityLabel(line),
			Amount:   line.LineTotal.StringFixed(2),
		})
	}

	var html bytes.Buffer
	if err := receiptTemplate.Execute(&html, view); err != nil {
		return domain.ReceiptResponse{}, fmt.Errorf("render receipt %s: %w", tx.ID, err)
	}

	lines := []string{
		"GALAXY INN",
		"================================",
		"Receipt: " + view.ID,
		"Date: " + view.Date,
		"--------------------------------",
	}
	for _, l := range view.Lines {
		lines = append(lines, fmt.Sprintf("%s %s", l.Quantity, l.Name))
		lines = append(lines, fmt.Sprintf("  %s", l.Amount))
	}
	lines = append(lines,
		"--------------------------------",
		"Total   : "+view.Total,
		"VAT     : "+view.Tax,
		"Payment : "+view.PaymentMethod,
	)
	if view.Reversed {
		lines = append(lines, "*** REVERSED ***")
	}
	lines = append(lines, "================================", "Thank you", "")

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		TransactionID: tx.ID,
		HTML:          html.String(),
		PreviewText:   strings.Join(lines, "\n"),
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
	}, nil
}

func quantityLabel(line domain.TransactionItem) string {
	switch line.Type {
	case domain.ProductPour:
		return domain.FormatVolume(line.VolumeML())
	default:
		return fmt.Sprintf("%dx", line.Quantity)
	}
}
