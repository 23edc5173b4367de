package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrInvalidReceipt = errors.New("invalid_receipt")

// ReceiptData is a settled credit purchase, already formatted for print.
type ReceiptData struct {
	PlatformName         string
	ReceiptNumber        string
	GatewayTransactionID string
	PaidAt               string

	CustomerName  string
	CustomerEmail string

	BundleName string
	Credits    int64
	Amount     string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	if receipt.ReceiptNumber == "" || receipt.Credits <= 0 {
		return nil, ErrInvalidReceipt
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Credit purchase receipt", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, receipt.PlatformName, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Receipt number: "+receipt.ReceiptNumber, props.Text{Top: 0, Size: 9}),
			text.New("Gateway reference: "+receipt.GatewayTransactionID, props.Text{Top: 5, Size: 9}),
			text.New("Paid on: "+receipt.PaidAt, props.Text{Top: 10, Size: 9}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.New(receipt.CustomerName, props.Text{Top: 5, Size: 9, Align: align.Right}),
			text.New(receipt.CustomerEmail, props.Text{Top: 10, Size: 9, Align: align.Right}),
		),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Credits", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(6, receipt.BundleName, props.Text{Size: 9}),
		text.NewCol(3, fmt.Sprintf("%d", receipt.Credits), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(3, receipt.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(12,
		col.New(6),
		text.NewCol(3, "Total paid", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, receipt.Amount, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
