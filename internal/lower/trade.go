package lower

import (
	"fmt"

	"github.com/mkarlsen/emtab/internal/ir"
)

// lowerTradeLinks expands each declared link into directional rows. A
// bidirectional link becomes exactly two rows (one per direction) sharing
// one derived link identifier and one process identity; a unidirectional
// link becomes exactly one row. The transfer efficiency is symmetric on a
// bidirectional link, so both directional rows carry it.
func lowerTradeLinks(ctx *Context) ir.Table {
	t := ir.Table{
		Name:    "trade_links",
		Keys:    []string{"link", "origin", "destination"},
		Numeric: []string{"efficiency"},
	}

	for _, link := range ctx.Model.TradeLinks {
		id := ir.LinkID(link.Origin, link.Destination, link.Commodity)
		process := tradeProcessName(link.Bidirectional, link.Commodity, link.Origin, link.Destination)

		row := func(origin, destination string) ir.Row {
			return ir.Row{
				"link":        ir.String(id),
				"process":     ir.String(process),
				"origin":      ir.String(origin),
				"destination": ir.String(destination),
				"commodity":   ir.String(link.Commodity),
				"efficiency":  ir.Float(link.Efficiency),
			}
		}

		t.Rows = append(t.Rows, row(link.Origin, link.Destination))
		if link.Bidirectional {
			t.Rows = append(t.Rows, row(link.Destination, link.Origin))
		}
	}
	return t
}

// tradeProcessName follows the established trade-process naming convention.
// For bidirectional links the region pair is sorted so both directions
// resolve to one process identity.
func tradeProcessName(bidirectional bool, commodity, origin, destination string) string {
	direction := "U"
	if bidirectional {
		direction = "B"
		if destination < origin {
			origin, destination = destination, origin
		}
	}
	return fmt.Sprintf("T_%s_%s_%s_%s_01", direction, commodity, origin, destination)
}
