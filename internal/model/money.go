package model

import "github.com/shopspring/decimal"

func init() {
    // Prices and amounts are JSON numbers on the wire.
    decimal.MarshalJSONWithoutQuotes = true
}
