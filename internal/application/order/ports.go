package order

import (
	dominv "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
)

type IDGenerator interface {
	NewID() string
}

// ProductCatalog is the read side of the external catalog.
type ProductCatalog interface {
	dominv.Catalog
}

type InventoryLedger interface {
	dominv.Ledger
}
