package enum

// ── Order lifecycle (closed set, persisted as-is) ──

const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// ── Menu categories (configurable labels, no constraint) ──

const (
	CategoryPizza   = "Pizza"
	CategorySnack   = "Lanche"
	CategorySide    = "Acompanhamento"
	CategoryDrink   = "Bebida"
	CategoryDessert = "Sobremesa"
)
