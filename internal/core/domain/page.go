package domain

type PageRequest struct {
	Region string
	Limit  int32
	Marker string
}

type Page[T any] struct {
	Items      []T
	NextMarker string
}

// Inventory is the outcome of walking every page of a listing. A nil Cause
// means the listing ran to exhaustion.
type Inventory[T any] struct {
	Items []T
	Cause error
	Pages int
}

func Complete[T any](items []T, pages int) Inventory[T] {
	return Inventory[T]{Items: items, Pages: pages}
}

func Partial[T any](items []T, pages int, cause error) Inventory[T] {
	return Inventory[T]{Items: items, Pages: pages, Cause: cause}
}

func (i Inventory[T]) Complete() bool { return i.Cause == nil }
