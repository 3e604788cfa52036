package ports

// Dispatcher is the delivery context for source callbacks.
// Functions passed to Dispatch run one at a time, in submission order.
//
//go:generate mockgen -source=dispatcher.go -destination=mocks/mock_dispatcher.go -package=mocks
type Dispatcher interface {
	Dispatch(fn func())
}
