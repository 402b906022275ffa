// internal/writer/types.go
package writer

// StatusPlan is the fully-built delivery plan for the fixture status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// CoilPlan binds named fixture outputs to coil addresses on one endpoint.
type CoilPlan struct {
	Endpoint string
	UnitID   uint8
	Coils    map[string]uint16
}

// Plan is everything the writer package delivers for one station.
// A nil member disables that delivery.
type Plan struct {
	Status *StatusPlan
	Coils  *CoilPlan
}
