// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/swd-fixture/internal/config"
	wmodbus "github.com/tamzrod/swd-fixture/internal/writer/modbus"
)

// Output names used in coil plans.
const (
	OutPogoStart = "pogo_start"
	OutPogoStop  = "pogo_stop"
	OutLEDGreen  = "led_green"
	OutLEDRed    = "led_red"
)

// BuildPlan converts a normalized config into a writer Plan.
// Assumes config has already passed validation.
func BuildPlan(c *cfg.Config) (Plan, error) {
	if c == nil {
		return Plan{}, errors.New("writer: config required")
	}

	var plan Plan

	if st := c.Status; st != nil {
		plan.Status = &StatusPlan{
			Endpoint:   st.Endpoint,
			UnitID:     st.UnitID,
			BaseSlot:   st.BaseSlot,
			DeviceName: st.DeviceName,
		}
	}

	if c.Fixture.IOBackend == cfg.BackendModbus {
		m := c.Fixture.ModbusIO
		if m == nil {
			return Plan{}, errors.New("writer: modbus_io required for the modbus backend")
		}
		plan.Coils = &CoilPlan{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Coils: map[string]uint16{
				OutPogoStart: m.Coils.PogoStart,
				OutPogoStop:  m.Coils.PogoStop,
				OutLEDGreen:  m.Coils.LEDGreen,
				OutLEDRed:    m.Coils.LEDRed,
			},
		}
	}

	return plan, nil
}

// BuildEndpointClient opens one TCP client for a planned endpoint.
func BuildEndpointClient(endpoint string, timeoutMs int) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: endpoint,
		Timeout:  time.Duration(timeoutMs) * time.Millisecond,
	})
}
