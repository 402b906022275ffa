// internal/status/constants.go
package status

// Fixture Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per fixture.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotResult holds the result code of the last completed run.
const SlotResult = 0

// SlotSWDStatus holds the last raw SWD status of that run.
const SlotSWDStatus = 1

// SlotAttempts holds the verification attempts used.
const SlotAttempts = 2

// SlotIDCodeHi and SlotIDCodeLo hold the 32-bit identity read.
const SlotIDCodeHi = 3
const SlotIDCodeLo = 4

// SlotDurationHi and SlotDurationLo hold the run duration in milliseconds.
const SlotDurationHi = 5
const SlotDurationLo = 6

// SlotUnitHi and SlotUnitLo hold the persistent unit counter.
const SlotUnitHi = 7
const SlotUnitLo = 8

// SlotSessionHi and SlotSessionLo hold the persistent boot session counter.
const SlotSessionHi = 9
const SlotSessionLo = 10

// SlotHeartbeat increments once per second while the station runs (wraps).
const SlotHeartbeat = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the station name.
// Station name is always placed at the END of the status block.
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the station name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the station name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the station name.
const DeviceNameMaxChars = 16

// ---- RESULT SENTINEL ----

// ResultNone is written before the first run completes.
const ResultNone uint16 = 0xFFFF

// SWDNotRun marks a run that ended before the SWD step.
const SWDNotRun uint16 = 0xFFFF
