// Package status maps heterogeneous vendor payload shapes to the canonical
// parking event record.
package status

import (
	"strconv"
	"strings"
	"time"

	"parking-status-backend/internal/model"
)

// StatusBusy is the one vendor synonym for an occupied spot. Firmware
// revisions of the sensor alternated between the two spellings.
const StatusBusy = "BUSY"

// UnknownDeviceLabel substitutes for a missing deviceName in the envelope.
const UnknownDeviceLabel = "unknown-device"

// Recognized reports whether token is part of the known vendor status
// vocabulary. Matching is case-insensitive.
func Recognized(token string) bool {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case model.StatusFree, model.StatusOccupied, StatusBusy:
		return true
	}
	return false
}

// Canonical maps a recognized vendor status token to one of the two
// canonical values. Already-canonical tokens pass through unchanged, so the
// mapping is idempotent.
func Canonical(token string) string {
	t := strings.ToUpper(strings.TrimSpace(token))
	if t == StatusBusy {
		return model.StatusOccupied
	}
	return t
}

// Normalize converts a validated envelope into a canonical event record.
// now is recorded as the ingestion time, and stands in for the observation
// timestamp when the envelope carries none.
//
// Only rxInfo[0] is retained when the uplink was received by several
// gateways. The choice of the first entry is an arbitrary, fixed tie-break
// inherited from the original deployment, not a signal-quality ranking.
func Normalize(env *UplinkEnvelope, now time.Time) model.ParkingEvent {
	ev := model.ParkingEvent{
		DevEUI:      env.DevEUI,
		DeviceLabel: env.DeviceName,
		Status:      Canonical(env.Status()),
		ObservedAt:  now.UTC(),
		CreatedAt:   now.UTC(),
	}

	if ev.DeviceLabel == "" {
		ev.DeviceLabel = UnknownDeviceLabel
	}
	if env.Time != nil {
		ev.ObservedAt = env.Time.UTC()
	}
	if env.Object != nil && env.Object.StatusChanged != nil {
		ev.StatusChanged = *env.Object.StatusChanged
	}

	if len(env.RxInfo) > 0 {
		rx := env.RxInfo[0]
		ev.RSSI = rx.RSSI
		ev.SNR = rx.SNR
		if rx.GatewayID != "" {
			id := rx.GatewayID
			ev.GatewayID = &id
		}
		if name, ok := rx.Metadata["gateway_name"]; ok && name != "" {
			ev.GatewayName = &name
		}
		ev.GatewayLat = parseCoordinate(rx.Metadata["gateway_lat"])
		ev.GatewayLong = parseCoordinate(rx.Metadata["gateway_long"])
	}

	return ev
}

// parseCoordinate coerces a latitude/longitude-like string to a float.
// Invalid or absent values become nil rather than zero, so a missing
// coordinate is distinguishable from the equator.
func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
