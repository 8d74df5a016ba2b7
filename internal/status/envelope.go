package status

import "time"

// UplinkEnvelope is the vendor telemetry payload as delivered by the LoRaWAN
// network server, both on the HTTP webhook and on the MQTT uplink topic.
type UplinkEnvelope struct {
	DevEUI     string        `json:"devEui"`
	DeviceName string        `json:"deviceName"`
	Time       *time.Time    `json:"time"`
	Object     *UplinkObject `json:"object"`
	RxInfo     []RxInfo      `json:"rxInfo"`
}

// UplinkObject carries the decoded sensor reading.
type UplinkObject struct {
	ParkingStatus string `json:"parkingStatus"`
	StatusChanged *bool  `json:"statusChanged"`
}

// RxInfo describes one gateway that received the uplink.
type RxInfo struct {
	RSSI      *int              `json:"rssi"`
	SNR       *float64          `json:"snr"`
	GatewayID string            `json:"gatewayId"`
	Metadata  map[string]string `json:"metadata"`
}

// Status returns the raw status token of the envelope, or "" when the
// decoded object is absent.
func (e *UplinkEnvelope) Status() string {
	if e.Object == nil {
		return ""
	}
	return e.Object.ParkingStatus
}
