package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-status-backend/internal/model"
)

func TestCanonical(t *testing.T) {
	testCases := []struct {
		name     string
		token    string
		expected string
	}{
		{"free passes through", "FREE", model.StatusFree},
		{"occupied passes through", "OCCUPIED", model.StatusOccupied},
		{"busy maps to occupied", "BUSY", model.StatusOccupied},
		{"lowercase busy maps to occupied", "busy", model.StatusOccupied},
		{"surrounding whitespace is trimmed", " free ", model.StatusFree},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Canonical(tc.token))
		})
	}
}

func TestCanonicalIsIdempotent(t *testing.T) {
	for _, token := range []string{"FREE", "OCCUPIED", "BUSY"} {
		once := Canonical(token)
		assert.Equal(t, once, Canonical(once), "canonical value must map to itself")
	}
}

func TestRecognized(t *testing.T) {
	assert.True(t, Recognized("FREE"))
	assert.True(t, Recognized("OCCUPIED"))
	assert.True(t, Recognized("BUSY"))
	assert.True(t, Recognized("busy"))

	assert.False(t, Recognized(""))
	assert.False(t, Recognized("VACANT"))
	assert.False(t, Recognized("MAYBE"))
}

func TestNormalizeDefaults(t *testing.T) {
	now := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)

	env := &UplinkEnvelope{
		DevEUI: "a84041ffff1c2b4f",
		Object: &UplinkObject{ParkingStatus: "FREE"},
	}
	ev := Normalize(env, now)

	assert.Equal(t, "a84041ffff1c2b4f", ev.DevEUI)
	assert.Equal(t, UnknownDeviceLabel, ev.DeviceLabel, "missing label gets the placeholder")
	assert.Equal(t, model.StatusFree, ev.Status)
	assert.False(t, ev.StatusChanged, "missing change flag defaults to false")
	assert.Equal(t, now, ev.ObservedAt, "missing timestamp defaults to now")
	assert.Equal(t, now, ev.CreatedAt)
	assert.Nil(t, ev.RSSI)
	assert.Nil(t, ev.SNR)
	assert.Nil(t, ev.GatewayLat)
}

func TestNormalizeFullEnvelope(t *testing.T) {
	now := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)
	observed := time.Date(2026, 5, 15, 11, 58, 30, 0, time.UTC)
	changed := true
	rssi1, rssi2 := -67, -90
	snr1 := 8.5

	env := &UplinkEnvelope{
		DevEUI:     "a84041ffff1c2b4f",
		DeviceName: "parking-sensor-01",
		Time:       &observed,
		Object:     &UplinkObject{ParkingStatus: "BUSY", StatusChanged: &changed},
		RxInfo: []RxInfo{
			{
				RSSI:      &rssi1,
				SNR:       &snr1,
				GatewayID: "gw-01",
				Metadata: map[string]string{
					"gateway_name": "rooftop",
					"gateway_lat":  "32.7157",
					"gateway_long": "-117.1611",
				},
			},
			// A second receiving gateway is discarded.
			{RSSI: &rssi2, GatewayID: "gw-02"},
		},
	}
	ev := Normalize(env, now)

	assert.Equal(t, model.StatusOccupied, ev.Status, "BUSY normalizes to OCCUPIED")
	assert.True(t, ev.StatusChanged)
	assert.Equal(t, observed, ev.ObservedAt)
	assert.Equal(t, now, ev.CreatedAt, "ingestion time is independent of the reported timestamp")
	assert.Equal(t, "parking-sensor-01", ev.DeviceLabel)

	require.NotNil(t, ev.RSSI)
	assert.Equal(t, -67, *ev.RSSI, "only the first relay's metrics are kept")
	require.NotNil(t, ev.SNR)
	assert.Equal(t, 8.5, *ev.SNR)
	require.NotNil(t, ev.GatewayID)
	assert.Equal(t, "gw-01", *ev.GatewayID)
	require.NotNil(t, ev.GatewayName)
	assert.Equal(t, "rooftop", *ev.GatewayName)
	require.NotNil(t, ev.GatewayLat)
	assert.InDelta(t, 32.7157, *ev.GatewayLat, 1e-9)
	require.NotNil(t, ev.GatewayLong)
	assert.InDelta(t, -117.1611, *ev.GatewayLong, 1e-9)
}

func TestNormalizeBadCoordinates(t *testing.T) {
	now := time.Now().UTC()

	env := &UplinkEnvelope{
		DevEUI: "a84041ffff1c2b4f",
		Object: &UplinkObject{ParkingStatus: "FREE"},
		RxInfo: []RxInfo{
			{
				GatewayID: "gw-01",
				Metadata: map[string]string{
					"gateway_lat":  "not-a-number",
					"gateway_long": "",
				},
			},
		},
	}
	ev := Normalize(env, now)

	assert.Nil(t, ev.GatewayLat, "invalid coordinate must be absent, not zero")
	assert.Nil(t, ev.GatewayLong, "absent coordinate must stay absent")
}
