package api

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceDecoding(t *testing.T) {
	body := `[
		{"id_vehicule": 1, "deveui": "AABBCCDDEE001122", "statut": "DISPONIBLE", "nom": null,
		 "created_at": "2024-05-01T10:20:30.123456", "activated_at": null},
		{"id_vehicule": 2, "deveui": "0011223344556677", "statut": "ACTIF", "nom": "Clio",
		 "immatriculation": "AB-123-CD", "created_at": "2024-05-01T10:20:30Z",
		 "activated_at": "2024-06-02T08:00:00+02:00", "id_utilisateur_proprietaire": 7},
		{"id_vehicule": 3, "deveui": "0011223344556678", "statut": "MAINTENANCE"}
	]`
	var devices []Device
	require.NoError(t, json.Unmarshal([]byte(body), &devices))
	require.Len(t, devices, 3)

	free := devices[0]
	assert.Nil(t, free.Name)
	assert.Nil(t, free.Plate)
	assert.Nil(t, free.OwnerUserID)
	assert.Nil(t, free.ActivatedAt)
	require.NotNil(t, free.CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC), free.CreatedAt.Time)
	assert.True(t, free.CanDelete())
	assert.False(t, free.CanRelease())
	assert.Equal(t, "N/A", free.DisplayName("N/A"))

	paired := devices[1]
	assert.Equal(t, "Clio", paired.DisplayName("N/A"))
	require.NotNil(t, paired.OwnerUserID)
	assert.Equal(t, int64(7), *paired.OwnerUserID)
	assert.Equal(t, time.Date(2024, 6, 2, 6, 0, 0, 0, time.UTC), paired.ActivatedAt.UTC())
	assert.True(t, paired.CanRelease())
	assert.False(t, paired.CanDelete())

	other := devices[2]
	assert.Equal(t, DeviceStatus("MAINTENANCE"), other.Status)
	assert.False(t, other.CanRelease())
	assert.False(t, other.CanDelete())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestValidDevEUI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"AABBCCDDEE001122", true},
		{"aabbccddee001122", true},
		{"  aabbccddee001122 ", true},
		{"AABBCCDDEE00112", false},
		{"AABBCCDDEE0011223", false},
		{"AABBCCDDEE00112G", false},
		{"AA:BB:CC:DD:EE:00", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDevEUI(tt.in))
		})
	}
	assert.Equal(t, "AABBCCDDEE001122", NormalizeDevEUI(" aabbccddee001122\t"))
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("release: %w", StatusError(401))
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Erreur 401", Message(err))
	assert.False(t, IsUnauthorized(StatusError(500)))
	assert.Equal(t, "boom", Message(fmt.Errorf("boom")))
}
