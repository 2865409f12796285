package entities_test

import (
	"testing"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSettings_Allows(t *testing.T) {
	settings := entities.NotificationSettings{
		entities.NotificationTypeOrderUpdate:   true,
		entities.NotificationTypeReturnRequest: false,
	}

	assert.True(t, settings.Allows(entities.NotificationTypeOrderUpdate))
	assert.False(t, settings.Allows(entities.NotificationTypeReturnRequest))
	// types absent from the map are delivered
	assert.True(t, settings.Allows(entities.NotificationTypeInventoryAlert))
	// untyped notifications are never filtered
	assert.True(t, settings.Allows(""))

	var empty entities.NotificationSettings
	assert.True(t, empty.Allows(entities.NotificationTypeOrderUpdate))
}

func TestLabelRef_MarshalUnmarshal(t *testing.T) {
	ref := entities.LabelRef{
		URL:      "/uploads/shipping-labels/label_1.pdf",
		FileName: "label_1.pdf",
		Provider: "seller",
		Carrier:  "dhl",
	}

	data, err := ref.Marshal()
	require.NoError(t, err)

	var got entities.LabelRef
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, ref, got)
}

func TestShipment_ParseNotes(t *testing.T) {
	testCases := []struct {
		name   string
		notes  string
		wantOK bool
		want   entities.ShipmentNotes
	}{
		{
			name:   "structured notes",
			notes:  `{"labelFileUrl":"/uploads/l.pdf","fileName":"l.pdf","carrier":"ups"}`,
			wantOK: true,
			want:   entities.ShipmentNotes{LabelFileURL: "/uploads/l.pdf", FileName: "l.pdf", Carrier: "ups"},
		},
		{name: "empty notes", notes: "", wantOK: false},
		{name: "free text notes", notes: "handle with care", wantOK: false},
		{name: "json without label reference", notes: `{"carrier":"ups"}`, wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := entities.Shipment{Notes: tc.notes}.ParseNotes()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
