package ledger

import (
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

const (
	EventDonationRecorded  = "DonationRecorded"
	EventRequestResolved   = "RequestResolved"
	EventInventoryAdjusted = "InventoryAdjusted"

	// EventDonationCollected arrives from blood drives and is recorded as a donation.
	EventDonationCollected = "DonationCollected"
)

// Event is published after a ledger transaction commits. It is keyed by
// location and blood type so consumers see one entry's changes in order.
type Event struct {
	Type           string              `json:"type"`
	ReferenceID    string              `json:"reference_id"`
	LocationID     string              `json:"location_id"`
	BloodType      model.BloodType     `json:"blood_type"`
	Units          int                 `json:"units"`
	UnitsAvailable *int                `json:"units_available,omitempty"`
	Status         model.RequestStatus `json:"status,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func (e Event) Key() string {
	return e.LocationID + "/" + string(e.BloodType)
}

// DonationCollectedEvent is the payload a blood drive sends for each unit batch.
type DonationCollectedEvent struct {
	Type        string     `json:"type"`
	DonorID     string     `json:"donor_id"`
	LocationID  string     `json:"location_id"`
	BloodType   string     `json:"blood_type"`
	Units       int        `json:"units"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	CollectedBy string     `json:"collected_by,omitempty"`
}
