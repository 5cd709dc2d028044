package booking

const (
	RejectEquipmentNotFound = "equipment_not_found"
	RejectCapacityExceeded  = "capacity_exceeded"
	RejectInvalidInterval   = "invalid_interval"
	RejectInvalidCustomer   = "invalid_customer"
	RejectStoreFailure      = "store_failure"
)

// Recorder receives engine outcomes, typically for metrics.
type Recorder interface {
	ReservationCreated(equipment string, downPayment float64)
	ReservationRejected(equipment, reason string)
	ReservationCancelled(equipment string, refund float64)
}

type NopRecorder struct{}

func (NopRecorder) ReservationCreated(string, float64)   {}
func (NopRecorder) ReservationRejected(string, string)   {}
func (NopRecorder) ReservationCancelled(string, float64) {}
