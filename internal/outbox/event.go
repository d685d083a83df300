package outbox

// Event is the domain event envelope written to the outbox table in the same
// transaction as the calendar change it describes. The Kafka topic name
// equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the calendar service.
const (
	EventSeriesBooked           = "calendar.series.booked.v1"
	EventAppointmentRescheduled = "calendar.appointment.rescheduled.v1"
)
