// internal/status/constants.go
package status

// Health is the classified state of one remote service.
type Health uint8

// ---- HEALTH CODES ----

// HealthUnknown is the boot state: no fetch has completed yet.
const HealthUnknown Health = 0

// HealthOnline means the health endpoint answered 200 with a JSON document.
const HealthOnline Health = 1

// HealthError means the service answered, but not with a usable document.
const HealthError Health = 2

// HealthOffline means no answer: timeout or network failure.
const HealthOffline Health = 3

func (h Health) String() string {
	switch h {
	case HealthOnline:
		return "Online"
	case HealthError:
		return "Error"
	case HealthOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// MarshalText renders the health as its display name.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ---- MESSAGES ----

// NoDataMessage is carried by the sentinel snapshot.
const NoDataMessage = "no data yet"
