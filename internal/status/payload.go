// internal/status/payload.go
package status

// Payload is the decoded health document.
// Values are the encoding/json variants: string, float64, bool, nil,
// map[string]any and []any. Every accessor tolerates absence and type
// mismatch by returning the caller's default.
type Payload map[string]any

func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Get returns the raw value or nil.
func (p Payload) Get(key string) any {
	if p == nil {
		return nil
	}
	return p[key]
}

func (p Payload) String(key, def string) string {
	if v, ok := p.Get(key).(string); ok {
		return v
	}
	return def
}

func (p Payload) Float(key string, def float64) float64 {
	if v, ok := p.Get(key).(float64); ok {
		return v
	}
	return def
}

// Int truncates JSON numbers toward zero.
func (p Payload) Int(key string, def int) int {
	if v, ok := p.Get(key).(float64); ok {
		return int(v)
	}
	return def
}

func (p Payload) Bool(key string, def bool) bool {
	if v, ok := p.Get(key).(bool); ok {
		return v
	}
	return def
}

// Map returns a nested object, or an empty Payload.
func (p Payload) Map(key string) Payload {
	if v, ok := p.Get(key).(map[string]any); ok {
		return Payload(v)
	}
	return Payload{}
}
