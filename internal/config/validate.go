// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their yaml names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// FIELD RULES
	// ------------------------------------------------------------

	if err := validate.Struct(cfg); err != nil {
		return fieldError(err)
	}

	if len(cfg.Instances) == 0 {
		return errors.New("config: at least one instance required")
	}

	// ------------------------------------------------------------
	// INSTANCE IDENTITY (ID + NORMALIZED URL)
	// ------------------------------------------------------------

	ids := make(map[string]int)
	urls := make(map[string]string)

	for idx, in := range cfg.Instances {
		if prev, exists := ids[in.ID]; exists {
			return fmt.Errorf(
				"instance id collision: %q used by instances[%d] and instances[%d]",
				in.ID,
				prev,
				idx,
			)
		}
		ids[in.ID] = idx

		ep, err := in.Endpoint()
		if err != nil {
			return fmt.Errorf("instance %q: %w", in.ID, err)
		}

		key := strings.ToLower(ep.Base)
		if prev, exists := urls[key]; exists {
			return fmt.Errorf(
				"instance url collision: %s configured by instances %q and %q",
				ep.Base,
				prev,
				in.ID,
			)
		}
		urls[key] = in.ID

		if in.HealthTimeoutMs >= in.ScanIntervalS*1000 {
			return fmt.Errorf(
				"instance %q: health_timeout_ms (%d) must be shorter than scan_interval_s (%d)",
				in.ID,
				in.HealthTimeoutMs,
				in.ScanIntervalS,
			)
		}
	}

	return nil
}

// fieldError flattens validator output into one readable error.
func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}
