// internal/dispatch/fields.go
package dispatch

import (
	"fmt"
	"sort"
)

// Backup option field names (internal).
const (
	FieldSmartBackupEnabled = "smart_backup_enabled"
	FieldMaxBackupsEnabled  = "max_backups_enabled"
	FieldMaxBackupsCount    = "max_backups_count"
	FieldLiveConfigPath     = "live_config_path"
	FieldBackupFolderPath   = "backup_folder_path"
	FieldTimezone           = "timezone"
)

// wireFields is the one place internal names meet the service's camelCase.
// New backup options are added here and nowhere else.
var wireFields = map[string]string{
	FieldSmartBackupEnabled: "smartBackupEnabled",
	FieldMaxBackupsEnabled:  "maxBackupsEnabled",
	FieldMaxBackupsCount:    "maxBackupsCount",
	FieldLiveConfigPath:     "liveFolderPath",
	FieldBackupFolderPath:   "backupFolderPath",
	FieldTimezone:           "timezone",
}

// WireName returns the wire name of an internal field.
func WireName(field string) (string, bool) {
	w, ok := wireFields[field]
	return w, ok
}

// Fields lists the internal names in stable order.
func Fields() []string {
	out := make([]string, 0, len(wireFields))
	for k := range wireFields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// toWire translates a payload. Absent fields stay absent; nil values are
// dropped rather than sent as null. Unknown fields are an error.
func toWire(payload map[string]any) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		w, ok := wireFields[k]
		if !ok {
			return nil, fmt.Errorf("dispatch: unknown field %q", k)
		}
		if v == nil {
			continue
		}
		out[w] = v
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
