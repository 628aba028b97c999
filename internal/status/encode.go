// internal/status/encode.go
package status

// Attributes projects a snapshot onto the sensor attribute set the host renders.
// Missing payload fields are nil. No IO. No side effects.
func Attributes(s Snapshot, addonURL string) map[string]any {
	disk := s.Payload.Map("disk_usage")

	attrs := map[string]any{
		"state":              s.Health.String(),
		"version":            s.Payload.Get("version"),
		"backup_count":       s.Payload.Get("backup_count"),
		"last_backup":        s.Payload.Get("last_backup"),
		"active_schedules":   s.Payload.Get("active_schedules"),
		"disk_total_gb":      disk.Get("total_gb"),
		"disk_free_gb":       disk.Get("free_gb"),
		"disk_used_pct":      disk.Get("used_pct"),
		"last_backup_status": s.Payload.Get("last_backup_status"),
		"last_backup_error":  s.Payload.Get("last_backup_error"),
		"ingress":            s.Payload.Get("ingress"),
		"timestamp":          s.Payload.Get("timestamp"),
		"addon_url":          addonURL,
	}

	if s.HasData() {
		attrs["fetched_at"] = s.FetchedAt
	} else {
		attrs["fetched_at"] = nil
	}
	if s.Err != "" {
		attrs["error"] = s.Err
	}

	return attrs
}
