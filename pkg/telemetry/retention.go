package telemetry

// RetentionPolicy bounds the per-day event logs. A tablet polling every few
// seconds would otherwise grow the vehicle document without limit; capping
// keeps storage and query cost predictable while retaining enough recent
// history for the analytics dashboards.
type RetentionPolicy struct {
	AdPlaybackCap int
	QRScanCap     int
}

// DefaultRetentionPolicy returns the production caps. Both logs share the
// same default; each can be tuned independently via environment.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		AdPlaybackCap: 800,
		QRScanCap:     800,
	}
}
