package matchcontext

import "strings"

// Provider short status codes, grouped by phase. Comparisons are
// case-insensitive.
var (
	scheduledStatuses = statusSet("TBD", "NS")
	liveStatuses      = statusSet("1H", "HT", "2H", "ET", "BT", "P", "LIVE", "SUSP", "INT")
	finishedStatuses  = statusSet("FT", "AET", "PEN")
	notPlayedStatuses = statusSet("PST", "CANC", "ABD", "AWD", "WO")
)

// FinishedStatusFilter is the upstream status filter selecting only completed
// meetings, used for head-to-head lookups.
const FinishedStatusFilter = "FT-AET-PEN"

func NormalizeStatus(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsScheduled(code string) bool { return scheduledStatuses[NormalizeStatus(code)] }
func IsLive(code string) bool      { return liveStatuses[NormalizeStatus(code)] }
func IsFinished(code string) bool  { return finishedStatuses[NormalizeStatus(code)] }
func IsNotPlayed(code string) bool { return notPlayedStatuses[NormalizeStatus(code)] }

// KnownStatus reports whether code belongs to any recognized group.
func KnownStatus(code string) bool {
	normalized := NormalizeStatus(code)
	return scheduledStatuses[normalized] ||
		liveStatuses[normalized] ||
		finishedStatuses[normalized] ||
		notPlayedStatuses[normalized]
}

func statusSet(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return set
}
