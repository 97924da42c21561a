package warranty

import "fmt"

// Badge kinds, in the priority order Classify applies them.
const (
	BadgeLoading       = "loading"
	BadgeNotRegistered = "not_registered"
	BadgeExpired       = "expired"
	BadgeExpiringSoon  = "expiring_soon"
	BadgeRegistered    = "registered"
)

// ExpiringSoonDays is the inclusive day threshold for the expiring-soon
// badge.
const ExpiringSoonDays = 30

// Badge is the presentation classification of one asset's warranty state.
type Badge struct {
	Kind            string `json:"kind"`
	Label           string `json:"label"`
	DaysUntilExpiry int    `json:"days_until_expiry,omitempty"`
}

// Classify maps a status record to its badge. loading is tracked by the
// presenter, not the status record, and wins over everything else.
func Classify(status Status, loading bool) Badge {
	switch {
	case loading:
		return Badge{Kind: BadgeLoading, Label: "Loading"}
	case !status.IsRegistered:
		return Badge{Kind: BadgeNotRegistered, Label: "Not Registered"}
	case status.Status == "expired":
		return Badge{Kind: BadgeExpired, Label: "Expired"}
	case status.DaysUntilExpiry != nil && *status.DaysUntilExpiry <= ExpiringSoonDays:
		return Badge{
			Kind:            BadgeExpiringSoon,
			Label:           fmt.Sprintf("Expires in %d days", *status.DaysUntilExpiry),
			DaysUntilExpiry: *status.DaysUntilExpiry,
		}
	default:
		return Badge{Kind: BadgeRegistered, Label: "Registered"}
	}
}
