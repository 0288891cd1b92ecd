// Package pathfinder ranks warm-introduction routes from my identity to a
// cold prospect, evaluating path tiers in strict priority order.
package pathfinder

import "time"

// PathType is one tier of introduction route
type PathType string

const (
	PathDirect            PathType = "direct"
	PathOneHop            PathType = "one_hop"
	PathCompanyConnection PathType = "company_connection"
	PathCCTogether        PathType = "cc_together"
	PathCold              PathType = "cold"
)

// tierOrder is the fixed evaluation priority
var tierOrder = []PathType{PathDirect, PathOneHop, PathCompanyConnection, PathCCTogether, PathCold}

// typeMultiplier discounts path strength by tier
var typeMultiplier = map[PathType]float64{
	PathDirect:            1.0,
	PathOneHop:            0.6,
	PathCompanyConnection: 0.4,
	PathCCTogether:        0.3,
	PathCold:              0.0,
}

// IntroPath is one ranked introduction route to a prospect
type IntroPath struct {
	TargetEmail string   `json:"target_email"`
	TargetName  string   `json:"target_name,omitempty"`
	Type        PathType `json:"path_type"`
	Strength    int      `json:"path_strength"`

	// Connector fields are empty for direct and cold paths
	ConnectorEmail    string `json:"connector_email,omitempty"`
	ConnectorName     string `json:"connector_name,omitempty"`
	ConnectorStrength int    `json:"connector_strength,omitempty"`

	LastContact   time.Time `json:"last_contact,omitempty"`
	EmailCount    int       `json:"email_count,omitempty"`
	SharedCCCount int       `json:"shared_cc_count,omitempty"`
}

// Prospect is one batch input row
type Prospect struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
}
