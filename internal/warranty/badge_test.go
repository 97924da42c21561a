package warranty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestClassifyPriorityOrder(t *testing.T) {
	// Loading wins even over a fully registered status.
	badge := Classify(Status{IsRegistered: true, Status: "active"}, true)
	assert.Equal(t, BadgeLoading, badge.Kind)

	badge = Classify(Status{IsRegistered: false}, false)
	assert.Equal(t, BadgeNotRegistered, badge.Kind)
	assert.Equal(t, "Not Registered", badge.Label)

	// An error-flagged status is still rendered as not registered; presenters
	// that want a softer treatment check Status.Error themselves.
	badge = Classify(Status{IsRegistered: false, Error: true}, false)
	assert.Equal(t, BadgeNotRegistered, badge.Kind)

	badge = Classify(Status{IsRegistered: true, Status: "expired", DaysUntilExpiry: intPtr(0)}, false)
	assert.Equal(t, BadgeExpired, badge.Kind)

	badge = Classify(Status{IsRegistered: true, Status: "active", DaysUntilExpiry: intPtr(12)}, false)
	assert.Equal(t, BadgeExpiringSoon, badge.Kind)
	assert.Equal(t, 12, badge.DaysUntilExpiry)
	assert.Equal(t, "Expires in 12 days", badge.Label)

	badge = Classify(Status{IsRegistered: true, Status: "active", DaysUntilExpiry: intPtr(200)}, false)
	assert.Equal(t, BadgeRegistered, badge.Kind)

	badge = Classify(Status{IsRegistered: true, Status: "active"}, false)
	assert.Equal(t, BadgeRegistered, badge.Kind)
}

func TestClassifyExpiringSoonBoundary(t *testing.T) {
	badge := Classify(Status{IsRegistered: true, Status: "active", DaysUntilExpiry: intPtr(30)}, false)
	assert.Equal(t, BadgeExpiringSoon, badge.Kind)

	badge = Classify(Status{IsRegistered: true, Status: "active", DaysUntilExpiry: intPtr(31)}, false)
	assert.Equal(t, BadgeRegistered, badge.Kind)
}
