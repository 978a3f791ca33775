// Package customer defines the raw and validated shapes of a customer record.
package customer

// RawRecord is a customer entry as received from the upstream API.
// Keys may be missing and values may have any type.
type RawRecord map[string]any

// EngagementLevel describes how engaged a customer is.
type EngagementLevel string

const (
	EngagementHigh   EngagementLevel = "high"
	EngagementMedium EngagementLevel = "medium"
	EngagementLow    EngagementLevel = "low"
)

// ActivityStatus describes whether a customer is currently active.
type ActivityStatus string

const (
	StatusActive   ActivityStatus = "active"
	StatusInactive ActivityStatus = "inactive"
)

// AcquisitionChannel is the channel a customer was acquired through.
type AcquisitionChannel string

const (
	ChannelWebsite       AcquisitionChannel = "website"
	ChannelMobileApp     AcquisitionChannel = "mobile_app"
	ChannelEmailCampaign AcquisitionChannel = "email_campaign"
)

// MarketSegment is the regional market a customer belongs to.
type MarketSegment string

const (
	SegmentUSWest    MarketSegment = "US-West"
	SegmentUSEast    MarketSegment = "US-East"
	SegmentEUCentral MarketSegment = "EU-Central"
	SegmentAPAC      MarketSegment = "APAC"
)

// Tier is the commercial tier of a customer.
type Tier string

const (
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Allowed values for each enrichment field, in draw order.
var (
	EngagementLevels    = []EngagementLevel{EngagementHigh, EngagementMedium, EngagementLow}
	ActivityStatuses    = []ActivityStatus{StatusActive, StatusInactive}
	AcquisitionChannels = []AcquisitionChannel{ChannelWebsite, ChannelMobileApp, ChannelEmailCampaign}
	MarketSegments      = []MarketSegment{SegmentUSWest, SegmentUSEast, SegmentEUCentral, SegmentAPAC}
	Tiers               = []Tier{TierBasic, TierPremium, TierEnterprise}
)

// Quality score bounds and penalties.
const (
	MaxQualityScore = 100

	// MissingEmailPenalty is subtracted when a record has no email.
	MissingEmailPenalty = 10

	// MissingNamePenalty is subtracted when a record has an empty full name.
	MissingNamePenalty = 10
)

// Record is a validated and enriched customer entry.
// Email is nil when the upstream record had no usable email.
type Record struct {
	CustomerID         int                `json:"customer_id"`
	FullName           string             `json:"full_name"`
	Email              *string            `json:"email"`
	EngagementLevel    EngagementLevel    `json:"engagement_level"`
	ActivityStatus     ActivityStatus     `json:"activity_status"`
	AcquisitionChannel AcquisitionChannel `json:"acquisition_channel"`
	MarketSegment      MarketSegment      `json:"market_segment"`
	CustomerTier       Tier               `json:"customer_tier"`
	DataQualityScore   int                `json:"data_quality_score"`
}

// HasEmail reports whether the record carries an email address.
func (r Record) HasEmail() bool {
	return r.Email != nil && *r.Email != ""
}

// QualityScore computes the data quality score for a record with the given
// completeness. It never goes below 80 under the current penalties.
func QualityScore(hasEmail, hasName bool) int {
	score := MaxQualityScore
	if !hasEmail {
		score -= MissingEmailPenalty
	}
	if !hasName {
		score -= MissingNamePenalty
	}
	return score
}
