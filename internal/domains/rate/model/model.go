package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"lodge/shared/constant"
)

// StayDate is a calendar date inside the policy document. The zero value
// means "open ended" on that side of a window.
type StayDate struct {
	time.Time
}

func (d *StayDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("policy date must be a string: %w", err)
	}

	if raw == "" {
		d.Time = time.Time{}

		return nil
	}

	parsed, err := time.Parse(constant.StayDateFormat, raw)
	if err != nil {
		return fmt.Errorf("invalid policy date %q: %w", raw, err)
	}

	d.Time = parsed

	return nil
}

func (d StayDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}

	return json.Marshal(d.Format(constant.StayDateFormat))
}

// RoomTypeScope restricts a rule to specific room types. It unmarshals from
// either a list of ids, a single id, or the literal "ALL"; empty means the
// rule applies everywhere.
type RoomTypeScope []string

func (s *RoomTypeScope) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" || strings.EqualFold(single, "ALL") {
			*s = nil

			return nil
		}

		*s = RoomTypeScope{single}

		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("room type scope must be a string or a list: %w", err)
	}

	*s = RoomTypeScope(list)

	return nil
}

func (s RoomTypeScope) Matches(roomTypeID string) bool {
	if len(s) == 0 {
		return true
	}

	return slices.Contains(s, roomTypeID)
}

type Plan struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Multiplier   float64       `json:"multiplier"`
	Channels     []string      `json:"channels"`
	RoomTypeIDs  RoomTypeScope `json:"room_type_ids"`
	RequiresCode string        `json:"requires_code"`
	MinNights    int           `json:"min_nights"`
	MaxNights    int           `json:"max_nights"`
}

// AllowsChannel reports whether the plan sells on the channel. A plan with
// no channel list sells everywhere.
func (p *Plan) AllowsChannel(channel string) bool {
	if len(p.Channels) == 0 {
		return true
	}

	for _, c := range p.Channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}

	return false
}

type Season struct {
	Name       string   `json:"name"`
	From       StayDate `json:"from"`
	To         StayDate `json:"to"`
	Multiplier float64  `json:"multiplier"`
}

type Promo struct {
	Code         string   `json:"code"`
	Type         string   `json:"type"`
	Value        float64  `json:"value"`
	From         StayDate `json:"from"`
	To           StayDate `json:"to"`
	Channels     []string `json:"channels"`
	RequiresPlan string   `json:"requires_plan"`
	MinNights    int      `json:"min_nights"`
	MaxNights    int      `json:"max_nights"`
}

const (
	PromoTypePercent = "percent"
	PromoTypeFlat    = "flat"
)

func (p *Promo) AllowsChannel(channel string) bool {
	if len(p.Channels) == 0 {
		return true
	}

	for _, c := range p.Channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}

	return false
}

type Blackout struct {
	Name        string        `json:"name"`
	From        StayDate      `json:"from"`
	To          StayDate      `json:"to"`
	RoomTypeIDs RoomTypeScope `json:"room_type_ids"`
	Reason      string        `json:"reason"`
}

type LeadTimeRules struct {
	MinDays int `json:"min_days"`
	// MaxDays 0 means unbounded.
	MaxDays int `json:"max_days"`
}

type DepositRule struct {
	Percent             float64 `json:"percent"`
	RoundingGranularity float64 `json:"rounding_granularity"`
}

// Policy is one immutable snapshot of the rate rules document. Quotes always
// see a single consistent snapshot.
type Policy struct {
	DefaultPlan   string             `json:"default_plan"`
	Plans         []Plan             `json:"plans"`
	Seasons       []Season           `json:"seasons"`
	Promos        []Promo            `json:"promos"`
	Blackouts     []Blackout         `json:"blackouts"`
	DayOfWeek     map[string]float64 `json:"day_of_week"`
	LeadTimeRules LeadTimeRules      `json:"lead_time_rules"`
	Deposit       DepositRule        `json:"deposit"`
}

func (p *Policy) FindPlan(code string) *Plan {
	for i := range p.Plans {
		if strings.EqualFold(p.Plans[i].Code, code) {
			return &p.Plans[i]
		}
	}

	return nil
}

func (p *Policy) FindPromo(code string) *Promo {
	if code == "" {
		return nil
	}

	for i := range p.Promos {
		if strings.EqualFold(p.Promos[i].Code, code) {
			return &p.Promos[i]
		}
	}

	return nil
}

// Within reports whether a night falls inside a [from, to] window, both ends
// inclusive and either end optional.
func Within(date time.Time, from, to StayDate) bool {
	if !from.IsZero() && date.Before(from.Time) {
		return false
	}

	if !to.IsZero() && date.After(to.Time) {
		return false
	}

	return true
}

// Adjustment is one pricing step applied to a night, in application order.
type Adjustment struct {
	Type    string  `json:"type"`
	Label   string  `json:"label,omitempty"`
	Factor  float64 `json:"factor,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
}

type NightRate struct {
	Date        time.Time
	Rate        float64
	Adjustments []Adjustment
}

type AppliedPromo struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Quote is a fully priced stay. Total is the sum of the already rounded
// nightly rates, so re-rounding it is a no-op.
type Quote struct {
	RoomTypeID     string
	RoomTypeName   string
	CheckIn        time.Time
	CheckOut       time.Time
	Nights         int
	Channel        string
	PlanCode       string
	PlanName       string
	PlanMultiplier float64
	BaseRate       float64
	Nightly        []NightRate
	Total          float64
	Deposit        float64
	AppliedPromo   *AppliedPromo
	MinNights      int
	MaxNights      int
	LeadTimeMin    int
	LeadTimeMax    int
	LeadDays       int
	Warnings       []string
}
