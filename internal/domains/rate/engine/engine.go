// Package engine computes layered nightly rates. It is deterministic: the
// same policy snapshot, input and reference time always produce the same
// quote. Adjustments apply in a fixed order per night — base, plan
// multiplier, day-of-week multiplier, stacked seasons, promotion — and each
// night is rounded to two decimals only after every adjustment, so the stay
// total is the sum of the rounded nights.
package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lodge/internal/domains/rate/model"
	"lodge/shared/constant"
	"lodge/shared/failure"
)

const (
	defaultPlanCode        = "BAR"
	defaultDepositPercent  = 10
	defaultDepositCeiling  = 100
	hoursPerNight          = constant.HoursPerNight
	adjustmentTypeBase     = "base"
	adjustmentTypePlan     = "plan"
	adjustmentTypeDOW      = "day_of_week"
	adjustmentTypeSeason   = "season"
	adjustmentTypePromo    = "promo"
	defaultSeasonLabel     = "Seasonal"
)

var dayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Clock supplies "today" so lead-time gates are testable.
type Clock func() time.Time

// Input is one quote request resolved against the catalog: the caller has
// already looked up the room type and its base nightly rate.
type Input struct {
	RoomTypeID   string
	RoomTypeName string
	BaseRate     float64
	CheckIn      time.Time
	CheckOut     time.Time
	PlanCode     string
	PromoCode    string
	Channel      string
	AccessCode   string
}

// RoundCurrency rounds a money amount to two decimal places.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func diffDays(start, end time.Time) int {
	return int(end.Sub(start).Hours() / hoursPerNight)
}

func dayKey(date time.Time) string {
	return dayKeys[int(date.Weekday())]
}

func normalizeChannel(channel string) string {
	normalized := strings.ToLower(strings.TrimSpace(channel))
	if normalized == "" {
		return constant.DefaultChannel
	}

	return normalized
}

type blackoutDetails struct {
	Date   string              `json:"date"`
	From   model.StayDate      `json:"from"`
	To     model.StayDate      `json:"to"`
	Name   string              `json:"name,omitempty"`
	Reason string              `json:"reason,omitempty"`
	Scope  model.RoomTypeScope `json:"room_type_ids,omitempty"`
}

type stayLengthDetails struct {
	RequiredMinNights int `json:"required_min_nights,omitempty"`
	AllowedMaxNights  int `json:"allowed_max_nights,omitempty"`
	ActualNights      int `json:"actual_nights"`
}

type leadTimeDetails struct {
	RequiredMinDays int `json:"required_min_days,omitempty"`
	AllowedMaxDays  int `json:"allowed_max_days,omitempty"`
	ActualLeadDays  int `json:"actual_lead_days"`
}

type channelDetails struct {
	AllowedChannels []string `json:"allowed_channels"`
}

type accessCodeDetails struct {
	RequiresCode bool `json:"requires_code"`
}

// resolvePlan applies the plan hard gates. Any violation is a policy
// rejection reported with the specific violated rule.
func resolvePlan(policy *model.Policy, in Input, nights int, channel string) (*model.Plan, string, error) {
	planCode := strings.ToUpper(strings.TrimSpace(in.PlanCode))
	if planCode == "" {
		planCode = strings.ToUpper(policy.DefaultPlan)
	}

	if planCode == "" {
		planCode = defaultPlanCode
	}

	plan := policy.FindPlan(planCode)
	if plan == nil {
		return nil, planCode, failure.NotFound(fmt.Sprintf("rate plan %s is not configured", planCode)) // nolint:wrapcheck
	}

	if !plan.AllowsChannel(channel) {
		return nil, planCode, failure.UnprocessableEntity( // nolint:wrapcheck
			fmt.Sprintf("plan %s is not available on channel %s", planCode, channel),
			channelDetails{AllowedChannels: plan.Channels},
		)
	}

	if !plan.RoomTypeIDs.Matches(in.RoomTypeID) {
		return nil, planCode, failure.UnprocessableEntity( // nolint:wrapcheck
			fmt.Sprintf("plan %s is not available for room type %s", planCode, in.RoomTypeID),
			nil,
		)
	}

	if plan.RequiresCode != "" && plan.RequiresCode != in.AccessCode {
		return nil, planCode, failure.UnprocessableEntity( // nolint:wrapcheck
			fmt.Sprintf("rate plan %s requires an access code", planCode),
			accessCodeDetails{RequiresCode: true},
		)
	}

	if plan.MinNights > 0 && nights < plan.MinNights {
		return nil, planCode, failure.UnprocessableEntity( // nolint:wrapcheck
			"minimum nights not met for rate plan",
			stayLengthDetails{RequiredMinNights: plan.MinNights, ActualNights: nights},
		)
	}

	if plan.MaxNights > 0 && nights > plan.MaxNights {
		return nil, planCode, failure.UnprocessableEntity( // nolint:wrapcheck
			"maximum nights exceeded for rate plan",
			stayLengthDetails{AllowedMaxNights: plan.MaxNights, ActualNights: nights},
		)
	}

	return plan, planCode, nil
}

func checkLeadTime(policy *model.Policy, checkIn, today time.Time) (int, error) {
	leadDays := diffDays(truncateToDay(today), checkIn)

	if leadDays < policy.LeadTimeRules.MinDays {
		return leadDays, failure.UnprocessableEntity( // nolint:wrapcheck
			"minimum lead time not met",
			leadTimeDetails{RequiredMinDays: policy.LeadTimeRules.MinDays, ActualLeadDays: leadDays},
		)
	}

	if policy.LeadTimeRules.MaxDays > 0 && leadDays > policy.LeadTimeRules.MaxDays {
		return leadDays, failure.UnprocessableEntity( // nolint:wrapcheck
			"maximum lead time exceeded",
			leadTimeDetails{AllowedMaxDays: policy.LeadTimeRules.MaxDays, ActualLeadDays: leadDays},
		)
	}

	return leadDays, nil
}

// resolvePromo narrows the promo to one that applies to this stay. A promo
// that exists but falls out of scope degrades to a warning, never a
// rejection.
func resolvePromo(policy *model.Policy, in Input, nights int, channel, planCode string) (*model.Promo, []string) {
	warnings := []string{}

	promoCode := strings.ToUpper(strings.TrimSpace(in.PromoCode))
	if promoCode == "" {
		return nil, warnings
	}

	promo := policy.FindPromo(promoCode)
	if promo == nil {
		return nil, append(warnings, fmt.Sprintf("promo code %s not recognized", promoCode))
	}

	switch {
	case !promo.AllowsChannel(channel):
		warnings = append(warnings, fmt.Sprintf("promo code %s not available on %s", promo.Code, channel))
	case promo.RequiresPlan != "" && !strings.EqualFold(promo.RequiresPlan, planCode):
		warnings = append(warnings, fmt.Sprintf("promo code %s only applies to plan %s", promo.Code, promo.RequiresPlan))
	case promo.MinNights > 0 && nights < promo.MinNights:
		warnings = append(warnings, fmt.Sprintf("promo code %s requires minimum %d nights", promo.Code, promo.MinNights))
	case promo.MaxNights > 0 && nights > promo.MaxNights:
		warnings = append(warnings, fmt.Sprintf("promo code %s only valid up to %d nights", promo.Code, promo.MaxNights))
	default:
		return promo, warnings
	}

	return nil, warnings
}

func findBlackout(policy *model.Policy, date time.Time, roomTypeID string) *model.Blackout {
	for i := range policy.Blackouts {
		blackout := &policy.Blackouts[i]

		if !blackout.RoomTypeIDs.Matches(roomTypeID) {
			continue
		}

		if model.Within(date, blackout.From, blackout.To) {
			return blackout
		}
	}

	return nil
}

func priceNight(policy *model.Policy, plan *model.Plan, promo *model.Promo, date time.Time, baseRate float64) model.NightRate {
	rate := baseRate
	adjustments := []model.Adjustment{
		{Type: adjustmentTypeBase, Amount: RoundCurrency(baseRate)},
	}

	if plan.Multiplier != 0 && plan.Multiplier != 1 {
		rate *= plan.Multiplier
		adjustments = append(adjustments, model.Adjustment{
			Type:   adjustmentTypePlan,
			Label:  plan.Code,
			Factor: plan.Multiplier,
		})
	}

	if factor, ok := policy.DayOfWeek[dayKey(date)]; ok && factor != 0 && factor != 1 {
		rate *= factor
		adjustments = append(adjustments, model.Adjustment{
			Type:   adjustmentTypeDOW,
			Label:  dayKey(date),
			Factor: factor,
		})
	}

	for i := range policy.Seasons {
		season := &policy.Seasons[i]
		if !model.Within(date, season.From, season.To) {
			continue
		}

		factor := season.Multiplier
		if factor == 0 {
			factor = 1
		}

		rate *= factor

		label := season.Name
		if label == "" {
			label = defaultSeasonLabel
		}

		adjustments = append(adjustments, model.Adjustment{
			Type:   adjustmentTypeSeason,
			Label:  label,
			Factor: factor,
		})
	}

	if promo != nil && model.Within(date, promo.From, promo.To) {
		if strings.EqualFold(promo.Type, model.PromoTypePercent) {
			delta := rate * (promo.Value / 100)
			rate -= delta
			adjustments = append(adjustments, model.Adjustment{
				Type:    adjustmentTypePromo,
				Label:   promo.Code,
				Percent: promo.Value,
				Amount:  -RoundCurrency(delta),
			})
		} else {
			rate = math.Max(0, rate-promo.Value)
			adjustments = append(adjustments, model.Adjustment{
				Type:   adjustmentTypePromo,
				Label:  promo.Code,
				Amount: -RoundCurrency(promo.Value),
			})
		}
	}

	return model.NightRate{
		Date:        date,
		Rate:        RoundCurrency(rate),
		Adjustments: adjustments,
	}
}

// ComputeDeposit is the minimum advance payment: a percentage of the stay
// total rounded up to the policy's granularity.
func ComputeDeposit(rule model.DepositRule, total float64) float64 {
	percent := rule.Percent
	if percent <= 0 {
		percent = defaultDepositPercent
	}

	granularity := rule.RoundingGranularity
	if granularity <= 0 {
		granularity = defaultDepositCeiling
	}

	raw := total * percent / 100

	return math.Ceil(raw/granularity) * granularity
}

// Quote prices a stay against one policy snapshot. Hard gates (plan
// eligibility, stay length, lead time, blackouts) reject the whole quote;
// promo scope misses degrade to warnings.
func Quote(policy *model.Policy, in Input, today time.Time) (model.Quote, error) {
	var quote model.Quote

	checkIn := truncateToDay(in.CheckIn)
	checkOut := truncateToDay(in.CheckOut)

	nights := diffDays(checkIn, checkOut)
	if nights <= 0 {
		return quote, failure.BadRequestFromString("check_out must be after check_in") // nolint:wrapcheck
	}

	channel := normalizeChannel(in.Channel)

	plan, planCode, err := resolvePlan(policy, in, nights, channel)
	if err != nil {
		return quote, err
	}

	leadDays, err := checkLeadTime(policy, checkIn, today)
	if err != nil {
		return quote, err
	}

	promo, warnings := resolvePromo(policy, in, nights, channel, planCode)

	nightly := make([]model.NightRate, 0, nights)
	total := 0.0

	for i := range nights {
		date := checkIn.AddDate(0, 0, i)

		if blackout := findBlackout(policy, date, in.RoomTypeID); blackout != nil {
			return quote, failure.ConflictWithDetails( // nolint:wrapcheck
				"requested stay intersects blackout period",
				blackoutDetails{
					Date:   date.Format(constant.StayDateFormat),
					From:   blackout.From,
					To:     blackout.To,
					Name:   blackout.Name,
					Reason: blackout.Reason,
					Scope:  blackout.RoomTypeIDs,
				},
			)
		}

		night := priceNight(policy, plan, promo, date, in.BaseRate)
		total += night.Rate
		nightly = append(nightly, night)
	}

	planMultiplier := plan.Multiplier
	if planMultiplier == 0 {
		planMultiplier = 1
	}

	quote = model.Quote{
		RoomTypeID:     in.RoomTypeID,
		RoomTypeName:   in.RoomTypeName,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Nights:         nights,
		Channel:        channel,
		PlanCode:       plan.Code,
		PlanName:       plan.Name,
		PlanMultiplier: planMultiplier,
		BaseRate:       RoundCurrency(in.BaseRate),
		Nightly:        nightly,
		Total:          RoundCurrency(total),
		MinNights:      plan.MinNights,
		MaxNights:      plan.MaxNights,
		LeadTimeMin:    policy.LeadTimeRules.MinDays,
		LeadTimeMax:    policy.LeadTimeRules.MaxDays,
		LeadDays:       leadDays,
		Warnings:       warnings,
	}

	quote.Deposit = ComputeDeposit(policy.Deposit, quote.Total)

	if promo != nil {
		quote.AppliedPromo = &model.AppliedPromo{
			Code:  promo.Code,
			Type:  promo.Type,
			Value: promo.Value,
		}
	}

	return quote, nil
}
