package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
)

// FieldAnalyticsWindowDays is the default drill-down window for a single
// field, long enough to cover a full growing season.
const FieldAnalyticsWindowDays = 90

// monthlyTrendDays is how far back the monthly usage series reaches,
// independent of the requested window.
const monthlyTrendDays = 180

// AnalyticsService computes on-demand aggregates over completed irrigation
// history. Read-only; an empty history yields zeroed reports, never errors.
type AnalyticsService interface {
	WaterUsageStats(ctx context.Context, userID uuid.UUID, windowDays int) (*models.WaterUsageStats, error)
	EfficiencyReport(ctx context.Context, userID uuid.UUID, windowDays int) (*models.EfficiencyReport, error)
	FieldAnalytics(ctx context.Context, userID, fieldID uuid.UUID, windowDays int) (*models.FieldAnalytics, error)
}

type analyticsService struct {
	history    repositories.HistoryRepository
	fields     repositories.FieldSnapshotRepository
	windowDays int
	now        func() time.Time
	logger     *zap.Logger
}

// NewAnalyticsService creates a new analytics aggregator. defaultWindowDays
// is used when a caller passes a non-positive window.
func NewAnalyticsService(
	history repositories.HistoryRepository,
	fields repositories.FieldSnapshotRepository,
	defaultWindowDays int,
	logger *zap.Logger,
) AnalyticsService {
	if defaultWindowDays < 1 {
		defaultWindowDays = 30
	}
	return &analyticsService{
		history:    history,
		fields:     fields,
		windowDays: defaultWindowDays,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.Named("analytics-service"),
	}
}

func (s *analyticsService) WaterUsageStats(ctx context.Context, userID uuid.UUID, windowDays int) (*models.WaterUsageStats, error) {
	if windowDays < 1 {
		windowDays = s.windowDays
	}
	now := s.now()
	windowStart := now.AddDate(0, 0, -windowDays)

	// The week-over-week trend and monthly series have fixed lookbacks,
	// independent of the requested window. Fetch the larger range and
	// filter per aggregate so a short window cannot truncate the trend.
	lookback := windowDays
	if lookback < monthlyTrendDays {
		lookback = monthlyTrendDays
	}
	records, err := s.history.ListSince(ctx, userID, now.AddDate(0, 0, -lookback))
	if err != nil {
		return nil, err
	}

	stats := &models.WaterUsageStats{PeriodDays: windowDays}

	var totalLiters float64
	var windowCount int
	dailyTotals := make(map[string]float64)
	fieldTotals := make(map[uuid.UUID]*models.FieldUsage)
	methodTotals := make(map[models.IrrigationMethod]*models.MethodUsage)
	monthlyTotals := make(map[string]*models.MonthlyUsage)

	var ratingSum float64
	var ratedCount int
	var litersPerMinuteSum float64
	var timedCount int

	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	var recentWeek, previousWeek float64

	for _, r := range records {
		if !r.IrrigationDate.Before(weekAgo) {
			recentWeek += r.WaterAmountUsed
		} else if !r.IrrigationDate.Before(twoWeeksAgo) {
			previousWeek += r.WaterAmountUsed
		}

		month := r.IrrigationDate.Format("2006-01")
		mt := monthlyTotals[month]
		if mt == nil {
			mt = &models.MonthlyUsage{Month: month}
			monthlyTotals[month] = mt
		}
		mt.TotalLiters += r.WaterAmountUsed
		mt.EventCount++

		// Everything below aggregates the requested window only.
		if r.IrrigationDate.Before(windowStart) {
			continue
		}
		windowCount++

		totalLiters += r.WaterAmountUsed
		dailyTotals[r.IrrigationDate.Format("2006-01-02")] += r.WaterAmountUsed

		fu := fieldTotals[r.FieldID]
		if fu == nil {
			fu = &models.FieldUsage{FieldID: r.FieldID, FieldName: r.FieldName}
			fieldTotals[r.FieldID] = fu
		}
		fu.TotalLiters += r.WaterAmountUsed
		fu.EventCount++

		mu := methodTotals[r.Method]
		if mu == nil {
			mu = &models.MethodUsage{Method: r.Method}
			methodTotals[r.Method] = mu
		}
		mu.TotalLiters += r.WaterAmountUsed
		mu.EventCount++

		if r.EffectivenessRating != nil {
			ratingSum += float64(*r.EffectivenessRating)
			ratedCount++
		}
		if r.DurationMinutes > 0 {
			litersPerMinuteSum += r.WaterAmountUsed / float64(r.DurationMinutes)
			timedCount++
		}
	}

	stats.TotalLiters = totalLiters
	if len(dailyTotals) > 0 {
		stats.AverageDailyUsage = totalLiters / float64(len(dailyTotals))
	}

	for _, fu := range fieldTotals {
		stats.ByField = append(stats.ByField, *fu)
	}
	sort.Slice(stats.ByField, func(i, j int) bool {
		return stats.ByField[i].TotalLiters > stats.ByField[j].TotalLiters
	})

	for _, mu := range methodTotals {
		stats.ByMethod = append(stats.ByMethod, *mu)
	}
	sort.Slice(stats.ByMethod, func(i, j int) bool {
		return stats.ByMethod[i].TotalLiters > stats.ByMethod[j].TotalLiters
	})

	for _, mt := range monthlyTotals {
		stats.MonthlyTrends = append(stats.MonthlyTrends, *mt)
	}
	sort.Slice(stats.MonthlyTrends, func(i, j int) bool {
		return stats.MonthlyTrends[i].Month < stats.MonthlyTrends[j].Month
	})

	stats.Trend = models.UsageTrend{
		RecentWeekLiters:   recentWeek,
		PreviousWeekLiters: previousWeek,
	}
	if previousWeek > 0 {
		change := (recentWeek - previousWeek) / previousWeek * 100
		stats.Trend.PercentChange = &change
	}

	stats.Efficiency = models.EfficiencyMetrics{
		RatedEventCount: ratedCount,
		TotalEventCount: windowCount,
	}
	if ratedCount > 0 {
		avg := ratingSum / float64(ratedCount)
		stats.Efficiency.AverageRating = &avg
	}
	if timedCount > 0 {
		stats.Efficiency.AvgLitersPerMinute = litersPerMinuteSum / float64(timedCount)
	}

	return stats, nil
}

func (s *analyticsService) EfficiencyReport(ctx context.Context, userID uuid.UUID, windowDays int) (*models.EfficiencyReport, error) {
	if windowDays < 1 {
		windowDays = s.windowDays
	}
	records, err := s.history.ListSince(ctx, userID, s.now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}

	report := &models.EfficiencyReport{
		PeriodDays:      windowDays,
		TotalEvents:     len(records),
		PotentialWaste:  []models.WasteIndicator{},
		Recommendations: []models.Recommendation{},
	}
	if len(records) == 0 {
		return report, nil
	}

	byMethod := make(map[models.IrrigationMethod]*methodAgg)

	var totalLiters float64
	var ratingSum float64
	var ratedCount int
	var durationSum int

	for _, r := range records {
		agg := byMethod[r.Method]
		if agg == nil {
			agg = &methodAgg{}
			byMethod[r.Method] = agg
		}
		agg.count++
		agg.liters += r.WaterAmountUsed
		agg.duration += r.DurationMinutes
		if r.EffectivenessRating != nil {
			agg.ratingSum += float64(*r.EffectivenessRating)
			agg.rated++
			ratingSum += float64(*r.EffectivenessRating)
			ratedCount++
		}
		totalLiters += r.WaterAmountUsed
		durationSum += r.DurationMinutes
	}

	for method, agg := range byMethod {
		row := models.MethodEfficiency{
			Method:          method,
			EventCount:      agg.count,
			TotalLiters:     agg.liters,
			AvgDurationMins: float64(agg.duration) / float64(agg.count),
		}
		if agg.rated > 0 {
			avg := agg.ratingSum / float64(agg.rated)
			row.AverageRating = &avg
		}
		report.MethodEfficiency = append(report.MethodEfficiency, row)
	}
	sort.Slice(report.MethodEfficiency, func(i, j int) bool {
		return report.MethodEfficiency[i].Method < report.MethodEfficiency[j].Method
	})

	// Best performers: rated methods, highest average first, top three.
	for _, row := range report.MethodEfficiency {
		if row.AverageRating != nil {
			report.BestMethods = append(report.BestMethods, row)
		}
	}
	sort.Slice(report.BestMethods, func(i, j int) bool {
		return *report.BestMethods[i].AverageRating > *report.BestMethods[j].AverageRating
	})
	if len(report.BestMethods) > 3 {
		report.BestMethods = report.BestMethods[:3]
	}

	if ratedCount > 0 {
		avg := ratingSum / float64(ratedCount)
		report.AvgEffectivenessRate = &avg
	}

	var mostUsed models.IrrigationMethod
	var mostUsedCount int
	for method, agg := range byMethod {
		if agg.count > mostUsedCount || (agg.count == mostUsedCount && method < mostUsed) {
			mostUsed = method
			mostUsedCount = agg.count
		}
	}
	report.MostUsedMethod = mostUsed

	// Waste: above-average volume with a poor rating.
	avgLiters := totalLiters / float64(len(records))
	for _, r := range records {
		if r.EffectivenessRating != nil && *r.EffectivenessRating <= 2 && r.WaterAmountUsed > avgLiters {
			report.PotentialWaste = append(report.PotentialWaste, models.WasteIndicator{
				RecordID:        r.ID,
				FieldName:       r.FieldName,
				IrrigationDate:  r.IrrigationDate,
				WaterAmountUsed: r.WaterAmountUsed,
				Rating:          *r.EffectivenessRating,
			})
		}
	}

	report.Recommendations = buildRecommendations(byMethod, durationSum, len(records))
	return report, nil
}

func (s *analyticsService) FieldAnalytics(ctx context.Context, userID, fieldID uuid.UUID, windowDays int) (*models.FieldAnalytics, error) {
	if windowDays < 1 {
		windowDays = FieldAnalyticsWindowDays
	}

	// Ownership check before aggregating, and the source of the field name
	// even when the window holds no events.
	snapshot, err := s.fields.GetSnapshot(ctx, userID, fieldID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -windowDays)
	records, err := s.history.ListByField(ctx, userID, fieldID, since)
	if err != nil {
		return nil, err
	}

	report := &models.FieldAnalytics{
		FieldID:         fieldID,
		FieldName:       snapshot.Name,
		PeriodDays:      windowDays,
		IrrigationCount: len(records),
		MoistureTrends:  []models.MoistureTrendPoint{},
		RatingTrends:    []models.RatingTrendPoint{},
		WeeklyUsage:     []models.WeeklyUsage{},
	}

	type moistureAgg struct {
		beforeSum   float64
		beforeCount int
		afterSum    float64
		afterCount  int
		events      int
	}
	type ratingAgg struct {
		sum    float64
		events int
	}

	moistureByDay := make(map[time.Time]*moistureAgg)
	ratingByDay := make(map[time.Time]*ratingAgg)
	weeklyTotals := make(map[time.Time]*models.WeeklyUsage)

	for _, r := range records {
		report.TotalLiters += r.WaterAmountUsed
		day := r.IrrigationDate.Truncate(24 * time.Hour)

		if r.SoilMoistureBefore != nil || r.SoilMoistureAfter != nil {
			agg := moistureByDay[day]
			if agg == nil {
				agg = &moistureAgg{}
				moistureByDay[day] = agg
			}
			agg.events++
			if r.SoilMoistureBefore != nil {
				agg.beforeSum += *r.SoilMoistureBefore
				agg.beforeCount++
			}
			if r.SoilMoistureAfter != nil {
				agg.afterSum += *r.SoilMoistureAfter
				agg.afterCount++
			}
		}

		if r.EffectivenessRating != nil {
			agg := ratingByDay[day]
			if agg == nil {
				agg = &ratingAgg{}
				ratingByDay[day] = agg
			}
			agg.sum += float64(*r.EffectivenessRating)
			agg.events++
		}

		week := weekStart(r.IrrigationDate)
		wu := weeklyTotals[week]
		if wu == nil {
			wu = &models.WeeklyUsage{WeekStart: week}
			weeklyTotals[week] = wu
		}
		wu.TotalLiters += r.WaterAmountUsed
		wu.EventCount++
	}

	if len(records) > 0 {
		report.AvgPerIrrigation = report.TotalLiters / float64(len(records))
	}

	for day, agg := range moistureByDay {
		point := models.MoistureTrendPoint{Date: day, EventCount: agg.events}
		if agg.beforeCount > 0 {
			avg := agg.beforeSum / float64(agg.beforeCount)
			point.AvgBefore = &avg
		}
		if agg.afterCount > 0 {
			avg := agg.afterSum / float64(agg.afterCount)
			point.AvgAfter = &avg
		}
		report.MoistureTrends = append(report.MoistureTrends, point)
	}
	sort.Slice(report.MoistureTrends, func(i, j int) bool {
		return report.MoistureTrends[i].Date.Before(report.MoistureTrends[j].Date)
	})

	for day, agg := range ratingByDay {
		report.RatingTrends = append(report.RatingTrends, models.RatingTrendPoint{
			Date:       day,
			AvgRating:  agg.sum / float64(agg.events),
			EventCount: agg.events,
		})
	}
	sort.Slice(report.RatingTrends, func(i, j int) bool {
		return report.RatingTrends[i].Date.Before(report.RatingTrends[j].Date)
	})

	for _, wu := range weeklyTotals {
		report.WeeklyUsage = append(report.WeeklyUsage, *wu)
	}
	sort.Slice(report.WeeklyUsage, func(i, j int) bool {
		return report.WeeklyUsage[i].WeekStart.Before(report.WeeklyUsage[j].WeekStart)
	})

	return report, nil
}

// weekStart truncates to the Monday of t's calendar week.
func weekStart(t time.Time) time.Time {
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// methodAgg accumulates per-method totals while scanning the window.
type methodAgg struct {
	count     int
	ratingSum float64
	rated     int
	liters    float64
	duration  int
}

func (a *methodAgg) avgRating() (float64, bool) {
	if a.rated == 0 {
		return 0, false
	}
	return a.ratingSum / float64(a.rated), true
}

// buildRecommendations ranks actionable suggestions from the window's
// aggregates. Mirrors the advice the deployed system gives: prefer drip
// over sprinkler when it clearly outperforms, and flag long sessions.
func buildRecommendations(byMethod map[models.IrrigationMethod]*methodAgg, durationSum, total int) []models.Recommendation {
	recommendations := []models.Recommendation{}

	drip, dripOK := byMethod[models.MethodDrip]
	sprinkler, sprinklerOK := byMethod[models.MethodSprinkler]
	if dripOK && sprinklerOK {
		dripAvg, dripRated := drip.avgRating()
		sprinklerAvg, sprinklerRated := sprinkler.avgRating()
		if dripRated && sprinklerRated && dripAvg > sprinklerAvg+0.5 {
			recommendations = append(recommendations, models.Recommendation{
				Type:  "method_preference",
				Title: "Consider Drip Irrigation",
				Description: fmt.Sprintf(
					"Drip irrigation shows %.1f average rating vs %.1f for sprinkler",
					dripAvg, sprinklerAvg),
				Priority: models.PriorityMedium,
			})
		}
	}

	if total > 0 {
		avgDuration := float64(durationSum) / float64(total)
		if avgDuration > 60 {
			recommendations = append(recommendations, models.Recommendation{
				Type:  "duration_optimization",
				Title: "Review Irrigation Duration",
				Description: fmt.Sprintf(
					"Average irrigation duration is %.0f minutes. Consider shorter, more frequent sessions.",
					avgDuration),
				Priority: models.PriorityLow,
			})
		}
	}

	return recommendations
}

var _ AnalyticsService = (*analyticsService)(nil)
