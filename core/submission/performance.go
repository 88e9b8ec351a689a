package submission

import (
	"math"
	"sort"
)

// Performance thresholds & trends
const (
	strengthThreshold = 80
	weaknessThreshold = 70

	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendSteady    = "steady"
)

type (
	// SkillPerformance summarizes a student's graded data points for one skill.
	SkillPerformance struct {
		Skill   string  `json:"skill"`
		Count   int     `json:"count"`
		Average float64 `json:"average"`
		// Trend compares the most recent score against the earliest one.
		Trend string `json:"trend"`
	}

	PerformanceReport struct {
		Skills         []SkillPerformance `json:"skills"`
		OverallAverage float64            `json:"overall_average"`
		Strengths      []string           `json:"strengths"`
		Weaknesses     []string           `json:"weaknesses"`
	}
)

// ComputePerformance groups a student's skill scores by skill and reduces each
// group to a count, an average and a two-point trend; skills are then bucketed
// into strengths (average >= 80) and weaknesses (average < 70).
// An empty input yields an empty report.
func ComputePerformance(scores []StudentSkillScore) PerformanceReport {
	report := PerformanceReport{
		Skills:     []SkillPerformance{},
		Strengths:  []string{},
		Weaknesses: []string{},
	}
	if len(scores) == 0 {
		return report
	}

	// group by skill, preserving chronological order within each group
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].GradedAt.Before(scores[j].GradedAt) })
	groups := make(map[string][]int)
	for _, s := range scores {
		groups[s.SkillName] = append(groups[s.SkillName], s.Score)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var total float64
	for _, name := range names {
		group := groups[name]

		var sum int
		for _, score := range group {
			sum += score
		}
		avg := round2(float64(sum) / float64(len(group)))
		total += avg

		report.Skills = append(report.Skills, SkillPerformance{
			Skill:   name,
			Count:   len(group),
			Average: avg,
			Trend:   trend(group),
		})

		if avg >= strengthThreshold {
			report.Strengths = append(report.Strengths, name)
		} else if avg < weaknessThreshold {
			report.Weaknesses = append(report.Weaknesses, name)
		}
	}
	report.OverallAverage = round2(total / float64(len(report.Skills)))
	return report
}

// trend naively compares the last data point against the first.
func trend(group []int) string {
	if len(group) < 2 {
		return TrendSteady
	}
	first, last := group[0], group[len(group)-1]
	switch {
	case last > first:
		return TrendImproving
	case last < first:
		return TrendDeclining
	default:
		return TrendSteady
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
