package submission

import (
	"reflect"
	"testing"
	"time"
)

func TestComputePerformance(t *testing.T) {
	now := time.Now().UTC()
	at := func(h int) time.Time { return now.Add(time.Duration(h) * time.Hour) }
	score := func(name string, val int, h int) StudentSkillScore {
		return StudentSkillScore{SkillName: name, Score: val, GradedAt: at(h)}
	}

	tests := []struct {
		name   string
		scores []StudentSkillScore
		want   PerformanceReport
	}{
		{
			name: "no graded work",
			want: PerformanceReport{Skills: []SkillPerformance{}, Strengths: []string{}, Weaknesses: []string{}},
		},
		{
			name:   "single data point is steady",
			scores: []StudentSkillScore{score("Creativity", 75, 0)},
			want: PerformanceReport{
				Skills:         []SkillPerformance{{Skill: "Creativity", Count: 1, Average: 75, Trend: TrendSteady}},
				OverallAverage: 75,
				Strengths:      []string{},
				Weaknesses:     []string{},
			},
		},
		{
			name: "strength at threshold",
			scores: []StudentSkillScore{
				score("Collaboration", 78, 0),
				score("Collaboration", 82, 1),
			},
			want: PerformanceReport{
				Skills:         []SkillPerformance{{Skill: "Collaboration", Count: 2, Average: 80, Trend: TrendImproving}},
				OverallAverage: 80,
				Strengths:      []string{"Collaboration"},
				Weaknesses:     []string{},
			},
		},
		{
			name: "weakness below threshold",
			scores: []StudentSkillScore{
				score("Communication", 72, 0),
				score("Communication", 65, 1),
			},
			want: PerformanceReport{
				Skills:         []SkillPerformance{{Skill: "Communication", Count: 2, Average: 68.5, Trend: TrendDeclining}},
				OverallAverage: 68.5,
				Strengths:      []string{},
				Weaknesses:     []string{"Communication"},
			},
		},
		{
			name: "average between thresholds is neither",
			scores: []StudentSkillScore{
				score("Critical Thinking", 70, 0),
				score("Critical Thinking", 70, 1),
			},
			want: PerformanceReport{
				Skills:         []SkillPerformance{{Skill: "Critical Thinking", Count: 2, Average: 70, Trend: TrendSteady}},
				OverallAverage: 70,
				Strengths:      []string{},
				Weaknesses:     []string{},
			},
		},
		{
			name: "multiple skills, chronological trend regardless of input order",
			scores: []StudentSkillScore{
				score("Creativity", 90, 5), // latest first; must still read as improving
				score("Creativity", 60, 0),
				score("Collaboration", 85, 1),
				score("Communication", 50, 2),
				score("Communication", 45, 3),
			},
			want: PerformanceReport{
				Skills: []SkillPerformance{
					{Skill: "Collaboration", Count: 1, Average: 85, Trend: TrendSteady},
					{Skill: "Communication", Count: 2, Average: 47.5, Trend: TrendDeclining},
					{Skill: "Creativity", Count: 2, Average: 75, Trend: TrendImproving},
				},
				OverallAverage: 69.17,
				Strengths:      []string{"Collaboration"},
				Weaknesses:     []string{"Communication"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputePerformance(tt.scores); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputePerformance() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
