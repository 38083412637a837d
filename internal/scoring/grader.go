// internal/scoring/grader.go
package scoring

import (
	"fmt"
)

type Band struct {
	Threshold float64 `toml:"threshold"`
	Letter    string  `toml:"letter"`
	GPA       float64 `toml:"gpa"`
}

// Scale is ordered by strictly descending threshold.
type Scale []Band

var DefaultScale = Scale{
	{Threshold: 93, Letter: "A", GPA: 4.0},
	{Threshold: 90, Letter: "A-", GPA: 3.7},
	{Threshold: 87, Letter: "B+", GPA: 3.3},
	{Threshold: 83, Letter: "B", GPA: 3.0},
	{Threshold: 80, Letter: "B-", GPA: 2.7},
	{Threshold: 77, Letter: "C+", GPA: 2.3},
	{Threshold: 73, Letter: "C", GPA: 2.0},
	{Threshold: 70, Letter: "C-", GPA: 1.7},
	{Threshold: 67, Letter: "D+", GPA: 1.3},
	{Threshold: 63, Letter: "D", GPA: 1.0},
	{Threshold: 60, Letter: "D-", GPA: 0.7},
	{Threshold: 0, Letter: "F", GPA: 0.0},
}

// LetterGradeFor looks percentage up in DefaultScale.
func LetterGradeFor(percentage float64) (string, float64) {
	return DefaultScale.Lookup(percentage)
}

// Lookup returns the band with the highest threshold <= percentage. Anything
// below the last threshold falls into the last band, so every input maps.
func (s Scale) Lookup(percentage float64) (string, float64) {
	for _, band := range s {
		if percentage >= band.Threshold {
			return band.Letter, band.GPA
		}
	}
	last := s[len(s)-1]
	return last.Letter, last.GPA
}

func (s Scale) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("grade scale is empty")
	}
	for i, band := range s {
		if band.Letter == "" {
			return fmt.Errorf("grade scale entry %d has no letter", i)
		}
		if i > 0 && band.Threshold >= s[i-1].Threshold {
			return fmt.Errorf("grade scale thresholds must strictly decrease: %v after %v", band.Threshold, s[i-1].Threshold)
		}
	}
	return nil
}

type Evaluation struct {
	Percentage float64
	Letter     string
	GPA        float64
}

type Grader struct {
	scale Scale
}

// NewGrader falls back to DefaultScale when scale is empty.
func NewGrader(scale Scale) (*Grader, error) {
	if len(scale) == 0 {
		return &Grader{scale: DefaultScale}, nil
	}
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	return &Grader{scale: scale}, nil
}

func (g *Grader) Scale() Scale {
	return g.scale
}

// Percentage treats a zero max score as 0% instead of dividing by zero.
func (g *Grader) Percentage(score, maxScore int) float64 {
	if maxScore == 0 {
		return 0
	}
	return float64(score) / float64(maxScore) * 100
}

func (g *Grader) Evaluate(percentage float64) Evaluation {
	letter, gpa := g.scale.Lookup(percentage)
	return Evaluation{
		Percentage: percentage,
		Letter:     letter,
		GPA:        gpa,
	}
}

func (g *Grader) EvaluateScore(score, maxScore int) Evaluation {
	return g.Evaluate(g.Percentage(score, maxScore))
}

// Average is the plain mean of raw scores. ok is false when there are none.
func (g *Grader) Average(scores []int) (avg float64, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores)), true
}
