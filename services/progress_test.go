package services

import "testing"

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		target   float64
		previous int
		want     int
	}{
		{"nothing raised", 0, 1000, 0, 0},
		{"quarter", 250, 1000, 0, 25},
		{"rounds half up", 125, 1000, 0, 13},
		{"rounds down", 1234, 10000, 0, 12},
		{"exactly funded", 1000, 1000, 0, 100},
		{"over funded caps", 1500, 1000, 0, 100},
		{"zero target keeps previous", 500, 0, 42, 42},
		{"negative target keeps previous", 500, -10, 7, 7},
		{"cents", 0.1 + 0.2, 0.3, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeProgress(tt.current, tt.target, tt.previous); got != tt.want {
				t.Errorf("ComputeProgress(%v, %v, %d) = %d, want %d", tt.current, tt.target, tt.previous, got, tt.want)
			}
		})
	}
}

func TestLessonProgress(t *testing.T) {
	if got := LessonProgress(3, 0); got != 0 {
		t.Errorf("LessonProgress with no lessons = %d, want 0", got)
	}
	if got := LessonProgress(2, 3); got != 67 {
		t.Errorf("LessonProgress(2, 3) = %d, want 67", got)
	}
	if got := LessonProgress(8, 8); got != 100 {
		t.Errorf("LessonProgress(8, 8) = %d, want 100", got)
	}
}
