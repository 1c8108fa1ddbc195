package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studydeck/studydeck/internal/application/dashboard"
	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/domain/record"
)

func TestFormatDigest(t *testing.T) {
	overview := dashboard.Overview{
		Date:     "2024-01-10",
		DayLabel: "Today",
		Tasks: []dashboard.TaskView{
			{Task: planner.Task{Name: "Read <20> pages"}, Done: true},
			{Task: planner.Task{Name: "Gym"}, Done: false},
		},
		Classes: []record.Class{{Time: "09:00", Subject: "Maths", Room: "101"}},
		Exams:   []record.Exam{{Subject: "Physics", Date: "2024-01-12"}},
		Events:  []record.Event{{Name: "Tech Fest", Date: "2024-01-13"}},
		Attendance: academics.Stats{
			Present: 7,
			Total:   10,
			Percent: 70,
		},
	}

	text := FormatDigest(overview)

	assert.Contains(t, text, "<b>Today — 2024-01-10</b>")
	assert.Contains(t, text, "✓ Read &lt;20&gt; pages")
	assert.Contains(t, text, "○ Gym")
	assert.Contains(t, text, "09:00 Maths (101)")
	assert.Contains(t, text, "2024-01-12 — Physics")
	assert.Contains(t, text, "2024-01-13 — Tech Fest")
	assert.Contains(t, text, "Attendance: 70% ⚠")
}

func TestFormatDigestEmptySections(t *testing.T) {
	text := FormatDigest(dashboard.Overview{Date: "2024-01-10", DayLabel: "Today"})
	assert.NotContains(t, text, "Tasks")
	assert.NotContains(t, text, "Classes")
	assert.NotContains(t, text, "Attendance")
}
