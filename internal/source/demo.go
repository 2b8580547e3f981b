package source

import (
	"context"
	"time"

	"github.com/mcao2/careops-triage/internal/triage"
)

// Demo serves a fixed set of sample clinical notifications. Timestamps are
// relative to the clock so the set always falls inside the default windows.
type Demo struct {
	Latency time.Duration
	Now     func() time.Time
}

// NewDemo returns a demo source that waits latency before answering
func NewDemo(latency time.Duration) *Demo {
	return &Demo{Latency: latency, Now: time.Now}
}

// Name implements Source
func (d *Demo) Name() string {
	return "demo"
}

// Fetch returns the sample items after the configured latency
func (d *Demo) Fetch(ctx context.Context) ([]triage.Item, error) {
	if d.Latency > 0 {
		if err := sleepContext(ctx, d.Latency); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	return demoItems(now), nil
}

// MarkRead is a no-op; read state lives in the engine
func (d *Demo) MarkRead(ctx context.Context, id string) error {
	return ctx.Err()
}

func demoItems(now time.Time) []triage.Item {
	ago := func(d time.Duration) time.Time { return now.Add(-d).Truncate(time.Second) }
	score := func(v float64) *float64 { return &v }

	return []triage.Item{
		{
			ID:         "demo-001",
			Kind:       triage.KindNotification,
			Sender:     "paging@stmarys.org",
			Subject:    "CODE BLUE - Ward 4B Room 412",
			Content:    "Cardiac arrest in progress. Resuscitation team respond immediately.",
			Timestamp:  ago(3 * time.Minute),
			Department: "Emergency",
			Tags:       []string{"code", "resus"},
			Code:       "code-blue",
		},
		{
			ID:           "demo-002",
			Kind:         triage.KindEmail,
			Sender:       "lab@stmarys.org",
			Subject:      "Critical value: potassium 6.8",
			Content:      "Lab result for patient J. Moreno, bed 12. Please review and acknowledge.",
			Timestamp:    ago(12 * time.Minute),
			Department:   "ICU",
			Interactions: 4,
			Online:       true,
		},
		{
			ID:         "demo-003",
			Kind:       triage.KindChat,
			Sender:     "dr.okafor@stmarys.org",
			Subject:    "Medication change bed 7",
			Content:    "Switched anticoagulant after consult, allergy list updated.",
			Timestamp:  ago(40 * time.Minute),
			Department: "Cardiology",
			Online:     true,
		},
		{
			ID:         "demo-004",
			Kind:       triage.KindNotification,
			Sender:     "paging@stmarys.org",
			Subject:    "Code red drill complete",
			Content:    "Fire drill on level 2 has finished. All clear.",
			Timestamp:  ago(2 * time.Hour),
			Department: "Facilities",
			Code:       triage.CodeCleared,
		},
		{
			ID:          "demo-005",
			Kind:        triage.KindEmail,
			Sender:      "compliance@stmarys.org",
			Subject:     "Annual compliance audit",
			Content:     "Action required: complete hand hygiene training and sign off the updated policy.",
			Timestamp:   ago(5 * time.Hour),
			Department:  "Admin",
			Attachments: 2,
			Compliance:  score(0.82),
		},
		{
			ID:         "demo-006",
			Kind:       triage.KindEmail,
			Sender:     "rostering@stmarys.org",
			Subject:    "Shift schedule for next week",
			Content:    "Staffing changes for the night shift are attached.",
			Timestamp:  ago(9 * time.Hour),
			Department: "Admin",
			Read:       true,
			Compliance: score(0.95),
		},
		{
			ID:        "demo-007",
			Kind:      triage.KindAppointment,
			Sender:    "scheduling@stmarys.org",
			Subject:   "Reminder: team meeting",
			Content:   "Monthly department meeting in the east conference room.",
			Timestamp: ago(20 * time.Hour),
		},
		{
			ID:        "demo-008",
			Kind:      triage.KindEmail,
			Sender:    "comms@stmarys.org",
			Subject:   "Hospital newsletter",
			Content:   "This month: new parking arrangements and the staff survey results.",
			Timestamp: ago(3 * 24 * time.Hour),
			Read:      true,
		},
		{
			ID:           "demo-009",
			Kind:         triage.KindChat,
			Sender:       "charge.nurse@stmarys.org",
			Subject:      "Rapid response called",
			Content:      "Rapid response to bed 3, patient desaturating. Need respiratory therapy now.",
			Timestamp:    ago(6 * time.Minute),
			Department:   "Surgery",
			Interactions: 9,
			Online:       true,
		},
		{
			ID:        "demo-010",
			Kind:      triage.KindNotification,
			Sender:    "it@stmarys.org",
			Subject:   "Thanks",
			Content:   "Thanks for your patience during the maintenance window.",
			Timestamp: ago(12 * 24 * time.Hour),
			Read:      true,
		},
	}
}
