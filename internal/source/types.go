package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcao2/careops-triage/internal/triage"
)

// FlexibleTime is a time.Time that can parse multiple date formats
type FlexibleTime struct {
	time.Time
}

var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexibleTime
func (ft *FlexibleTime) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		ft.Time = time.Time{}
		return nil
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, str); err == nil {
			ft.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse time: %s", str)
}

// MarshalJSON implements custom JSON marshaling
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", ft.Format(time.RFC3339))), nil
}

// wireItem is a notification as the service returns it
type wireItem struct {
	ID               string       `json:"id"`
	Type             string       `json:"type"`
	From             string       `json:"from"`
	Subject          string       `json:"subject"`
	Body             string       `json:"body"`
	ReceivedAt       FlexibleTime `json:"received_at"`
	Read             bool         `json:"read"`
	AttachmentCount  int          `json:"attachment_count"`
	Department       string       `json:"department"`
	Tags             []string     `json:"tags"`
	ComplianceScore  *float64     `json:"compliance_score,omitempty"`
	SenderOnline     bool         `json:"sender_online"`
	InteractionCount int          `json:"interaction_count"`
	EmergencyCode    string       `json:"emergency_code"`
}

func (w wireItem) toItem() triage.Item {
	return triage.Item{
		ID:           w.ID,
		Kind:         triage.Kind(strings.ToLower(w.Type)),
		Sender:       w.From,
		Subject:      w.Subject,
		Content:      w.Body,
		Timestamp:    w.ReceivedAt.Time,
		Read:         w.Read,
		Attachments:  w.AttachmentCount,
		Department:   w.Department,
		Tags:         w.Tags,
		Compliance:   w.ComplianceScore,
		Online:       w.SenderOnline,
		Interactions: w.InteractionCount,
		Code:         w.EmergencyCode,
	}
}

// listResponse represents the API response structure
type listResponse struct {
	Count          int        `json:"count"`
	NextPageCursor *string    `json:"nextPageCursor"`
	Results        []wireItem `json:"results"`
}
