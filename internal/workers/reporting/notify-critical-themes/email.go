// internal/workers/reporting/notify-critical-themes/email.go
package notifycriticalthemes

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

func alertSubject(surveyID string) string {
	return fmt.Sprintf("Critical health themes in survey %s", surveyID)
}

// BuildEmail renders the alert as a plain-text digest.
func BuildEmail(alert *Alert, cfg EmailConfig) *ses.SendEmailInput {
	var b strings.Builder
	fmt.Fprintf(&b, "Survey %s (confidence %s)\n", alert.SurveyID, alert.Confidence)

	if len(alert.CriticalThemes) > 0 {
		b.WriteString("\nCritical themes:\n")
		for _, t := range alert.CriticalThemes {
			fmt.Fprintf(&b, "  - %s: health index %d from %d responses", t.ThemeID, t.HealthIndex, t.Responses)
			if t.Degraded {
				b.WriteString(" (fallback insights only)")
			}
			b.WriteString("\n")
		}
	}

	if len(alert.CriticalInterventions) > 0 {
		b.WriteString("\nCritical interventions:\n")
		for _, iv := range alert.CriticalInterventions {
			fmt.Fprintf(&b, "  - [%s] %s", iv.ThemeID, iv.Title)
			if iv.QuickWin {
				b.WriteString(" (quick win)")
			}
			b.WriteString("\n")
		}
	}

	return &ses.SendEmailInput{
		Source:      aws.String(cfg.From),
		Destination: &sestypes.Destination{ToAddresses: cfg.To},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(alertSubject(alert.SurveyID)), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(b.String()), Charset: aws.String("UTF-8")},
			},
		},
	}
}
