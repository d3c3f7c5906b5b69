// internal/workers/reporting/notify-critical-themes/handler.go
package notifycriticalthemes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	awsclient "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/aws"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	apperrors "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/errors"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

const (
	TaskType = "notify-critical-themes"
)

var (
	ErrPublishFailed = errors.New("ALERT_PUBLISH_FAILED")
)

type Handler struct {
	config       *Config
	snsClient    awsclient.SNSPublisher
	emailClient  awsclient.SESSender
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, snsClient awsclient.SNSPublisher, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		snsClient:    snsClient,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

// WithEmail enables the SES digest when the email config is complete.
func (h *Handler) WithEmail(sender awsclient.SESSender) *Handler {
	h.emailClient = sender
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInputInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewAlertPublishFailedError(err))
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	alert := BuildAlert(&input.Analysis)
	output := &Output{CriticalThemes: make([]string, 0, len(alert.CriticalThemes))}
	for _, t := range alert.CriticalThemes {
		output.CriticalThemes = append(output.CriticalThemes, t.ThemeID)
	}

	if len(alert.CriticalThemes) == 0 && len(alert.CriticalInterventions) == 0 {
		h.logger.Debug("nothing critical to report", map[string]interface{}{
			"surveyId": input.Analysis.SurveyID,
		})
		return output, nil
	}

	snsOn := h.config.Enabled && h.snsClient != nil
	emailOn := h.config.Email.Enabled && h.emailClient != nil
	if !snsOn && !emailOn {
		h.logger.Warn("critical themes found but alerting is disabled", map[string]interface{}{
			"surveyId":       input.Analysis.SurveyID,
			"criticalThemes": output.CriticalThemes,
		})
		return output, nil
	}

	if snsOn {
		body, err := json.Marshal(alert)
		if err != nil {
			return nil, fmt.Errorf("%w: encode alert: %v", ErrPublishFailed, err)
		}

		res, err := h.snsClient.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(h.config.TopicARN),
			Subject:  aws.String(alertSubject(input.Analysis.SurveyID)),
			Message:  aws.String(string(body)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"surveyId": {
					DataType:    aws.String("String"),
					StringValue: aws.String(input.Analysis.SurveyID),
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
		}
		output.Notified = true
		output.MessageID = aws.ToString(res.MessageId)
	}

	// The digest is secondary when the topic already carried the alert: a
	// failure there must not fail the job and republish to the topic on retry.
	if emailOn {
		res, err := h.emailClient.SendEmail(ctx, BuildEmail(&alert, h.config.Email))
		switch {
		case err != nil && !snsOn:
			return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
		case err != nil:
			h.logger.Warn("alert email failed", map[string]interface{}{
				"surveyId": input.Analysis.SurveyID,
				"error":    err.Error(),
			})
		default:
			output.Notified = true
			output.EmailID = aws.ToString(res.MessageId)
		}
	}

	h.logger.Info("critical themes alert published", map[string]interface{}{
		"surveyId":       input.Analysis.SurveyID,
		"criticalThemes": output.CriticalThemes,
		"messageId":      output.MessageID,
		"emailMessageId": output.EmailID,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// BuildAlert collects the critical themes and critical-priority
// interventions of an analysis.
func BuildAlert(result *models.AnalysisResult) Alert {
	alert := Alert{
		SurveyID:              result.SurveyID,
		Confidence:            string(result.Confidence.Tier),
		CriticalThemes:        make([]AlertTheme, 0),
		CriticalInterventions: make([]AlertIntervention, 0),
	}
	for _, t := range result.Themes {
		if t.Stats.HealthStatus != models.HealthCritical {
			continue
		}
		alert.CriticalThemes = append(alert.CriticalThemes, AlertTheme{
			ThemeID:     t.Stats.ThemeID,
			HealthIndex: t.Stats.HealthIndex,
			Responses:   t.Stats.ResponseCount,
			Degraded:    t.Degraded,
		})
	}
	for _, iv := range result.Interventions {
		if iv.Priority != models.PriorityCritical {
			continue
		}
		alert.CriticalInterventions = append(alert.CriticalInterventions, AlertIntervention{
			ThemeID:  iv.ThemeID,
			Title:    iv.Title,
			QuickWin: iv.QuickWin,
		})
	}
	return alert
}
