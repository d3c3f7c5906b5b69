// internal/workers/reporting/notify-critical-themes/handler_test.go
package notifycriticalthemes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	sent          []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.sent = append(m.sent, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("email-1")}, nil
}

func emailConfig() EmailConfig {
	return EmailConfig{Enabled: true, From: "alerts@example.com", To: []string{"people-team@example.com"}}
}

func createTestConfig() *Config {
	return &Config{
		Enabled:  true,
		TopicARN: "arn:aws:sns:us-east-1:123456789012:health-alerts",
		Timeout:  5 * time.Second,
	}
}

func createAnalysis(statuses ...models.HealthStatus) models.AnalysisResult {
	result := models.AnalysisResult{
		SurveyID:   "survey-1",
		Confidence: models.ConfidenceSummary{Tier: models.ConfidenceMedium},
	}
	for i, s := range statuses {
		result.Themes = append(result.Themes, models.ThemeReport{
			Stats: models.ThemeStats{ThemeID: string(rune('a' + i)), HealthStatus: s, HealthIndex: 20, ResponseCount: 7},
		})
	}
	return result
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PublishesCriticalThemes(t *testing.T) {
	var published *sns.PublishInput
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published = params
			return &sns.PublishOutput{MessageId: aws.String("msg-42")}, nil
		},
	}
	analysis := createAnalysis(models.HealthCritical, models.HealthStable)
	analysis.Interventions = []models.Intervention{
		{ThemeID: "a", Title: "Rebalance team workload", Priority: models.PriorityCritical},
		{ThemeID: "b", Title: "Hold an all-hands", Priority: models.PriorityLow},
	}

	h := NewHandler(createTestConfig(), mock, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Analysis: analysis})
	require.NoError(t, err)

	assert.True(t, out.Notified)
	assert.Equal(t, "msg-42", out.MessageID)
	assert.Equal(t, []string{"a"}, out.CriticalThemes)

	require.NotNil(t, published)
	assert.Equal(t, createTestConfig().TopicARN, aws.ToString(published.TopicArn))
	assert.Equal(t, "survey-1", aws.ToString(published.MessageAttributes["surveyId"].StringValue))

	var alert Alert
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(published.Message)), &alert))
	assert.Equal(t, "medium", alert.Confidence)
	require.Len(t, alert.CriticalThemes, 1)
	assert.Equal(t, 20, alert.CriticalThemes[0].HealthIndex)
	require.Len(t, alert.CriticalInterventions, 1)
	assert.Equal(t, "Rebalance team workload", alert.CriticalInterventions[0].Title)
}

func TestHandler_Execute_NothingCritical(t *testing.T) {
	mock := &MockSNSService{}
	h := NewHandler(createTestConfig(), mock, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthStable, models.HealthFriction)})
	require.NoError(t, err)
	assert.False(t, out.Notified)
	assert.Empty(t, out.CriticalThemes)
	assert.Equal(t, 0, mock.calls)
}

func TestHandler_Execute_Disabled(t *testing.T) {
	mock := &MockSNSService{}
	cfg := createTestConfig()
	cfg.Enabled = false
	h := NewHandler(cfg, mock, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthCritical)})
	require.NoError(t, err)
	assert.False(t, out.Notified)
	assert.Equal(t, []string{"a"}, out.CriticalThemes)
	assert.Equal(t, 0, mock.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_PublishFailure(t *testing.T) {
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	h := NewHandler(createTestConfig(), mock, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthCritical)})
	assert.ErrorIs(t, err, ErrPublishFailed)
}

// ==========================
// Email digest
// ==========================

func TestHandler_Execute_SendsEmailDigest(t *testing.T) {
	snsMock := &MockSNSService{}
	sesMock := &MockSESService{}
	cfg := createTestConfig()
	cfg.Email = emailConfig()

	analysis := createAnalysis(models.HealthCritical)
	analysis.Themes[0].Degraded = true
	analysis.Interventions = []models.Intervention{
		{ThemeID: "a", Title: "Cap weekly meetings", Priority: models.PriorityCritical, QuickWin: true},
	}

	h := NewHandler(cfg, snsMock, logger.NewTestLogger(t)).WithEmail(sesMock)
	out, err := h.Execute(context.Background(), &Input{Analysis: analysis})
	require.NoError(t, err)

	assert.True(t, out.Notified)
	assert.Equal(t, "msg-1", out.MessageID)
	assert.Equal(t, "email-1", out.EmailID)
	require.Len(t, sesMock.sent, 1)

	email := sesMock.sent[0]
	assert.Equal(t, "alerts@example.com", aws.ToString(email.Source))
	assert.Equal(t, []string{"people-team@example.com"}, email.Destination.ToAddresses)
	assert.Equal(t, "Critical health themes in survey survey-1", aws.ToString(email.Message.Subject.Data))
	body := aws.ToString(email.Message.Body.Text.Data)
	assert.Contains(t, body, "a: health index 20 from 7 responses (fallback insights only)")
	assert.Contains(t, body, "[a] Cap weekly meetings (quick win)")
}

func TestHandler_Execute_EmailOnly(t *testing.T) {
	sesMock := &MockSESService{}
	cfg := createTestConfig()
	cfg.Enabled = false
	cfg.Email = emailConfig()

	h := NewHandler(cfg, nil, logger.NewTestLogger(t)).WithEmail(sesMock)
	out, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthCritical)})
	require.NoError(t, err)
	assert.True(t, out.Notified)
	assert.Empty(t, out.MessageID)
	assert.Equal(t, "email-1", out.EmailID)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	failing := func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("MessageRejected")
	}

	t.Run("topic delivered, digest failure is tolerated", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.Email = emailConfig()
		h := NewHandler(cfg, &MockSNSService{}, logger.NewTestLogger(t)).WithEmail(&MockSESService{SendEmailFunc: failing})

		out, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthCritical)})
		require.NoError(t, err)
		assert.True(t, out.Notified)
		assert.Empty(t, out.EmailID)
	})

	t.Run("digest is the only channel", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.Enabled = false
		cfg.Email = emailConfig()
		h := NewHandler(cfg, nil, logger.NewTestLogger(t)).WithEmail(&MockSESService{SendEmailFunc: failing})

		_, err := h.Execute(context.Background(), &Input{Analysis: createAnalysis(models.HealthCritical)})
		assert.ErrorIs(t, err, ErrPublishFailed)
	})
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifications.SNS.Enabled = true
	cfg.Notifications.SNS.TopicARN = "arn:topic"
	cfg.Notifications.SES.Enabled = true
	cfg.Notifications.SES.From = "alerts@example.com"
	cfg.Notifications.SES.To = []string{"", "hr@example.com"}

	c := LoadConfig(cfg)
	assert.True(t, c.Enabled)
	assert.Equal(t, "arn:topic", c.TopicARN)
	assert.True(t, c.Email.Enabled)
	assert.Equal(t, []string{"hr@example.com"}, c.Email.To)

	// unexpanded ${HEALTH_ALERTS_TO} leaves an empty recipient list
	cfg.Notifications.SES.To = []string{""}
	assert.False(t, LoadConfig(cfg).Email.Enabled)
}
