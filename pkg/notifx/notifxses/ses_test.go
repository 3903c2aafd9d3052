package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/notifx"
	"github.com/Abraxas-365/otpauth/pkg/notifx/notifxses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESProvider_SendEmail(t *testing.T) {
	client := &fakeSES{}
	p := notifxses.NewSESProvider(client, "auth@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"user@example.com"},
		Subject:  "Your sign-in code",
		TextBody: "code 123456",
	}, notifx.WithConfigID("otp"), notifx.WithTags(map[string]string{"purpose": "otp"}))
	require.NoError(t, err)

	in := client.input
	assert.Equal(t, "auth@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"user@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Your sign-in code", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "code 123456", aws.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
	assert.Equal(t, "otp", aws.ToString(in.ConfigurationSetName))
	require.Len(t, in.Tags, 1)
	assert.Equal(t, "purpose", aws.ToString(in.Tags[0].Name))
}

func TestSESProvider_WrapsFailure(t *testing.T) {
	p := notifxses.NewSESProvider(&fakeSES{err: errors.New("MessageRejected")}, "auth@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"u@e.com"}, Subject: "s"})
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, notifxses.ErrSendFailed))
}
