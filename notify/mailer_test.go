package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func captured(sender *MockSender) *notify.Message {
	var msg notify.Message
	sender.On("Send", mock.Anything, mock.AnythingOfType("notify.Message")).
		Run(func(args mock.Arguments) { msg = args.Get(1).(notify.Message) }).
		Return(nil).Once()
	return &msg
}

func newMailer(sender notify.Sender) *notify.Mailer {
	return notify.NewMailer(sender, notify.Config{
		ClientURL: "http://localhost:5173",
		ResetTTL:  time.Hour,
	}, logging.Nop{})
}

func TestMailer_SendVerification(t *testing.T) {
	sender := new(MockSender)
	msg := captured(sender)

	err := newMailer(sender).SendVerification(context.Background(), "jane@example.com", "042137")
	require.NoError(t, err)
	sender.AssertExpectations(t)

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, notify.SubjectVerification, msg.Subject)
	assert.Contains(t, msg.HTML, "042137")
	assert.Contains(t, msg.HTML, "Blogify")
}

func TestMailer_SendWelcome(t *testing.T) {
	sender := new(MockSender)
	msg := captured(sender)

	require.NoError(t, newMailer(sender).SendWelcome(context.Background(), "jane@example.com", "Jane <b>"))

	assert.Equal(t, notify.SubjectWelcome, msg.Subject)
	assert.Contains(t, msg.HTML, "Hello Jane &lt;b&gt;,")
	assert.Contains(t, msg.HTML, `href="http://localhost:5173"`)
}

func TestMailer_SendWelcomeWithoutName(t *testing.T) {
	sender := new(MockSender)
	msg := captured(sender)

	require.NoError(t, newMailer(sender).SendWelcome(context.Background(), "jane@example.com", ""))
	assert.Contains(t, msg.HTML, "Hello there,")
}

func TestMailer_SendPasswordReset(t *testing.T) {
	sender := new(MockSender)
	msg := captured(sender)

	require.NoError(t, newMailer(sender).SendPasswordReset(context.Background(), "jane@example.com", "123456"))

	assert.Equal(t, notify.SubjectPasswordReset, msg.Subject)
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "expire in 1 hour")
}

func TestMailer_SendPasswordResetSuccess(t *testing.T) {
	sender := new(MockSender)
	msg := captured(sender)

	require.NoError(t, newMailer(sender).SendPasswordResetSuccess(context.Background(), "jane@example.com"))
	assert.Equal(t, notify.SubjectPasswordResetSuccess, msg.Subject)
	assert.Contains(t, msg.HTML, "reset successfully")
}

func TestMailer_SenderFailure(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	err := newMailer(sender).SendPasswordReset(context.Background(), "jane@example.com", "123456")
	assert.EqualError(t, err, "smtp down")
}

func TestMailer_ResetTTLWording(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{30 * time.Minute, "30 minutes"},
		{2 * time.Hour, "2 hours"},
		{24 * time.Hour, "1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			sender := new(MockSender)
			msg := captured(sender)

			mailer := notify.NewMailer(sender, notify.Config{ResetTTL: tt.ttl}, logging.Nop{})
			require.NoError(t, mailer.SendPasswordReset(context.Background(), "a@example.com", "000000"))
			assert.Contains(t, msg.HTML, "expire in "+tt.want)
		})
	}
}

func TestLogSender(t *testing.T) {
	sender := notify.NewLogSender(logging.Nop{})
	require.NoError(t, sender.Send(context.Background(), notify.Message{To: "a@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, notify.Message{}), context.Canceled)
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	_, err := notify.NewRenderer().Render("missing", nil)
	assert.Error(t, err)
}
