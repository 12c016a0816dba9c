package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/tuanvm/billbot/internal/models"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"blocked by user", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, models.ErrChannelPermanent},
		{"deactivated user", &tgbotapi.Error{Code: 403, Message: "Forbidden: user is deactivated"}, models.ErrChannelPermanent},
		{"chat not found", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, models.ErrChannelPermanent},
		{"rate limited", &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, models.ErrChannelTransient},
		{"server error", &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, models.ErrChannelTransient},
		{"other api error", &tgbotapi.Error{Code: 400, Message: "Bad Request: message is too long"}, models.ErrChannelTransient},
		{"plain network error", errors.New("dial tcp: i/o timeout"), models.ErrChannelTransient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
