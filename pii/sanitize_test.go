package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain_text_untouched", in: "Ставка по вкладу на 181 день", want: "Ставка по вкладу на 181 день"},
		{name: "email", in: "пишите на ivan.petrov@bank.ru сегодня", want: "пишите на [email] сегодня"},
		{name: "mention", in: "спроси у @manager_01", want: "спроси у [mention]"},
		{name: "cyrillic_mention", in: "передай @Иван", want: "передай [mention]"},
		{name: "card", in: "карта 4111111111111111 клиента", want: "карта [number] клиента"},
		{name: "phone_with_separators", in: "звонить +7 999 123-45-67 вечером", want: "звонить [phone] вечером"},
		{name: "whitespace_collapsed", in: "  много   пробелов\n\nздесь ", want: "много пробелов здесь"},
		{name: "short_numbers_kept", in: "план 200 на 30 дней", want: "план 200 на 30 дней"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"ivan@bank.ru @ivan 4111111111111111 +7 (999) 123-45-67",
		"номер 1234567890123456789012 и ещё",
		"123  4567 разнесено",
		"@@@ ... ---",
		"[email] [phone] уже замаскировано",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), in)
	}
}

func TestContainsPII(t *testing.T) {
	assert.True(t, ContainsPII("mail me: a@b.co"))
	assert.False(t, ContainsPII("КН 3 попытки"))
}
