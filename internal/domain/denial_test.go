package domain_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
)

func TestDenialClassifier_IsDenial(t *testing.T) {
	classifier := domain.NewDenialClassifier([]string{"  Не Могу Помочь ", "", "as an ai"}, nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "should accept substantive Cyrillic text", text: "Статья применима к тексту.", want: false},
		{name: "should flag text without Cyrillic", text: "Applicability: Yes", want: true},
		{name: "should flag empty text", text: "", want: true},
		{name: "should flag a phrase case-insensitively", text: "Я НЕ МОГУ ПОМОЧЬ с этим", want: true},
		{name: "should flag a Latin phrase inside Cyrillic text", text: "As an AI, я отказываюсь", want: true},
		{name: "should accept mixed text without phrases", text: "Applicability: Yes. Обоснование ниже.", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classifier.IsDenial(tt.text))
		})
	}

	t.Run("should honour a configured script", func(t *testing.T) {
		greek := domain.NewDenialClassifier(nil, unicode.Greek)

		require.False(t, greek.IsDenial("Καλημέρα"))
		require.True(t, greek.IsDenial("Привет"))
	})
}
