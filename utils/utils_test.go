package utils

import (
	"context"
	"testing"
	"time"

	apperrors "sales-assistant/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ставка", "по", "вкладу", "181", "день"}, Tokenize("Ставка по вкладу: 181 день!"))
	assert.Equal(t, []string{"кн", "вклад"}, UniqueTokens("КН вклад кн"))
	assert.Equal(t, "кн | вклад", TsQuery("КН, вклад; кн"))
}

func TestRelevance(t *testing.T) {
	terms := UniqueTokens("ставка вклад")
	inSection := Relevance(terms, "Ставка", "условия продукта")
	inBody := Relevance(terms, "Условия", "ставка продукта")
	none := Relevance(terms, "Условия", "другой текст")

	assert.Greater(t, inSection, inBody)
	assert.Greater(t, inBody, 0.0)
	assert.Zero(t, none)
	assert.Less(t, inSection, 1.0)
}

func TestWordSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, WordSimilarity("вклад", "открыть вклад онлайн"), 1e-9)
	assert.Greater(t, WordSimilarity("вклады", "открыть вклад онлайн"), 0.5)
	assert.Zero(t, WordSimilarity("", "текст"))
	assert.Zero(t, WordSimilarity("xyz", "абв"))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 2.0, CosineDistance([]float32{1}, []float32{1, 2}))
}

func TestParseEmployeeID(t *testing.T) {
	id, err := ParseEmployeeID(" 42 ")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = ParseEmployeeID("-1")
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestNormalizeRequestID(t *testing.T) {
	id, err := NormalizeRequestID("  abc-123 ")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	_, err = NormalizeRequestID("с пробелом")
	assert.Error(t, err)
	assert.NotEmpty(t, GenerateRequestID())
}

func TestDetachedTimeoutIgnoresParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	ctx, stop := DetachedTimeout(parent, time.Minute)
	defer stop()
	assert.NoError(t, ctx.Err())

	unbounded, stop2 := WithTimeout(context.Background(), 0)
	defer stop2()
	_, hasDeadline := unbounded.Deadline()
	assert.False(t, hasDeadline)
}
