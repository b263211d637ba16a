package agent

import (
	"context"
	"strings"

	"sales-assistant/domain"
	"sales-assistant/prompts"
	"sales-assistant/utils"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

// DefaultRedirect is returned for off-topic questions.
const DefaultRedirect = "Я помогаю только с вопросами о продуктах банка, продажах и ваших показателях. Сформулируйте, пожалуйста, рабочий вопрос."

// Verdict is a topic classification. Redirect is set for off-topic text.
type Verdict struct {
	OnTopic  bool
	Redirect string
}

// Classifier decides whether sanitized text is a work question.
type Classifier interface {
	Classify(ctx context.Context, text string, employee domain.Employee) (Verdict, error)
}

// Chatter is the subset of the LLM client the agent uses.
type Chatter interface {
	Chat(ctx context.Context, messages []types.AgentMessage, temperature *float64) (string, error)
}

// topicStems are lower-case prefixes of work vocabulary. Product codes and
// currency aliases are matched separately.
var topicStems = []string{
	"ставк", "процент", "кредит", "вклад", "депозит", "карт", "кешбэк", "кэшбэк",
	"ипотек", "страхов", "зарплат", "накоплен", "счет", "счёт", "комисс", "лимит",
	"срок", "сумм", "тариф", "услови", "продаж", "продукт", "клиент", "встреч",
	"план", "попыт", "рейтинг", "статистик", "результат", "показател", "заметк",
	"скрипт", "возражен", "плейбук", "досрочн", "пополнен", "капитализац",
	"rate", "deposit", "loan", "card", "plan", "sales",
}

// KeywordClassifier marks text as on-topic when any token is a product
// code, a currency alias, or starts with a work stem.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string, _ domain.Employee) (Verdict, error) {
	if isOnTopic(text) {
		return Verdict{OnTopic: true}, nil
	}
	return Verdict{Redirect: DefaultRedirect}, nil
}

func isOnTopic(text string) bool {
	for _, tok := range utils.Tokenize(text) {
		if _, err := domain.ParseProductCode(tok); err == nil {
			return true
		}
		if _, ok := domain.ParseCurrency(tok); ok {
			return true
		}
		for _, stem := range topicStems {
			if strings.HasPrefix(tok, stem) {
				return true
			}
		}
	}
	return false
}

// LLMClassifier asks the language model and falls back to keywords when the
// call fails or the reply is not one of the two labels.
type LLMClassifier struct {
	chat     Chatter
	fallback Classifier
	logger   *zap.Logger
}

func NewLLMClassifier(chat Chatter, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{chat: chat, fallback: KeywordClassifier{}, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, employee domain.Employee) (Verdict, error) {
	temperature := 0.0
	reply, err := c.chat.Chat(ctx, []types.AgentMessage{
		{Role: string(domain.RoleSystem), Content: prompts.TopicClassifier()},
		{Role: string(domain.RoleUser), Content: text},
	}, &temperature)
	if err != nil {
		c.logger.Warn("Topic classification failed, using keyword classifier", zap.Error(err))
		return c.fallback.Classify(ctx, text, employee)
	}

	label := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(label, "OFF_TOPIC"):
		return Verdict{Redirect: DefaultRedirect}, nil
	case strings.Contains(label, "ON_TOPIC"):
		return Verdict{OnTopic: true}, nil
	}
	c.logger.Debug("Unrecognised topic label", zap.String("label", label))
	return c.fallback.Classify(ctx, text, employee)
}
