package agent

import (
	"context"
	"strings"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/pii"
	"sales-assistant/prompts"
	"sales-assistant/utils"
	"sales-assistant/web/format"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

// Apology is the only text shown when a dependency fails.
const Apology = "Извините, сейчас не получается ответить. Попробуйте ещё раз чуть позже."

type TurnStore interface {
	InsertTurns(ctx context.Context, turns []domain.ConversationTurn) error
}

type Options struct {
	LLMTimeout     time.Duration
	StorageTimeout time.Duration
	Temperature    *float64
}

// Answer is the assistant's reply to one question.
type Answer struct {
	Text     string
	OffTopic bool
}

type Assistant struct {
	classifier Classifier
	assembler  *Assembler
	llm        Chatter
	turns      TurnStore
	audit      *audit.Recorder
	clock      func() time.Time
	opts       Options
	logger     *zap.Logger
}

// NewAssistant wires the question flow. today returns the current business
// date.
func NewAssistant(classifier Classifier, assembler *Assembler, llm Chatter, turns TurnStore, recorder *audit.Recorder, today func() time.Time, opts Options, logger *zap.Logger) *Assistant {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Assistant{
		classifier: classifier,
		assembler:  assembler,
		llm:        llm,
		turns:      turns,
		audit:      recorder,
		clock:      today,
		opts:       opts,
		logger:     logger,
	}
}

// Ask answers one question for an active employee. The session lock is held
// from reading history until both turns are stored. Slots supplied by the
// caller override the ones extracted from text. On a dependency failure the
// returned Answer carries the generic apology alongside the error.
func (a *Assistant) Ask(ctx context.Context, employee domain.Employee, text string, explicit Slots, state *SessionState) (Answer, error) {
	clean := pii.Sanitize(text)
	if clean == "" {
		return Answer{}, apperrors.NewValidationError("text", "must not be empty")
	}
	if err := domain.ValidateText("text", clean); err != nil {
		return Answer{}, err
	}

	state.Lock()
	defer state.Unlock()

	// Slots are numbers and codes, so they are read from the raw text; large
	// amounts would otherwise be masked as phone numbers.
	slots := state.Slots().Merge(ExtractSlots(text)).Merge(explicit)
	state.SetSlots(slots)

	verdict, err := a.classifier.Classify(ctx, clean, employee)
	if err != nil {
		a.logger.Warn("Classifier failed, treating question as on-topic", zap.Error(err))
		verdict = Verdict{OnTopic: true}
	}
	if !verdict.OnTopic {
		redirect := verdict.Redirect
		if redirect == "" {
			redirect = DefaultRedirect
		}
		a.persist(ctx, employee.ID, clean, redirect, true)
		a.audit.Record(ctx, employee.ID, audit.ActionAsk, map[string]any{"off_topic": true, "len": len(clean)})
		return Answer{Text: redirect, OffTopic: true}, nil
	}

	gathered, err := a.assembler.Assemble(ctx, employee.ID, clean, slots, a.clock())
	if err != nil {
		return a.fail(ctx, employee.ID, "assemble context", err)
	}

	llmCtx, cancel := utils.WithTimeout(ctx, a.opts.LLMTimeout)
	defer cancel()
	reply, err := a.llm.Chat(llmCtx, buildMessages(employee, gathered, clean), a.opts.Temperature)
	if err != nil {
		return a.fail(ctx, employee.ID, "assistant reply", err)
	}

	answer := pii.Sanitize(format.PreprocessAssistantText(reply))
	if answer == "" {
		return a.fail(ctx, employee.ID, "assistant reply", apperrors.ErrLLMCommunication)
	}
	a.persist(ctx, employee.ID, clean, answer, false)
	a.audit.Record(ctx, employee.ID, audit.ActionAsk, map[string]any{
		"off_topic": false,
		"product":   string(slots.Product),
		"fact_tier": gathered.FactTier.String(),
		"passages":  len(gathered.Passages),
		"trimmed":   gathered.Trimmed,
	})
	return Answer{Text: answer}, nil
}

func (a *Assistant) fail(ctx context.Context, employeeID domain.EmployeeID, stage string, err error) (Answer, error) {
	a.logger.Error("Assistant request failed",
		zap.Int64("employee_id", int64(employeeID)),
		zap.String("stage", stage),
		zap.Error(err))
	a.audit.Record(ctx, employeeID, audit.ActionError, map[string]any{"where": stage})
	if apperrors.IsServiceUnavailable(err) {
		return Answer{Text: Apology}, err
	}
	return Answer{Text: Apology}, apperrors.Dependency(err, stage)
}

// persist stores the question and answer together on a context that the
// caller cannot cancel.
func (a *Assistant) persist(ctx context.Context, employeeID domain.EmployeeID, question, answer string, offTopic bool) {
	now := time.Now().UTC()
	turns := []domain.ConversationTurn{
		{EmployeeID: employeeID, Role: domain.RoleUser, Content: question, OffTopic: offTopic, CreatedAt: now},
		{EmployeeID: employeeID, Role: domain.RoleAssistant, Content: answer, OffTopic: offTopic, CreatedAt: now.Add(time.Microsecond)},
	}
	writeCtx, cancel := utils.DetachedTimeout(ctx, a.opts.StorageTimeout)
	defer cancel()
	if err := a.turns.InsertTurns(writeCtx, turns); err != nil {
		a.logger.Error("Failed to store conversation turns",
			zap.Int64("employee_id", int64(employeeID)),
			zap.Error(err))
	}
}

// buildMessages lays out the system prompt, prior turns and the question
// with its context block.
func buildMessages(employee domain.Employee, c *Context, question string) []types.AgentMessage {
	system := prompts.AssistantSystem()
	if employee.Name != "" {
		system = strings.TrimSpace(system) + "\n\nСотрудник: " + pii.Sanitize(employee.Name)
	}
	messages := []types.AgentMessage{{Role: string(domain.RoleSystem), Content: system}}
	for _, t := range c.Turns {
		if t.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, types.AgentMessage{Role: string(t.Role), Content: t.Content})
	}
	content := question
	if block := c.Render(); block != "" {
		content += "\n\n" + block
	}
	return append(messages, types.AgentMessage{Role: string(domain.RoleUser), Content: content})
}
