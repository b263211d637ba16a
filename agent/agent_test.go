package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sales-assistant/audit"
	"sales-assistant/database"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/facts"
	"sales-assistant/rag"
	"sales-assistant/stats"
	"sales-assistant/web/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func datep(t time.Time) *time.Time { return &t }

func TestExtractSlots(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Slots
	}{
		{
			name: "deposit_days_currency_channel",
			text: "Ставка по вкладу 181 дней, RUB, онлайн",
			want: Slots{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, Channel: domain.ChannelOnline, TermDays: intp(181)},
		},
		{
			name: "loan_amount_years_office",
			text: "КН на 500 тыс на 2 года в офисе",
			want: Slots{Product: domain.ProductKN, Channel: domain.ChannelOffice, TermDays: intp(730), Amount: floatp(500000)},
		},
		{
			name: "months_use_rate_table",
			text: "вклад на 6 месяцев в евро",
			want: Slots{Product: domain.ProductDeposit, Currency: domain.CurrencyEUR, TermDays: intp(181)},
		},
		{
			name: "currency_symbol_and_grouped_amount",
			text: "вклад 100 000 $",
			want: Slots{Product: domain.ProductDeposit, Currency: domain.CurrencyUSD, Amount: floatp(100000)},
		},
		{
			name: "nothing",
			text: "как дела",
			want: Slots{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSlots(tt.text))
		})
	}
}

func TestSlotsMerge(t *testing.T) {
	base := Slots{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, TermDays: intp(91)}
	got := base.Merge(Slots{TermDays: intp(181), Channel: domain.ChannelOnline})
	assert.Equal(t, domain.ProductDeposit, got.Product)
	assert.Equal(t, domain.CurrencyRUB, got.Currency)
	assert.Equal(t, domain.ChannelOnline, got.Channel)
	assert.Equal(t, 181, *got.TermDays)
	assert.True(t, Slots{}.Empty())
	assert.False(t, got.Empty())
}

func TestKeywordClassifier(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		text    string
		onTopic bool
	}{
		{"Какая ставка по КН?", true},
		{"сколько у меня попыток за неделю", true},
		{"курс юаня", true},
		{"Какая погода завтра?", false},
		{"расскажи анекдот", false},
	}
	for _, tt := range tests {
		v, err := KeywordClassifier{}.Classify(ctx, tt.text, domain.Employee{})
		require.NoError(t, err)
		assert.Equal(t, tt.onTopic, v.OnTopic, tt.text)
		if !tt.onTopic {
			assert.Equal(t, DefaultRedirect, v.Redirect)
		}
	}
}

type fakeChat struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []types.AgentMessage
}

func (f *fakeChat) Chat(_ context.Context, messages []types.AgentMessage, _ *float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	return f.reply, f.err
}

func TestLLMClassifier(t *testing.T) {
	ctx := context.Background()

	off := NewLLMClassifier(&fakeChat{reply: "OFF_TOPIC"}, zap.NewNop())
	v, err := off.Classify(ctx, "ставка по КН", domain.Employee{})
	require.NoError(t, err)
	assert.False(t, v.OnTopic)

	on := NewLLMClassifier(&fakeChat{reply: " on_topic\n"}, zap.NewNop())
	v, err = on.Classify(ctx, "погода", domain.Employee{})
	require.NoError(t, err)
	assert.True(t, v.OnTopic)

	failing := NewLLMClassifier(&fakeChat{err: errors.New("timeout")}, zap.NewNop())
	v, err = failing.Classify(ctx, "ставка по КН", domain.Employee{})
	require.NoError(t, err)
	assert.True(t, v.OnTopic)

	garbled := NewLLMClassifier(&fakeChat{reply: "maybe"}, zap.NewNop())
	v, err = garbled.Classify(ctx, "погода", domain.Employee{})
	require.NoError(t, err)
	assert.False(t, v.OnTopic)
}

func TestFitToBudgetTrimOrder(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	build := func() *Context {
		return &Context{
			Fact:     &domain.ProductFact{Product: domain.ProductKN, FactKey: "rate", NumericValue: floatp(12.5)},
			Passages: []domain.Passage{{Snippet: strings.Repeat("a", 50)}, {Snippet: strings.Repeat("b", 50)}},
			Stats:    &StatsSummary{},
			Notes:    []domain.Note{{Content: strings.Repeat("n", 40), CreatedAt: now}, {Content: strings.Repeat("m", 40), CreatedAt: now}},
			Turns: []domain.ConversationTurn{
				{Role: domain.RoleUser, Content: strings.Repeat("q", 100)},
				{Role: domain.RoleAssistant, Content: strings.Repeat("r", 100)},
			},
		}
	}

	c := build()
	assert.Equal(t, 0, FitToBudget(c, c.Size()))
	assert.Equal(t, 0, FitToBudget(c, 0))

	c = build()
	dropped := FitToBudget(c, c.Size()-1)
	assert.Equal(t, 1, dropped)
	require.Len(t, c.Turns, 1)
	assert.Equal(t, domain.RoleAssistant, c.Turns[0].Role)

	c = build()
	FitToBudget(c, c.Size()-200)
	assert.Empty(t, c.Turns)
	assert.Len(t, c.Notes, 2)

	c = build()
	FitToBudget(c, c.Size()-250)
	assert.Empty(t, c.Turns)
	require.Len(t, c.Notes, 1)
	assert.Equal(t, strings.Repeat("m", 40), c.Notes[0].Content)

	c = build()
	FitToBudget(c, 1)
	assert.Empty(t, c.Passages)
	assert.Nil(t, c.Fact)
	assert.Nil(t, c.Stats)
	assert.Equal(t, "", c.Render())
}

func TestRenderContext(t *testing.T) {
	c := &Context{
		Fact: &domain.ProductFact{
			Product: domain.ProductDeposit, FactKey: "rate", NumericValue: floatp(16.5),
			Currency: domain.CurrencyRUB, TermDays: intp(181), Channel: domain.ChannelOnline,
		},
		Passages: []domain.Passage{{Section: "Ставки", Snippet: "[Ставка] зависит от срока"}},
	}
	out := c.Render()
	assert.True(t, strings.HasPrefix(out, "<context>\n"))
	assert.Contains(t, out, "[fact] Вклад rate: 16.5 (канал: online, валюта: RUB, срок: 181 дн.)")
	assert.Contains(t, out, "[passage] Ставки: [Ставка] зависит от срока")
}

type assistantFixture struct {
	store     *database.MemoryStore
	chat      *fakeChat
	assistant *Assistant
	employee  domain.Employee
	today     time.Time
}

func newAssistantFixture(t *testing.T, chat *fakeChat) *assistantFixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := database.NewMemoryStore()
	today := domain.NewDate(2024, time.March, 10)

	emp, err := store.UpsertEmployee(ctx, domain.Employee{ID: 100, Name: "Анна"})
	require.NoError(t, err)

	_, err = store.InsertFact(ctx, domain.ProductFact{
		Product: domain.ProductDeposit, FactKey: "rate", Channel: domain.ChannelOnline,
		Currency: domain.CurrencyRUB, TermDays: intp(181), NumericValue: floatp(16.5),
		Validity: domain.ValidityWindow{From: datep(domain.NewDate(2024, time.January, 1))},
	})
	require.NoError(t, err)
	_, err = store.InsertFact(ctx, domain.ProductFact{Product: domain.ProductDeposit, FactKey: "rate", NumericValue: floatp(10)})
	require.NoError(t, err)
	require.NoError(t, store.UpsertChunks(ctx, []domain.DocumentChunk{{
		DocumentID: "deposit", Ordinal: 0, Section: "Ставки",
		Content: "Ставка по вкладу зависит от срока и канала открытия.", Product: domain.ProductDeposit,
	}}))
	_, err = store.InsertAttempts(ctx, []domain.ActivityEvent{{EmployeeID: emp.ID, Product: domain.ProductDeposit, Count: 3, Date: today}})
	require.NoError(t, err)

	factService, err := facts.NewService(store, 16, 0, logger)
	require.NoError(t, err)
	retriever := rag.New(store, nil, rag.Options{Limit: 4, RankWeight: 0.8, SimilarityWeight: 0.2, Threshold: 0.3}, logger)
	statsService := stats.NewService(store, stats.Options{Calendar: stats.DefaultCalendar()}, logger)
	assembler := NewAssembler(factService, retriever, statsService, store, AssemblerOptions{CharBudget: 6000}, logger)

	assistant := NewAssistant(KeywordClassifier{}, assembler, chat, store,
		audit.NewRecorder(store, 0, logger), func() time.Time { return today }, Options{}, logger)
	return &assistantFixture{store: store, chat: chat, assistant: assistant, employee: emp, today: today}
}

func TestAskOnTopic(t *testing.T) {
	chat := &fakeChat{reply: "Ставка 16.5%. Уточните у менеджера: +7 999 123 45 67"}
	fx := newAssistantFixture(t, chat)
	ctx := context.Background()
	state := NewSessions().For(fx.employee.ID)

	answer, err := fx.assistant.Ask(ctx, fx.employee, "Какая ставка по вкладу на 181 дней в RUB онлайн? пишите на client@example.com", Slots{}, state)
	require.NoError(t, err)
	assert.False(t, answer.OffTopic)
	assert.Contains(t, answer.Text, "Ставка 16.5%")
	assert.NotContains(t, answer.Text, "999 123")

	require.Equal(t, 1, chat.calls)
	last := chat.messages[len(chat.messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "[fact] Вклад rate: 16.5")
	assert.Contains(t, last.Content, "[stats] День: 3")
	assert.NotContains(t, last.Content, "client@example.com")

	turns, err := fx.store.RecentTurns(ctx, fx.employee.ID, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.NotContains(t, turns[0].Content, "client@example.com")
	assert.Equal(t, answer.Text, turns[1].Content)

	state.Lock()
	slots := state.Slots()
	state.Unlock()
	assert.Equal(t, domain.ProductDeposit, slots.Product)
	assert.Equal(t, 181, *slots.TermDays)

	// The follow-up sees the earlier exchange as history.
	_, err = fx.assistant.Ask(ctx, fx.employee, "А ставка на этот срок в офисе?", Slots{}, state)
	require.NoError(t, err)
	assert.Len(t, chat.messages, 4)
}

type failingRetriever struct{}

func (failingRetriever) Retrieve(context.Context, rag.Request) ([]domain.Passage, rag.Mode, error) {
	return nil, "", apperrors.Dependency(errors.New("passage search unavailable"), "retrieve passages")
}

func TestAssembleSurvivesPassageFailure(t *testing.T) {
	fx := newAssistantFixture(t, &fakeChat{})
	logger := zap.NewNop()
	factService, err := facts.NewService(fx.store, 16, 0, logger)
	require.NoError(t, err)
	statsService := stats.NewService(fx.store, stats.Options{Calendar: stats.DefaultCalendar()}, logger)
	assembler := NewAssembler(factService, failingRetriever{}, statsService, fx.store, AssemblerOptions{CharBudget: 6000}, logger)

	got, err := assembler.Assemble(context.Background(), fx.employee.ID, "Какая ставка по вкладу?", Slots{Product: domain.ProductDeposit}, fx.today)
	require.NoError(t, err)
	require.NotNil(t, got.Fact)
	assert.Equal(t, domain.ProductDeposit, got.Fact.Product)
	assert.Empty(t, got.Passages)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 3, got.Stats.Snapshot.Day.Total)
}

func TestAskOffTopicSkipsGathering(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	fx := newAssistantFixture(t, chat)
	ctx := context.Background()

	answer, err := fx.assistant.Ask(ctx, fx.employee, "Какая погода завтра?", Slots{}, NewSessions().For(fx.employee.ID))
	require.NoError(t, err)
	assert.True(t, answer.OffTopic)
	assert.Equal(t, DefaultRedirect, answer.Text)
	assert.Equal(t, 0, chat.calls)

	turns, err := fx.store.RecentTurns(ctx, fx.employee.ID, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.True(t, turns[0].OffTopic)
}

func TestAskLLMFailureReturnsApology(t *testing.T) {
	chat := &fakeChat{err: errors.New("connection refused on 10.0.0.5")}
	fx := newAssistantFixture(t, chat)
	ctx := context.Background()

	answer, err := fx.assistant.Ask(ctx, fx.employee, "Какая ставка по КН?", Slots{}, NewSessions().For(fx.employee.ID))
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
	assert.Equal(t, Apology, answer.Text)

	turns, err := fx.store.RecentTurns(ctx, fx.employee.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	entries := fx.store.AuditEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionError, entries[len(entries)-1].Action)
}

func TestAskRejectsEmptyText(t *testing.T) {
	fx := newAssistantFixture(t, &fakeChat{})
	_, err := fx.assistant.Ask(context.Background(), fx.employee, "   ", Slots{}, NewSessions().For(fx.employee.ID))
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestSessionsReset(t *testing.T) {
	sessions := NewSessions()
	state := sessions.For(1)
	state.Lock()
	state.SetSlots(Slots{Product: domain.ProductKN})
	state.Unlock()

	assert.Same(t, state, sessions.For(1))
	sessions.Reset(1)
	state.Lock()
	assert.True(t, state.Slots().Empty())
	state.Unlock()
}
