package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sales-assistant/audit"
	"sales-assistant/database"
	"sales-assistant/domain"
	"sales-assistant/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu      sync.Mutex
	calls   int
	got     map[domain.EmployeeID]*Summary
	err     error
	entered chan struct{}
	release chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, employee domain.Employee, summary *Summary) error {
	n.mu.Lock()
	n.calls++
	if n.got == nil {
		n.got = make(map[domain.EmployeeID]*Summary)
	}
	n.got[employee.ID] = summary
	n.mu.Unlock()
	if n.entered != nil {
		n.entered <- struct{}{}
		<-n.release
	}
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

var asOf = domain.NewDate(2024, time.March, 12)

func newRunnerFixture(t *testing.T, notifier Notifier) (*Runner, *database.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := database.NewMemoryStore()

	for _, e := range []domain.Employee{{ID: 1, Name: "Анна"}, {ID: 2, Name: "Борис"}, {ID: 3, Name: "Вера"}} {
		_, err := store.UpsertEmployee(ctx, e)
		require.NoError(t, err)
	}
	_, err := store.InsertAttempts(ctx, []domain.ActivityEvent{
		{EmployeeID: 1, Product: domain.ProductDeposit, Count: 5, Date: asOf},
		{EmployeeID: 1, Product: domain.ProductKN, Count: 4, Date: domain.NewDate(2024, time.March, 11)},
		{EmployeeID: 2, Product: domain.ProductKN, Count: 2, Date: asOf},
		{EmployeeID: 2, Product: domain.ProductKN, Count: 10, Date: domain.NewDate(2024, time.March, 1)},
	})
	require.NoError(t, err)
	_, err = store.UpsertPlan(ctx, domain.MonthlyPlan{EmployeeID: 1, Year: 2024, Month: time.March, Target: 90})
	require.NoError(t, err)

	statsService := stats.NewService(store, stats.Options{Calendar: stats.DefaultCalendar(), TopBottomN: 2}, logger)
	runner := NewRunner(store, statsService, notifier, audit.NewRecorder(store, 0, logger),
		Options{Workers: 2, TopBottomN: 2}, logger)
	return runner, store
}

func TestRunAllActiveEmployees(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store := newRunnerFixture(t, notifier)

	outcomes, err := runner.Run(context.Background(), nil, asOf)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.True(t, o.Delivered, "employee %d", o.EmployeeID)
		assert.Empty(t, o.Error)
	}
	assert.Equal(t, 3, notifier.count())

	anna := notifier.got[1]
	require.NotNil(t, anna)
	want := "Вы: Анна — место в рейтинге за месяц: 2\n" +
		"День: 5\n" +
		"Неделя: 9\n" +
		"Месяц: 9\n" +
		"План: 90, выполнение: 10.0%, прогноз: 23\n" +
		"Топ-2 сегодня:\n" +
		"- Анна: 5\n" +
		"- Борис: 2\n" +
		"Худшие-2 сегодня:\n" +
		"- Вера: 0\n" +
		"- Борис: 2"
	assert.Equal(t, want, anna.Markdown)
	assert.Equal(t, "Анна: сегодня 5, неделя 9, месяц 9", anna.Line)
	assert.Contains(t, anna.HTML, "<li>Анна: 5</li>")
	assert.Equal(t, asOf, anna.AsOf)

	sent := 0
	for _, e := range store.AuditEntries() {
		if e.Action == audit.ActionSummary {
			sent++
		}
	}
	assert.Equal(t, 3, sent)
}

func TestRunSelectedEmployees(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store := newRunnerFixture(t, notifier)
	require.NoError(t, store.SetEmployeeActive(context.Background(), 3, false))

	outcomes, err := runner.Run(context.Background(), []domain.EmployeeID{2, 3, 99}, asOf)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.EmployeeID(2), outcomes[0].EmployeeID)
	assert.Contains(t, outcomes[0].Summary.Markdown, "место в рейтинге за месяц: 1")
}

func TestRunNotifierFailure(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("chat down")}
	runner, _ := newRunnerFixture(t, notifier)

	outcomes, err := runner.Run(context.Background(), []domain.EmployeeID{1}, asOf)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Delivered)
	assert.Equal(t, errDeliver, outcomes[0].Error)
	assert.NotNil(t, outcomes[0].Summary)
}

func TestRunJoinsInflightEmployee(t *testing.T) {
	notifier := &recordingNotifier{entered: make(chan struct{}, 2), release: make(chan struct{})}
	runner, _ := newRunnerFixture(t, notifier)
	ctx := context.Background()
	ids := []domain.EmployeeID{1}

	var wg sync.WaitGroup
	results := make([][]Outcome, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = runner.Run(ctx, ids, asOf)
	}()
	<-notifier.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = runner.Run(ctx, ids, asOf)
	}()
	time.Sleep(50 * time.Millisecond)
	close(notifier.release)
	wg.Wait()

	assert.Equal(t, 1, notifier.count())
	require.Len(t, results[0], 1)
	require.Len(t, results[1], 1)
	assert.True(t, results[0][0].Delivered)
	assert.True(t, results[1][0].Delivered)
	assert.True(t, results[1][0].Joined)
}

func TestRunDifferentDatesDoNotJoin(t *testing.T) {
	notifier := &recordingNotifier{entered: make(chan struct{}, 2), release: make(chan struct{})}
	runner, _ := newRunnerFixture(t, notifier)
	ctx := context.Background()
	ids := []domain.EmployeeID{1}
	earlier := domain.NewDate(2024, time.February, 20)

	var wg sync.WaitGroup
	results := make([][]Outcome, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = runner.Run(ctx, ids, asOf)
	}()
	<-notifier.entered
	go func() {
		defer wg.Done()
		results[1], _ = runner.Run(ctx, ids, earlier)
	}()
	<-notifier.entered
	close(notifier.release)
	wg.Wait()

	assert.Equal(t, 2, notifier.count())
	require.Len(t, results[0], 1)
	require.Len(t, results[1], 1)
	assert.False(t, results[1][0].Joined)
	require.NotNil(t, results[1][0].Summary)
	assert.True(t, earlier.Equal(results[1][0].Summary.AsOf))
	assert.True(t, asOf.Equal(results[0][0].Summary.AsOf))
}

func TestRenderWithoutPlanOrActivity(t *testing.T) {
	rep := &stats.EmployeeReport{EmployeeID: 7}
	got := Render("Гость", rep, 2)
	assert.Equal(t, "Вы: Гость — место в рейтинге за месяц: —\n"+
		"День: 0\nНеделя: 0\nМесяц: 0\n"+
		"Топ-2 сегодня: —\n"+
		"Худшие-2 сегодня: —", got)
}

func TestNextRun(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2024, 3, 12, 10, 0, 0, 0, msk), time.Date(2024, 3, 12, 20, 0, 0, 0, msk)},
		{"exactly at run time", time.Date(2024, 3, 12, 20, 0, 0, 0, msk), time.Date(2024, 3, 13, 20, 0, 0, 0, msk)},
		{"after run time", time.Date(2024, 3, 12, 21, 30, 0, 0, msk), time.Date(2024, 3, 13, 20, 0, 0, 0, msk)},
		{"utc input", time.Date(2024, 3, 12, 18, 0, 0, 0, time.UTC), time.Date(2024, 3, 13, 20, 0, 0, 0, msk)},
		{"month end", time.Date(2024, 3, 31, 23, 0, 0, 0, msk), time.Date(2024, 4, 1, 20, 0, 0, 0, msk)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, msk, 20, 0)), "got %s", NextRun(tt.now, msk, 20, 0))
		})
	}
}

func TestTurnNotifierStoresAutoGeneratedTurn(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	_, err := store.UpsertEmployee(ctx, domain.Employee{ID: 5, Name: "Дина"})
	require.NoError(t, err)

	n := Notifiers{LogNotifier{Logger: zap.NewNop()}, TurnNotifier{Store: store}}
	require.NoError(t, n.Notify(ctx, domain.Employee{ID: 5}, &Summary{Markdown: "День: 1"}))

	turns, err := store.RecentTurns(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.True(t, turns[0].AutoGenerated)
	assert.Equal(t, domain.RoleAssistant, turns[0].Role)
	assert.Equal(t, "День: 1", turns[0].Content)
}

func TestNotifiersJoinErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingNotifier{}
	n := Notifiers{&recordingNotifier{err: boom}, ok}
	err := n.Notify(context.Background(), domain.Employee{ID: 1}, &Summary{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.count())
}
