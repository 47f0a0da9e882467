package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"task-board.com/task-board/internal/constants"
	"task-board.com/task-board/internal/format"
	"task-board.com/task-board/internal/lifecycle"
	"task-board.com/task-board/internal/timer"
	model "task-board.com/task-board/pkg/models"
)

// TaskStore persists the whole board.
type TaskStore interface {
	LoadAll(ctx context.Context) ([]model.Task, error)
	SaveAll(ctx context.Context, tasks []model.Task) error
}

// RecordStore is implemented by stores that can write one record at a time.
type RecordStore interface {
	SaveOne(ctx context.Context, task *model.Task) error
	DeleteOne(ctx context.Context, id string) error
}

var (
	ErrPersistFailed = errors.New("board changes were not saved")
	ErrLoadFailed    = errors.New("board could not be loaded")
)

type NewTask struct {
	Text        string
	Description string
	Column      constants.Column
	Priority    constants.Priority
	DueDate     *time.Time
}

// EditRequest is a field edit that may also carry a column change, as the
// edit form does.
type EditRequest struct {
	lifecycle.Updates
	Column *constants.Column
}

type TimerView struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs int64         `json:"elapsedMs"`
	Display   string        `json:"display"`
}

type BoardStats struct {
	Total          int    `json:"total"`
	Todo           int    `json:"todo"`
	InProgress     int    `json:"inProgress"`
	Done           int    `json:"done"`
	TimeSpentMs    int64  `json:"timeSpentMs"`
	TimeSpentHuman string `json:"timeSpentHuman"`
}

// BoardService owns the task collection. Every request runs under one lock,
// so a request observes and leaves the board and the timer registry in a
// consistent state.
type BoardService struct {
	mu     sync.Mutex
	store  TaskStore
	engine *lifecycle.Engine
	loop   *timer.UpdateLoop
	clock  clock.Clock
	tasks  []*model.Task
	index  map[string]*model.Task
	onTick func([]TimerView)
	subs   map[int]chan []TimerView
	nextID int
}

func NewBoardService(
	store TaskStore,
	engine *lifecycle.Engine,
	loop *timer.UpdateLoop,
	clk clock.Clock,
) *BoardService {
	if clk == nil {
		clk = clock.New()
	}
	return &BoardService{
		store:  store,
		engine: engine,
		loop:   loop,
		clock:  clk,
		index:  make(map[string]*model.Task),
		subs:   make(map[int]chan []TimerView),
	}
}

// Load replaces the in-memory board with the store's contents and rebuilds
// the timers. On failure the current board is kept.
func (s *BoardService) Load(ctx context.Context) error {
	_, err := s.reload(ctx, s.store, true)
	return err
}

// Refresh is Load without writing repaired records back. Read-only callers use
// it so they never touch rows another process is writing.
func (s *BoardService) Refresh(ctx context.Context) error {
	_, err := s.reload(ctx, s.store, false)
	return err
}

// Pull replaces the board with a remote store's contents and saves the
// result locally.
func (s *BoardService) Pull(ctx context.Context, remote TaskStore) (int, error) {
	if remote == nil {
		return 0, errors.New("remote store is not configured")
	}
	return s.reload(ctx, remote, true)
}

// Push writes the current board to a remote store.
func (s *BoardService) Push(ctx context.Context, remote TaskStore) (int, error) {
	if remote == nil {
		return 0, errors.New("remote store is not configured")
	}

	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := remote.SaveAll(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("push board: %w", err)
	}
	return len(snapshot), nil
}

func (s *BoardService) reload(ctx context.Context, source TaskStore, writeBack bool) (int, error) {
	// The loop reads the registry; it must not tick while it is rebuilt.
	wasRunning := s.loop != nil && s.loop.Stop()
	defer func() {
		if wasRunning {
			s.loop.Start(s.tick)
		}
	}()

	records, err := source.LoadAll(ctx)
	if err != nil {
		log.Printf("board: load failed, keeping current board: %v", err)
		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	tasks := make([]*model.Task, 0, len(records))
	index := make(map[string]*model.Task, len(records))
	loaded := make(map[string]model.Task, len(records))
	rebuilt := false

	for _, raw := range records {
		task := model.Migrate(raw, now)
		if task.ID == "" {
			task.ID = uuid.NewString()
			rebuilt = true
			log.Printf("board: assigned id %s to a record without one", task.ID)
		}
		if _, dup := index[task.ID]; dup {
			rebuilt = true
			log.Printf("board: dropping duplicate task %s", task.ID)
			continue
		}
		tasks = append(tasks, &task)
		index[task.ID] = &task
		loaded[task.ID] = raw
	}

	s.tasks = tasks
	s.index = index
	s.engine.Reinitialize(s.tasks)

	if !writeBack {
		return len(tasks), nil
	}

	if err := s.writeBackLocked(ctx, source, loaded, rebuilt); err != nil {
		log.Printf("board: failed to save reloaded board: %v", err)
		if source != s.store {
			return len(tasks), fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}
	}

	return len(tasks), nil
}

// writeBackLocked saves a freshly loaded board. A board from another store
// replaces the local one. A board read from the local store only writes the
// records that migration or timer repair changed, so rows added meanwhile by
// another process survive.
func (s *BoardService) writeBackLocked(ctx context.Context, source TaskStore, loaded map[string]model.Task, rebuilt bool) error {
	rs, ok := s.store.(RecordStore)
	if source != s.store || !ok || rebuilt {
		return s.store.SaveAll(ctx, s.snapshotLocked())
	}

	var first error
	for _, task := range s.tasks {
		if sameRecord(loaded[task.ID], *task) {
			continue
		}
		if err := rs.SaveOne(ctx, task); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// sameRecord reports whether b stores the same record as a. The timer start
// is derived on every load and is ignored.
func sameRecord(a, b model.Task) bool {
	return a.ID == b.ID &&
		a.Text == b.Text &&
		a.Description == b.Description &&
		a.Column == b.Column &&
		a.Priority == b.Priority &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.TimeSpent == b.TimeSpent &&
		a.Version == b.Version &&
		sameTime(a.DueDate, b.DueDate) &&
		sameTime(a.LastEditedAt, b.LastEditedAt) &&
		sameTime(a.StartedAt, b.StartedAt) &&
		sameTime(a.InProgressSince, b.InProgressSince) &&
		sameTime(a.CompletedAt, b.CompletedAt)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (s *BoardService) AddTask(ctx context.Context, req NewTask) (*model.Task, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, lifecycle.ErrTextRequired
	}
	if req.Column == "" {
		req.Column = constants.ColumnTodo
	}
	if !req.Column.Valid() {
		return nil, lifecycle.ErrInvalidColumn
	}
	if req.Priority == "" {
		req.Priority = constants.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, lifecycle.ErrInvalidPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := &model.Task{
		ID:          uuid.NewString(),
		Text:        text,
		Description: req.Description,
		Column:      req.Column,
		Priority:    req.Priority,
		CreatedAt:   s.clock.Now().UTC(),
		Version:     1,
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		task.DueDate = &due
	}

	s.engine.Place(task)
	s.tasks = append(s.tasks, task)
	s.index[task.ID] = task

	err := s.persistLocked(ctx, task)
	out := task.Clone()
	return &out, err
}

// RequestColumnChange moves a task. An unknown id yields (nil, nil).
func (s *BoardService) RequestColumnChange(ctx context.Context, id string, column constants.Column) (*model.Task, error) {
	if !column.Valid() {
		return nil, lifecycle.ErrInvalidColumn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.index[id]
	if !ok {
		return nil, nil
	}

	var err error
	if s.engine.Move(task, column) {
		err = s.persistLocked(ctx, task)
	}

	out := task.Clone()
	return &out, err
}

// RequestEdit applies a field edit and, when requested, a column change. An
// unknown id yields (nil, nil).
func (s *BoardService) RequestEdit(ctx context.Context, id string, req EditRequest) (*model.Task, error) {
	if req.Column != nil && !req.Column.Valid() {
		return nil, lifecycle.ErrInvalidColumn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.index[id]
	if !ok {
		return nil, nil
	}

	if err := s.engine.Edit(task, req.Updates); err != nil {
		return nil, err
	}
	if req.Column != nil {
		s.engine.Move(task, *req.Column)
	}

	err := s.persistLocked(ctx, task)
	out := task.Clone()
	return &out, err
}

// RequestDelete removes a task and its running session. It reports whether
// the task existed.
func (s *BoardService) RequestDelete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false, nil
	}

	s.engine.Forget(id)
	delete(s.index, id)
	for i, task := range s.tasks {
		if task.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}

	var err error
	if rs, ok := s.store.(RecordStore); ok {
		err = rs.DeleteOne(ctx, id)
	} else {
		err = s.store.SaveAll(ctx, s.snapshotLocked())
	}
	if err != nil {
		log.Printf("board: failed to persist delete of %s: %v", id, err)
		return true, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return true, nil
}

func (s *BoardService) Get(id string) *model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.index[id]
	if !ok {
		return nil
	}
	out := task.Clone()
	return &out
}

// List returns the board ordered by column, then priority, then age.
func (s *BoardService) List() []model.Task {
	s.mu.Lock()
	tasks := s.snapshotLocked()
	s.mu.Unlock()

	order := make(map[constants.Column]int, len(constants.Columns))
	for i, c := range constants.Columns {
		order[c] = i
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Column != b.Column {
			return order[a.Column] < order[b.Column]
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return tasks
}

// Elapsed is the total tracked time of a task, live while it is in progress.
func (s *BoardService) Elapsed(id string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.index[id]
	if !ok {
		return 0, false
	}
	return s.engine.Elapsed(task), true
}

// LiveTimers reports every running session.
func (s *BoardService) LiveTimers() []TimerView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.liveTimersLocked()
}

func (s *BoardService) liveTimersLocked() []TimerView {
	timers := s.engine.Timers()
	now := s.clock.Now()

	ids := timers.ActiveIDs()
	views := make([]TimerView, 0, len(ids))
	for _, id := range ids {
		elapsed := timers.ElapsedAt(id, now)
		view := TimerView{
			ID:        id,
			Elapsed:   elapsed,
			ElapsedMs: elapsed.Milliseconds(),
			Display:   format.Elapsed(elapsed),
		}
		if task, ok := s.index[id]; ok {
			view.Text = task.Text
		}
		views = append(views, view)
	}
	return views
}

// StartUpdates runs the refresh loop, handing fresh timer views to onTick
// once per period. onTick may be nil.
func (s *BoardService) StartUpdates(onTick func([]TimerView)) bool {
	if s.loop == nil {
		return false
	}

	s.mu.Lock()
	s.onTick = onTick
	s.mu.Unlock()

	return s.loop.Start(s.tick)
}

// StopUpdates stops the refresh loop and closes every subscription.
func (s *BoardService) StopUpdates() bool {
	if s.loop == nil {
		return false
	}
	stopped := s.loop.Stop()

	s.mu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	return stopped
}

// Subscribe returns a channel that receives the timer views of every refresh.
// A slow reader misses ticks rather than delaying the loop. The returned
// function cancels the subscription.
func (s *BoardService) Subscribe() (<-chan []TimerView, func()) {
	ch := make(chan []TimerView, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.subs[id]; ok {
			close(ch)
			delete(s.subs, id)
		}
	}
	return ch, cancel
}

func (s *BoardService) tick() {
	s.mu.Lock()
	views := s.liveTimersLocked()
	onTick := s.onTick
	for _, ch := range s.subs {
		select {
		case ch <- views:
		default:
		}
	}
	s.mu.Unlock()

	if onTick != nil {
		onTick(views)
	}
}

func (s *BoardService) Stats() BoardStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats BoardStats
	var total time.Duration
	for _, task := range s.tasks {
		stats.Total++
		switch task.Column {
		case constants.ColumnTodo:
			stats.Todo++
		case constants.ColumnInProgress:
			stats.InProgress++
		case constants.ColumnDone:
			stats.Done++
		}
		total += s.engine.Elapsed(task)
	}

	stats.TimeSpentMs = total.Milliseconds()
	stats.TimeSpentHuman = format.Human(total)
	return stats
}

func (s *BoardService) persistLocked(ctx context.Context, task *model.Task) error {
	var err error
	if rs, ok := s.store.(RecordStore); ok {
		err = rs.SaveOne(ctx, task)
	} else {
		err = s.store.SaveAll(ctx, s.snapshotLocked())
	}
	if err != nil {
		log.Printf("board: failed to persist task %s: %v", task.ID, err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

func (s *BoardService) snapshotLocked() []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	return out
}
