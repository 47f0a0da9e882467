package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	model "task-board.com/task-board/pkg/models"
)

// RedisTaskStore keeps a board's records as JSON values in one Redis hash,
// keyed by task id. It is the shared store other devices sync against.
type RedisTaskStore struct {
	client     rueidis.Client
	key        string
	stagingKey func() string
}

func NewRedisTaskStore(client rueidis.Client, boardKey string) *RedisTaskStore {
	return &RedisTaskStore{
		client: client,
		key:    boardKey,
		stagingKey: func() string {
			return boardKey + ":staging:" + uuid.NewString()
		},
	}
}

func (s *RedisTaskStore) LoadAll(ctx context.Context) ([]model.Task, error) {
	cmd := s.client.B().Hgetall().Key(s.key).Build()
	values, err := s.client.Do(ctx, cmd).AsStrMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}

	return decodeTasks(values), nil
}

// SaveAll replaces the hash. Each push stages its board under a key of its
// own and renames it over the board key, so readers and concurrent pushers
// see one complete board or another.
func (s *RedisTaskStore) SaveAll(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return s.client.Do(ctx, s.client.B().Del().Key(s.key).Build()).Error()
	}

	fields, err := encodeTasks(tasks)
	if err != nil {
		return err
	}

	staging := s.stagingKey()
	hset := s.client.B().Hset().Key(staging).FieldValue()
	for _, f := range fields {
		hset = hset.FieldValue(f.id, f.value)
	}

	results := s.client.DoMulti(
		ctx,
		hset.Build(),
		s.client.B().Rename().Key(staging).Newkey(s.key).Build(),
	)
	for _, res := range results {
		if err := res.Error(); err != nil {
			if derr := s.client.Do(ctx, s.client.B().Del().Key(staging).Build()).Error(); derr != nil {
				log.Printf("remote: failed to drop staging key %s: %v", staging, derr)
			}
			return err
		}
	}

	return nil
}

type field struct {
	id    string
	value string
}

func encodeTasks(tasks []model.Task) ([]field, error) {
	fields := make([]field, 0, len(tasks))
	for i := range tasks {
		raw, err := json.Marshal(tasks[i])
		if err != nil {
			return nil, fmt.Errorf("encode task %s: %w", tasks[i].ID, err)
		}
		fields = append(fields, field{id: tasks[i].ID, value: string(raw)})
	}
	return fields, nil
}

func decodeTasks(values map[string]string) []model.Task {
	tasks := make([]model.Task, 0, len(values))
	for id, raw := range values {
		var task model.Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			log.Printf("remote: skipping undecodable task %s: %v", id, err)
			continue
		}
		if task.ID == "" {
			task.ID = id
		}
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}
