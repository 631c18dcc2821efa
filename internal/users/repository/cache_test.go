package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rentals/internal/storage/memory"
	userserrors "rentals/internal/users/errors"
	"rentals/internal/users/repository"
	"rentals/pkg/logger"
	"rentals/pkg/model"

	"github.com/go-redis/redis/v8"
)

// unreachableRedis fails every command quickly with a dial error.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedUserRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := repository.NewCachedUserRepository(store.Users(), unreachableRedis(t), time.Minute, logger.Discard())

	user := &model.User{Name: "Gil Guest", Email: "gil@example.com", Role: model.RoleGuest}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() did not assign an id")
	}

	got, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Email != user.Email || got.Role != model.RoleGuest {
		t.Errorf("FindByID() = %+v", got)
	}

	_, err = repo.FindByID(ctx, "507f1f77bcf86cd7994390aa")
	if !errors.Is(err, userserrors.ErrNotFound) {
		t.Errorf("FindByID(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestCachedUserRepository_CreateErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := repository.NewCachedUserRepository(store.Users(), unreachableRedis(t), time.Minute, logger.Discard())

	first := &model.User{Name: "Ann", Email: "ann@example.com", Role: model.RoleOwner}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatal(err)
	}

	dup := &model.User{Name: "Ann Again", Email: "ann@example.com", Role: model.RoleOwner}
	if err := repo.Create(ctx, dup); !errors.Is(err, userserrors.ErrDuplicateEmail) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateEmail", err)
	}
}

// commandLog records every command sent through the client it is hooked to.
type commandLog struct {
	mu   sync.Mutex
	cmds []string
}

func (l *commandLog) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmds = append(l.cmds, fmt.Sprintf("%v", cmd.Args()))
	return ctx, nil
}

func (l *commandLog) AfterProcess(context.Context, redis.Cmder) error { return nil }

func (l *commandLog) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (l *commandLog) AfterProcessPipeline(context.Context, []redis.Cmder) error { return nil }

func (l *commandLog) has(want string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.cmds {
		if c == want {
			return true
		}
	}
	return false
}

func TestCachedUserRepository_UpdateEvictsEntry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	client := unreachableRedis(t)
	cmds := &commandLog{}
	client.AddHook(cmds)
	repo := repository.NewCachedUserRepository(store.Users(), client, time.Minute, logger.Discard())

	user := &model.User{Name: "Gil Guest", Email: "gil@example.com", Role: model.RoleGuest}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatal(err)
	}

	user.Name = "Gil Renamed"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if want := "[del user:" + user.ID + "]"; !cmds.has(want) {
		t.Errorf("commands = %v, want %q", cmds.cmds, want)
	}

	got, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Gil Renamed" {
		t.Errorf("FindByID() name = %q after update", got.Name)
	}
}

func TestCachedUserRepository_FailedUpdateKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	client := unreachableRedis(t)
	cmds := &commandLog{}
	client.AddHook(cmds)
	repo := repository.NewCachedUserRepository(store.Users(), client, time.Minute, logger.Discard())

	missing := &model.User{ID: "507f1f77bcf86cd7994390aa", Name: "Nobody", Email: "nobody@example.com"}
	if err := repo.Update(ctx, missing); !errors.Is(err, userserrors.ErrNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if cmds.has("[del user:" + missing.ID + "]") {
		t.Error("failed update evicted the cache entry")
	}
}
