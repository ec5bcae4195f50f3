package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeStream is a single-group, in-memory stand-in for the Redis stream
// commands used by Publisher and Consumer.
type fakeStream struct {
	mu sync.Mutex

	groupCreated bool
	groupDropped bool
	groupCreates int
	groupErr     error
	addErr       error
	readErr      error

	adds      []*redis.XAddArgs
	messages  []redis.XMessage
	delivered int
	pending   map[string]redis.XMessage
	acked     []string
	claimable []redis.XMessage
}

var errNoGroup = errors.New("NOGROUP No such key 'appointment.exchange:appointment.notification' or consumer group 'appointment.queue' in XREADGROUP with GROUP option")

func newFakeStream() *fakeStream {
	return &fakeStream{pending: make(map[string]redis.XMessage)}
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.addErr != nil {
		cmd.SetErr(f.addErr)
		return cmd
	}

	id := fmt.Sprintf("%d-0", len(f.messages)+1)
	values := make(map[string]any)
	switch v := a.Values.(type) {
	case map[string]any:
		for k, val := range v {
			values[k] = val
		}
	default:
		cmd.SetErr(fmt.Errorf("unsupported values type %T", a.Values))
		return cmd
	}

	f.adds = append(f.adds, a)
	f.messages = append(f.messages, redis.XMessage{ID: id, Values: values})
	cmd.SetVal(id)
	return cmd
}

// push appends a raw message as if another producer had written it.
func (f *fakeStream) push(values map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("%d-0", len(f.messages)+1)
	f.messages = append(f.messages, redis.XMessage{ID: id, Values: values})
	return id
}

func (f *fakeStream) XGroupCreateMkStream(ctx context.Context, _, _, _ string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.groupErr != nil:
		cmd.SetErr(f.groupErr)
	case f.groupCreated:
		cmd.SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
	default:
		f.groupCreated = true
		f.groupDropped = false
		f.groupCreates++
		cmd.SetVal("OK")
	}
	return cmd
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	cmd := redis.NewXStreamSliceCmd(ctx)
	f.mu.Lock()

	if f.readErr != nil {
		f.mu.Unlock()
		cmd.SetErr(f.readErr)
		return cmd
	}
	if f.groupDropped {
		f.mu.Unlock()
		cmd.SetErr(errNoGroup)
		return cmd
	}

	var batch []redis.XMessage
	for f.delivered < len(f.messages) && int64(len(batch)) < a.Count {
		msg := f.messages[f.delivered]
		f.delivered++
		f.pending[msg.ID] = msg
		batch = append(batch, msg)
	}
	f.mu.Unlock()

	if len(batch) == 0 {
		select {
		case <-ctx.Done():
			cmd.SetErr(ctx.Err())
		case <-time.After(5 * time.Millisecond):
			cmd.SetErr(redis.Nil)
		}
		return cmd
	}

	cmd.SetVal([]redis.XStream{{Stream: a.Streams[0], Messages: batch}})
	return cmd
}

func (f *fakeStream) XAutoClaim(ctx context.Context, _ *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	cmd := redis.NewXAutoClaimCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.groupDropped {
		cmd.SetErr(errNoGroup)
		return cmd
	}

	claimed := f.claimable
	f.claimable = nil
	for _, msg := range claimed {
		f.pending[msg.ID] = msg
	}
	cmd.SetVal(claimed, "0-0")
	return cmd
}

func (f *fakeStream) XAck(ctx context.Context, _, _ string, ids ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := f.pending[id]; ok {
			delete(f.pending, id)
			f.acked = append(f.acked, id)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeStream) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *fakeStream) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

// dropGroup simulates Redis losing the stream and its group, e.g. a restart
// without persistence.
func (f *fakeStream) dropGroup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCreated = false
	f.groupDropped = true
	f.messages = nil
	f.delivered = 0
	f.pending = make(map[string]redis.XMessage)
}

func (f *fakeStream) groupCreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groupCreates
}
