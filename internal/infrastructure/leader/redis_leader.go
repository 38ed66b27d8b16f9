package leader

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	leaderKey      = "crm_sweeper_leader"
	refreshTimeout = 5 * time.Second
)

// Both scripts compare the stored holder first so an instance can never
// extend or delete a lease that has since passed to someone else.
var (
	refreshLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// RedisLeaderElection holds a TTL lease on the sweeper key so a
// multi-instance deployment runs exactly one deadline sweep. The holder
// keeps the lease alive on a heartbeat; the heartbeat stops when the
// lease is lost or ReleaseLeadership is called.
type RedisLeaderElection struct {
	client    *redis.Client
	ttl       time.Duration
	heartbeat time.Duration

	mu              sync.Mutex
	cancelHeartbeat context.CancelFunc
}

func NewRedisLeaderElection(client *redis.Client, ttl, heartbeat time.Duration) *RedisLeaderElection {
	if heartbeat <= 0 {
		heartbeat = ttl / 3
	}
	return &RedisLeaderElection{
		client:    client,
		ttl:       ttl,
		heartbeat: heartbeat,
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
	if err != nil || !acquired {
		return false, err
	}
	r.startHeartbeat(instanceID)
	return true, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	holder, err := r.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return holder == instanceID, nil
}

// ReleaseLeadership stops the heartbeat and drops the lease if this
// instance still holds it.
func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.stopHeartbeat()
	return releaseLeaseScript.Run(ctx, r.client, []string{leaderKey}, instanceID).Err()
}

func (r *RedisLeaderElection) startHeartbeat(instanceID string) {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	if r.cancelHeartbeat != nil {
		r.cancelHeartbeat()
	}
	r.cancelHeartbeat = cancel
	r.mu.Unlock()

	go runHeartbeat(ctx, r.heartbeat, func(ctx context.Context) bool {
		return r.refreshLease(ctx, instanceID)
	})
}

func (r *RedisLeaderElection) stopHeartbeat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelHeartbeat != nil {
		r.cancelHeartbeat()
		r.cancelHeartbeat = nil
	}
}

// runHeartbeat invokes refresh every interval until the context is
// cancelled or a refresh reports the lease gone.
func runHeartbeat(ctx context.Context, interval time.Duration, refresh func(context.Context) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !refresh(ctx) {
				return
			}
		}
	}
}

func (r *RedisLeaderElection) refreshLease(ctx context.Context, instanceID string) bool {
	runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	kept, err := refreshLeaseScript.Run(runCtx, r.client,
		[]string{leaderKey}, instanceID, int(r.ttl.Seconds())).Int64()
	return err == nil && kept == 1
}
