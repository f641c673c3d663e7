package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/gin-social/config"
	"github.com/d60-Lab/gin-social/internal/cache"
	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/model"
	"github.com/d60-Lab/gin-social/internal/repository"
	"github.com/d60-Lab/gin-social/internal/service"
	"github.com/d60-Lab/gin-social/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 同一对 (A -> B) 被 CONC 个并发方切换 N 次，检查边与通知的不变式
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	ctx := context.Background()

	N := envInt("N", 1000)
	CONC := envInt("CONC", 8)
	PAIRS := envInt("PAIRS", 4)

	users := repository.NewUserRepository(db)
	views := cache.NoopViewCache{}
	identitySync := service.NewIdentitySync(users, views)
	graph := service.NewSocialGraphService(db, identitySync, users,
		repository.NewFollowRepository(db),
		repository.NewNotificationRepository(db),
		views)

	// seed: 每对一个关注者与一个被关注者
	type pair struct {
		actor    *identity.Principal
		actorID  string
		targetID string
	}
	pairs := make([]pair, PAIRS)
	for i := range pairs {
		tag := uuid.New().String()[:8]
		a := &identity.Principal{ClerkID: "bench_a_" + tag, Profile: identity.Profile{EmailAddresses: []string{"a" + tag + "@bench.test"}}}
		b := &identity.Principal{ClerkID: "bench_b_" + tag, Profile: identity.Profile{EmailAddresses: []string{"b" + tag + "@bench.test"}}}
		ra, rb := identitySync.SyncUser(ctx, a), identitySync.SyncUser(ctx, b)
		if !ra.OK() || !rb.OK() {
			panic(fmt.Sprintf("seed users: %v %v", ra.Err, rb.Err))
		}
		pairs[i] = pair{actor: a, actorID: ra.Data.ID, targetID: rb.Data.ID}
	}

	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, N)
		follows   = make([]int, PAIRS)
		failures  int
	)
	var wg sync.WaitGroup
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				p := pairs[i%PAIRS]
				st := time.Now()
				res := graph.ToggleFollow(ctx, p.actor, p.targetID)
				d := time.Since(st)
				mu.Lock()
				latencies = append(latencies, d)
				switch {
				case !res.OK():
					failures++
				case res.Data == service.StateFollowing:
					follows[i%PAIRS]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, PAIRS=%d\n", N, CONC, PAIRS)
	fmt.Printf("Toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failures: %d\n",
		total, total/time.Duration(N), pct(latencies, 0.50), pct(latencies, 0.95), pct(latencies, 0.99), failures)

	violations := 0
	for i, p := range pairs {
		var edges, notes int64
		db.Model(&model.Follow{}).Where("follower_id = ? AND following_id = ?", p.actorID, p.targetID).Count(&edges)
		db.Model(&model.Notification{}).Where("creator_id = ? AND user_id = ?", p.actorID, p.targetID).Count(&notes)
		ok := edges <= 1 && notes == int64(follows[i])
		if !ok {
			violations++
		}
		fmt.Printf("pair %d: edges=%d notifications=%d follow_outcomes=%d ok=%v\n", i, edges, notes, follows[i], ok)
	}
	if violations > 0 {
		os.Exit(1)
	}
}
