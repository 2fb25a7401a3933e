package dialogue

import (
	"math/rand"
	"sync"
	"time"
)

// Rand 是回复挑选与图片抽样使用的随机源，测试中可以注入固定种子。
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand 返回可并发使用的随机源。seed 为 0 时使用当前时间。
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Sample 不放回地均匀抽取至多 k 个元素，不修改 items。
func Sample(rnd Rand, items []string, k int) []string {
	if k > len(items) {
		k = len(items)
	}
	pool := make([]string, len(items))
	copy(pool, items)
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
