package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

// QueueName is the redis list holding rollup jobs.
const QueueName = "queue:daily-rollup"

const maxRetries = 3

type Processor interface {
	Process(ctx context.Context, job *models.Job) error
}

type Pool struct {
	redis       *redis.Client
	processor   Processor
	loc         *time.Location
	workerCount int
	pollTimeout time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, processor Processor, loc *time.Location, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		processor:   processor,
		loc:         loc,
		workerCount: workerCount,
		pollTimeout: 5 * time.Second,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop signals workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

// Enqueue pushes job onto the queue.
func (p *Pool) Enqueue(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return p.redis.LPush(ctx, QueueName, data).Err()
}

// HandleEvent enqueues the rollup a session change calls for.
func (p *Pool) HandleEvent(e events.Event) error {
	job, ok := JobFor(e, p.loc)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return p.Enqueue(ctx, job)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BRPop(ctx, p.pollTimeout, QueueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("Worker %d: queue read failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// One worker per user and day; a second job for the same key waits
		// for the first so its recompute sees the latest rows.
		lockKey := fmt.Sprintf("job_lock:%s:%s:%s", job.UserID, job.Type, job.Day)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 2*time.Minute).Result()
		if err != nil || !locked {
			p.requeue(job, time.Second)
			continue
		}

		if err := p.processor.Process(ctx, &job); err != nil {
			p.handleFailure(&job, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) handleFailure(job *models.Job, err error) {
	job.RetryCount++
	if job.RetryCount >= maxRetries {
		log.Printf("Job %s (%s %s) failed permanently: %v", job.ID, job.Type, job.Day, err)
		return
	}
	log.Printf("Job %s failed (attempt %d): %v, retrying", job.ID, job.RetryCount, err)
	p.requeue(*job, time.Duration(1<<uint(job.RetryCount))*time.Second)
}

func (p *Pool) requeue(job models.Job, after time.Duration) {
	time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.Enqueue(ctx, &job); err != nil {
			log.Printf("Job %s: failed to requeue: %v", job.ID, err)
		}
	})
}
