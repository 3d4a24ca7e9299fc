package hasher

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/file-organizer/internal"
	"github.com/moyu-x/file-organizer/pkg/logger"
)

type HashTask struct {
	Path    string
	Size    int64
	ModTime int64
}

type HashResult struct {
	Path    string
	Hash    string
	Size    int64
	ModTime int64
	Error   error
}

// HashPool 基于 ants 的哈希计算池，用于全量去重扫描
type HashPool struct {
	fs      afero.Fs
	workers int
	tasks   chan HashTask
	results chan HashResult
	wg      sync.WaitGroup
	pool    *ants.Pool
}

func NewHashPool(fs afero.Fs, workers int) *HashPool {
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}
	return &HashPool{
		fs:      fs,
		workers: workers,
		tasks:   make(chan HashTask, internal.DefaultBufferSize),
		results: make(chan HashResult, internal.DefaultBufferSize),
	}
}

// Start 启动工作线程，所有工作线程退出后自动关闭结果通道
func (p *HashPool) Start() error {
	logger.Get().Debug().Msgf("启动哈希计算池，工作线程数: %d", p.workers)

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		logger.Get().Error().Err(err).Msg("创建 goroutine 池失败")
		return err
	}
	p.pool = pool

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		if err := p.pool.Submit(p.worker); err != nil {
			p.wg.Done()
			return err
		}
	}

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return nil
}

func (p *HashPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		hash, err := CalculateHash(p.fs, task.Path)
		p.results <- HashResult{
			Path:    task.Path,
			Hash:    hash,
			Size:    task.Size,
			ModTime: task.ModTime,
			Error:   err,
		}
	}
}

// AddTask 提交一个哈希任务
func (p *HashPool) AddTask(task HashTask) {
	p.tasks <- task
}

// Done 声明不再有新任务
func (p *HashPool) Done() {
	close(p.tasks)
}

// Results 哈希结果通道，所有任务完成后自动关闭
func (p *HashPool) Results() <-chan HashResult {
	return p.results
}

// Release 释放底层 goroutine 池
func (p *HashPool) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
