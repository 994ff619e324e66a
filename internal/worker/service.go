package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务，同时承载周期任务调度
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	consumer  *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, reaperCfg config.ReaperConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	svc := &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}
	if reaperCfg.Enabled {
		scheduler, err := newReaperScheduler(opt, reaperCfg)
		if err != nil {
			return nil, err
		}
		svc.scheduler = scheduler
	}
	return svc, nil
}

func newReaperScheduler(opt asynq.RedisClientOpt, reaperCfg config.ReaperConfig) (*asynq.Scheduler, error) {
	cronspec := strings.TrimSpace(reaperCfg.Cron)
	if cronspec == "" {
		cronspec = constants.ReaperScheduleDefault
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Warnw("worker_schedule_enqueue_failed", "error", err)
			}
		},
	})
	entryID, err := scheduler.Register(cronspec, queue.NewOrderStaleReapTask(), reaperTaskOptions(reaperCfg)...)
	if err != nil {
		return nil, err
	}
	logger.Infow("worker_reaper_scheduled", "cron", cronspec, "entry_id", entryID)
	return scheduler, nil
}

// reaperTaskOptions 周期任务选项，上一次尚未完成时不再重复入队
func reaperTaskOptions(reaperCfg config.ReaperConfig) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue.DefaultQueue),
		asynq.MaxRetry(1),
		asynq.Unique(reaperUniqueTTL(reaperCfg)),
	}
}

func reaperUniqueTTL(reaperCfg config.ReaperConfig) time.Duration {
	if reaperCfg.LockTTLSeconds > 0 {
		return time.Duration(reaperCfg.LockTTLSeconds) * time.Second
	}
	return constants.ReaperLockTTLSeconds * time.Second
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}
	_ = ctx
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}
