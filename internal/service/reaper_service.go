package service

import (
	"context"
	"time"

	"github.com/dropsync-next/internal/cache"
	"github.com/dropsync-next/internal/config"
	"github.com/dropsync-next/internal/constants"
	"github.com/dropsync-next/internal/logger"
	"github.com/dropsync-next/internal/metrics"
	"github.com/dropsync-next/internal/repository"
)

// LockFunc 获取分布式锁，release 总是可调用
type LockFunc func(ctx context.Context, key string, ttl time.Duration) (acquired bool, release func(), err error)

// ReapResult 单次清理与巡检结果
type ReapResult struct {
	DeletedCount         int64 `json:"deleted_count"`
	TrackingUpdatedCount int   `json:"tracking_updated_count"`
	TrackingSkippedCount int   `json:"tracking_skipped_count"`
	TrackingFailedCount  int   `json:"tracking_failed_count"`
	LockSkipped          bool  `json:"lock_skipped"`
}

// ReaperService 过期订单清理与在途订单物流巡检
type ReaperService struct {
	orderRepo repository.OrderRepository
	tracking  *TrackingService
	cfg       config.ReaperConfig
	metrics   *metrics.Recorder
	lock      LockFunc
	now       func() time.Time
}

// NewReaperService 创建清理服务
func NewReaperService(orderRepo repository.OrderRepository, tracking *TrackingService, cfg config.ReaperConfig, recorder *metrics.Recorder) *ReaperService {
	return &ReaperService{
		orderRepo: orderRepo,
		tracking:  tracking,
		cfg:       cfg,
		metrics:   recorder,
		lock:      cache.TryLock,
		now:       time.Now,
	}
}

// Run 删除超过宽限期仍未支付的订单，然后巡检在途订单物流。
// 删除失败不会阻止巡检，返回的错误仅反映删除阶段。
func (s *ReaperService) Run(ctx context.Context) (*ReapResult, error) {
	result := &ReapResult{}
	acquired, release, lockErr := s.lock(ctx, constants.ReaperLockKey, s.lockTTL())
	if lockErr != nil {
		logger.Warnw("reaper_lock_failed", "error", lockErr)
	} else if !acquired {
		result.LockSkipped = true
		logger.Infow("reaper_run_skipped", "reason", "lock_held")
		return result, nil
	}
	defer release()

	started := s.now()
	deleted, deleteErr := s.reapStale(started)
	result.DeletedCount = deleted

	s.sweepTracking(ctx, result)

	s.metrics.ObserveReaperRun(result.DeletedCount, deleteErr)
	logger.Infow("reaper_run_finished",
		"deleted", result.DeletedCount,
		"tracking_updated", result.TrackingUpdatedCount,
		"tracking_skipped", result.TrackingSkippedCount,
		"tracking_failed", result.TrackingFailedCount,
		"elapsed", s.now().Sub(started),
	)
	return result, deleteErr
}

func (s *ReaperService) reapStale(now time.Time) (int64, error) {
	cutoff := now.Add(-s.cfg.Grace())
	ids, err := s.orderRepo.ListStaleIDs(cutoff)
	if err != nil {
		logger.Errorw("reaper_select_failed", "cutoff", cutoff, "error", err)
		return 0, wrapPersistence(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.orderRepo.DeleteStaleByIDs(ids, cutoff)
	if err != nil {
		logger.Errorw("reaper_delete_failed", "candidates", len(ids), "error", err)
		return 0, wrapPersistence(err)
	}
	return deleted, nil
}

func (s *ReaperService) sweepTracking(ctx context.Context, result *ReapResult) {
	if s.tracking == nil {
		return
	}
	ids, err := s.orderRepo.ListInFlightIDs(inFlightStatuses, s.batchSize())
	if err != nil {
		logger.Errorw("reaper_in_flight_select_failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	summary := s.tracking.RefreshBatch(ctx, ids)
	result.TrackingUpdatedCount = summary.Updated
	result.TrackingSkippedCount = summary.Skipped
	result.TrackingFailedCount = summary.Failed
}

func (s *ReaperService) batchSize() int {
	if s.cfg.TrackingBatchSize > 0 {
		return s.cfg.TrackingBatchSize
	}
	return constants.TrackingSweepBatchSize
}

func (s *ReaperService) lockTTL() time.Duration {
	if s.cfg.LockTTLSeconds > 0 {
		return time.Duration(s.cfg.LockTTLSeconds) * time.Second
	}
	return constants.ReaperLockTTLSeconds * time.Second
}
