package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/repository"
)

// TaskType names the recurring jobs the scheduler dispatches.
type TaskType string

const (
	TaskRankingCheck   TaskType = "ranking_check"
	TaskReoptimization TaskType = "reoptimization"
	TaskMonthlyReport  TaskType = "monthly_report"
	TaskAnalyticsSync  TaskType = "analytics_sync"
)

// Default schedules materialized for every client on startup.
const (
	defaultRankingCheckSchedule   = "0 9 * * *"  // daily 9 AM
	defaultReoptimizationSchedule = "0 10 * * 1" // Monday 10 AM
	defaultMonthlyReportSchedule  = "0 8 1 * *"  // 1st of month 8 AM
	defaultAnalyticsSyncSchedule  = "0 23 * * *" // daily 11 PM
)

// ScheduledTask is one entry in the scheduler's job table.
type ScheduledTask struct {
	ID       string     `json:"id"`
	ClientID uint       `json:"client_id"`
	Type     TaskType   `json:"type"`
	Schedule string     `json:"schedule"`
	Enabled  bool       `json:"enabled"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  time.Time  `json:"next_run"`
}

// Scheduler owns an in-memory table of recurring per-client jobs and
// dispatches due ones into the automation engine on every tick. The
// table is rebuilt from client records on each start; the clock is
// injectable so time-dependent behavior is testable.
type Scheduler struct {
	config *config.SchedulerConfig
	logger *zap.Logger
	engine *AutomationEngine
	store  repository.Store
	now    func() time.Time

	ticker *time.Ticker
	stopCh chan struct{}

	mu    sync.Mutex
	tasks []*ScheduledTask
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, engine *AutomationEngine, store repository.Store) *Scheduler {
	return &Scheduler{
		config: cfg,
		logger: logger,
		engine: engine,
		store:  store,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.TickInterval)
	if err != nil {
		s.logger.Error("Invalid tick interval", zap.String("interval", s.config.TickInterval), zap.Error(err))
		return err
	}

	if err := s.loadTasks(ctx); err != nil {
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("tick_interval", s.config.TickInterval))

	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runDueTasks(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

// loadTasks materializes the four default jobs for every client.
func (s *Scheduler) loadTasks(ctx context.Context) error {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to load clients for scheduling: %w", err)
	}

	defaults := []struct {
		taskType TaskType
		schedule string
	}{
		{TaskRankingCheck, defaultRankingCheckSchedule},
		{TaskReoptimization, defaultReoptimizationSchedule},
		{TaskMonthlyReport, defaultMonthlyReportSchedule},
		{TaskAnalyticsSync, defaultAnalyticsSyncSchedule},
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = s.tasks[:0]
	for _, client := range clients {
		for _, d := range defaults {
			nextRun, err := NextRunTime(d.schedule, now)
			if err != nil {
				// Defaults are constants; this only fires if one is edited badly.
				return fmt.Errorf("invalid default schedule %q: %w", d.schedule, err)
			}
			s.tasks = append(s.tasks, &ScheduledTask{
				ID:       fmt.Sprintf("%s_%d", d.taskType, client.ID),
				ClientID: client.ID,
				Type:     d.taskType,
				Schedule: d.schedule,
				Enabled:  true,
				NextRun:  nextRun,
			})
		}
	}

	s.logger.Info("Loaded scheduled tasks", zap.Int("count", len(s.tasks)))
	return nil
}

// runDueTasks executes every enabled task whose time has come, then
// advances its schedule. Failures are logged but still advance LastRun
// and NextRun, so a broken job waits for its next occurrence instead
// of re-firing every tick.
func (s *Scheduler) runDueTasks(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*ScheduledTask
	for _, task := range s.tasks {
		if task.Enabled && !task.NextRun.After(now) {
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		if err := s.executeTask(ctx, task); err != nil {
			s.logger.Error("Scheduled task failed",
				zap.String("task_id", task.ID),
				zap.String("type", string(task.Type)),
				zap.Error(err))
		}

		nextRun, err := NextRunTime(task.Schedule, now)

		s.mu.Lock()
		ran := now
		task.LastRun = &ran
		if err != nil {
			s.logger.Error("Failed to compute next run, disabling task",
				zap.String("task_id", task.ID),
				zap.Error(err))
			task.Enabled = false
		} else {
			task.NextRun = nextRun
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) executeTask(ctx context.Context, task *ScheduledTask) error {
	s.logger.Info("Executing scheduled task",
		zap.String("task_id", task.ID),
		zap.String("type", string(task.Type)),
		zap.Uint("client_id", task.ClientID))

	switch task.Type {
	case TaskRankingCheck, TaskReoptimization:
		return s.engine.CheckReoptimizationTriggers(ctx, task.ClientID)

	case TaskMonthlyReport:
		report, err := s.engine.GenerateMonthlyReport(ctx, task.ClientID)
		if err != nil {
			return err
		}
		return s.deliverReport(ctx, task.ClientID, report)

	case TaskAnalyticsSync:
		return s.engine.SyncAnalytics(ctx, task.ClientID)

	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}

// deliverReport stores the assembled report under its (client, period)
// key. Email or other delivery channels would hang off this point.
func (s *Scheduler) deliverReport(ctx context.Context, clientID uint, report *ReportData) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if err := s.store.UpsertReport(ctx, clientID, report.Period, string(payload), report.GeneratedAt); err != nil {
		return err
	}

	s.logger.Info("Monthly report delivered",
		zap.Uint("client_id", clientID),
		zap.String("period", report.Period))
	return nil
}

// AddTask inserts a custom job; the type and schedule are validated up
// front so a bad task cannot sit in the table failing on every
// occurrence. NextRun is computed immediately.
func (s *Scheduler) AddTask(clientID uint, taskType TaskType, schedule string, enabled bool) (*ScheduledTask, error) {
	switch taskType {
	case TaskRankingCheck, TaskReoptimization, TaskMonthlyReport, TaskAnalyticsSync:
	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	now := s.now()
	nextRun, err := NextRunTime(schedule, now)
	if err != nil {
		return nil, err
	}

	task := &ScheduledTask{
		ID:       fmt.Sprintf("custom_%d", now.UnixNano()),
		ClientID: clientID,
		Type:     taskType,
		Schedule: schedule,
		Enabled:  enabled,
		NextRun:  nextRun,
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	s.logger.Info("Added scheduled task", zap.String("task_id", task.ID))

	copied := *task
	return &copied, nil
}

// RemoveTask deletes a job from the table.
func (s *Scheduler) RemoveTask(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, task := range s.tasks {
		if task.ID == taskID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.logger.Info("Removed scheduled task", zap.String("task_id", taskID))
			return true
		}
	}
	return false
}

// Tasks returns a snapshot of the job table.
func (s *Scheduler) Tasks() []ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]ScheduledTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		snapshot = append(snapshot, *task)
	}
	return snapshot
}

// TasksForClient returns a snapshot of one client's jobs.
func (s *Scheduler) TasksForClient(clientID uint) []ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot []ScheduledTask
	for _, task := range s.tasks {
		if task.ClientID == clientID {
			snapshot = append(snapshot, *task)
		}
	}
	return snapshot
}
