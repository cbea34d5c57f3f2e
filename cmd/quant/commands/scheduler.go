package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/scheduler"
	"github.com/wonny/krxdaily/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_collect`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다 (KST 기준).

등록되는 작업:
- daily_collect: COLLECT_SCHEDULE (기본 평일 18:00) 관심종목 수집 + 일일 리포트
- purge_old_data: PURGE_SCHEDULE (기본 일요일 03:00) RETENTION_DAYS 이전 데이터 삭제
  (RETENTION_DAYS가 0이면 등록하지 않음)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		Args: cobra.NoArgs,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		Args:  cobra.NoArgs,
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== KRX Daily Scheduler ===")

	sched, jobList, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		fmt.Printf("  - %-16s %-16s next: %s\n", name, jobList[name].Schedule(), next.In(contracts.KST).Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	printJobStats(sched.GetJobStats())
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, jobList, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %-16s %s\n", name, jobList[name].Schedule())
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	// 수동 실행은 재시도 없이 결과를 바로 보여준다
	sched, _, cleanup, err := initScheduler(scheduler.WithRetry(0, 0))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// Ctrl+C는 실행 중인 작업과 재시도 대기를 취소한다
	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Run ID", result.RunID, 8)
	PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 8)
	PrintKeyValue("Duration", result.Duration.Round(time.Millisecond).String(), 8)
	if !result.Success {
		PrintError(result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
	return nil
}

// printJobStats prints per-job run counts collected during this process
func printJobStats(stats map[string]scheduler.JobStats) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stat := stats[name]
		if stat.TotalRuns == 0 {
			continue
		}
		fmt.Printf("📊 %s: %d runs, %d ok (%.1f%%), %d failed\n",
			name, stat.TotalRuns, stat.SuccessCount, stat.SuccessRate*100, stat.FailureCount)
	}
}

// initScheduler wires the jobs. The returned cleanup closes DB and Redis.
func initScheduler(opts ...scheduler.Option) (*scheduler.Scheduler, map[string]scheduler.Job, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	mode, err := contracts.ParseFetchMode(cfg.Scheduler.CollectMode)
	if err != nil {
		return nil, nil, nil, err
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	source := newKRXClient(cfg, log)
	market, closeCache := newMarketSource(context.Background(), cfg, log, source)
	cleanup := func() {
		closeCache()
		db.Close()
	}

	col := newCollector(cfg, log, source, store, store)
	gen := report.NewGenerator(market, store, log)

	jobList := map[string]scheduler.Job{}
	daily := jobs.NewDailyCollectJob(col, gen, func() ([]contracts.WatchItem, error) {
		return loadWatchlist(cfg)
	}, jobs.DailyCollectConfig{
		Schedule:  cfg.Scheduler.CollectSchedule,
		Mode:      mode,
		ReportDir: cfg.Report.Dir,
	}, log)
	jobList[daily.Name()] = daily

	if cfg.Scheduler.RetentionDays > 0 {
		purge := jobs.NewPurgeJob(store, cfg.Scheduler.RetentionDays, cfg.Scheduler.PurgeSchedule, log)
		jobList[purge.Name()] = purge
	}

	sched := scheduler.New(contracts.KST, log, opts...)
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	return sched, jobList, cleanup, nil
}
