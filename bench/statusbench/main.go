package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	"github.com/qwqdev/livestatus/pkg/status"
)

// Config 压测配置
type Config struct {
	Target      string        // 状态接口 URL
	Key         string        // 共享密钥
	Devices     int           // 上报设备数
	Viewers     int           // 查询方数量
	Duration    time.Duration // 压测持续时间
	ReportEvery time.Duration // 每台设备的上报间隔
	QueryEvery  time.Duration // 每个查询方的查询间隔
	Output      string        // 输出格式：text, json
}

// Stats 统计数据
type Stats struct {
	mu sync.Mutex

	Reports       int64
	ReportsFailed int64
	Queries       int64
	QueriesFailed int64

	// 延迟统计（纳秒）
	reportLatencies []int64
	queryLatencies  []int64

	Errors map[string]int64

	StartTime time.Time
	EndTime   time.Time
}

func (s *Stats) record(report bool, d time.Duration, err error) {
	if report {
		atomic.AddInt64(&s.Reports, 1)
	} else {
		atomic.AddInt64(&s.Queries, 1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if report {
			s.ReportsFailed++
		} else {
			s.QueriesFailed++
		}
		s.Errors[err.Error()]++
		return
	}
	if report {
		s.reportLatencies = append(s.reportLatencies, d.Nanoseconds())
	} else {
		s.queryLatencies = append(s.queryLatencies, d.Nanoseconds())
	}
}

// Result 压测结果
type Result struct {
	Config Config `json:"config"`

	Reports       int64   `json:"reports"`
	ReportsFailed int64   `json:"reports_failed"`
	ReportRate    float64 `json:"report_success_rate_percent"`
	Queries       int64   `json:"queries"`
	QueriesFailed int64   `json:"queries_failed"`
	QueryRate     float64 `json:"query_success_rate_percent"`

	ReportLatency LatencyStats `json:"report_latency_ms"`
	QueryLatency  LatencyStats `json:"query_latency_ms"`

	Errors     map[string]int64 `json:"errors"`
	ActualTime float64          `json:"actual_time_seconds"`
}

// LatencyStats 延迟统计
type LatencyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"std_dev"`
}

func main() {
	cfg := parseFlags()

	fmt.Println("=== statusbench - LiveStatus 压测工具 ===")
	fmt.Printf("目标: %s\n", cfg.Target)
	fmt.Printf("设备数: %d | 查询方: %d\n", cfg.Devices, cfg.Viewers)
	fmt.Printf("持续时间: %s\n", cfg.Duration)
	fmt.Println()

	stats := &Stats{
		Errors:    make(map[string]int64),
		StartTime: time.Now(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	runBench(ctx, cfg, stats)
	stats.EndTime = time.Now()

	result := generateResult(cfg, stats)
	switch cfg.Output {
	case "json":
		outputJSON(result)
	default:
		outputText(result)
	}
}

func parseFlags() Config {
	cfg := Config{}

	pflag.StringVar(&cfg.Target, "target", "http://127.0.0.1:1239/api/status", "状态接口 URL")
	pflag.StringVar(&cfg.Key, "key", "", "共享密钥")
	pflag.IntVar(&cfg.Devices, "devices", 50, "上报设备数")
	pflag.IntVar(&cfg.Viewers, "viewers", 200, "查询方数量")
	pflag.DurationVar(&cfg.Duration, "duration", time.Minute, "压测持续时间")
	pflag.DurationVar(&cfg.ReportEvery, "report-every", time.Second, "每台设备的上报间隔")
	pflag.DurationVar(&cfg.QueryEvery, "query-every", 200*time.Millisecond, "每个查询方的查询间隔")
	pflag.StringVar(&cfg.Output, "output", "text", "输出格式: text, json")
	pflag.Parse()

	return cfg
}

func runBench(ctx context.Context, cfg Config, stats *Stats) {
	client := &http.Client{Timeout: 5 * time.Second}

	// 进度条按秒推进
	bar := progressbar.NewOptions(int(cfg.Duration.Seconds()),
		progressbar.OptionSetDescription("压测中"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("s"),
	)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Devices; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			st := status.WithOS(fmt.Sprintf("bench window %d", id), "statusbench", fmt.Sprintf("bench-device-%d", id))
			loop(ctx, cfg.ReportEvery, func() {
				start := time.Now()
				err := putStatus(ctx, client, cfg, st)
				stats.record(true, time.Since(start), err)
			})
		}(i)
	}
	for i := 0; i < cfg.Viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx, cfg.QueryEvery, func() {
				start := time.Now()
				err := getStatus(ctx, client, cfg)
				stats.record(false, time.Since(start), err)
			})
		}()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			bar.Finish()
			fmt.Println()
			wg.Wait()
			return
		case <-ticker.C:
			bar.Add(1)
		}
	}
}

func loop(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func putStatus(ctx context.Context, client *http.Client, cfg Config, st status.Status) error {
	body, err := json.Marshal(st)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cfg.Target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", cfg.Key)
	return do(client, req)
}

func getStatus(ctx context.Context, client *http.Client, cfg Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Target, nil)
	if err != nil {
		return err
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return fmt.Errorf("canceled")
		}
		return fmt.Errorf("request failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return nil
}

func generateResult(cfg Config, stats *Stats) Result {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	result := Result{
		Config:        cfg,
		Reports:       stats.Reports,
		ReportsFailed: stats.ReportsFailed,
		Queries:       stats.Queries,
		QueriesFailed: stats.QueriesFailed,
		ReportLatency: calculateLatencyStats(stats.reportLatencies),
		QueryLatency:  calculateLatencyStats(stats.queryLatencies),
		Errors:        stats.Errors,
		ActualTime:    stats.EndTime.Sub(stats.StartTime).Seconds(),
	}
	if stats.Reports > 0 {
		result.ReportRate = float64(stats.Reports-stats.ReportsFailed) / float64(stats.Reports) * 100
	}
	if stats.Queries > 0 {
		result.QueryRate = float64(stats.Queries-stats.QueriesFailed) / float64(stats.Queries) * 100
	}
	return result
}

func calculateLatencyStats(latencies []int64) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	toMs := func(ns int64) float64 { return float64(ns) / 1e6 }

	var sum int64
	for _, v := range sorted {
		sum += v
	}
	avg := float64(sum) / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		diff := float64(v) - avg
		variance += diff * diff
	}
	variance /= float64(len(sorted))

	return LatencyStats{
		Min:    toMs(sorted[0]),
		Max:    toMs(sorted[len(sorted)-1]),
		Avg:    toMs(int64(avg)),
		P50:    toMs(sorted[len(sorted)*50/100]),
		P90:    toMs(sorted[len(sorted)*90/100]),
		P95:    toMs(sorted[len(sorted)*95/100]),
		P99:    toMs(sorted[len(sorted)*99/100]),
		StdDev: toMs(int64(math.Sqrt(variance))),
	}
}

func outputJSON(result Result) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON 编码错误: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func outputText(result Result) {
	fmt.Println()
	fmt.Println("==================== 压测结果 ====================")
	fmt.Println()
	fmt.Println("--- 上报 (PUT) ---")
	fmt.Printf("请求数:   %d\n", result.Reports)
	fmt.Printf("失败数:   %d\n", result.ReportsFailed)
	fmt.Printf("成功率:   %.2f%%\n", result.ReportRate)
	printLatency(result.ReportLatency)

	fmt.Println("--- 查询 (GET) ---")
	fmt.Printf("请求数:   %d\n", result.Queries)
	fmt.Printf("失败数:   %d\n", result.QueriesFailed)
	fmt.Printf("成功率:   %.2f%%\n", result.QueryRate)
	printLatency(result.QueryLatency)

	if len(result.Errors) > 0 {
		fmt.Println("--- 错误统计 ---")
		for err, count := range result.Errors {
			fmt.Printf("%s: %d\n", err, count)
		}
		fmt.Println()
	}

	fmt.Printf("--- 运行时间: %.2f 秒 ---\n", result.ActualTime)
	fmt.Println("=================================================")
}

func printLatency(l LatencyStats) {
	fmt.Printf("延迟 (ms) Min %.2f | Avg %.2f | P50 %.2f | P90 %.2f | P95 %.2f | P99 %.2f | Max %.2f | StdDev %.2f\n\n",
		l.Min, l.Avg, l.P50, l.P90, l.P95, l.P99, l.Max, l.StdDev)
}
