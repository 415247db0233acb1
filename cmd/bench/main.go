package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mutouyun/lock-free-queue/internal/testbench"
	"github.com/mutouyun/lock-free-queue/pkg/buffered"
	"github.com/mutouyun/lock-free-queue/pkg/condqueue"
	"github.com/mutouyun/lock-free-queue/pkg/lockedqueue"
	"github.com/mutouyun/lock-free-queue/pkg/mpmclist"
	"github.com/mutouyun/lock-free-queue/pkg/mpmcref"
	"github.com/mutouyun/lock-free-queue/pkg/mpmcring"
	"github.com/mutouyun/lock-free-queue/pkg/mpmcwf"
	"github.com/mutouyun/lock-free-queue/pkg/mpsclist"
	"github.com/mutouyun/lock-free-queue/pkg/seqring"
	"github.com/mutouyun/lock-free-queue/pkg/spmclist"
	"github.com/mutouyun/lock-free-queue/pkg/spmcring"
	"github.com/mutouyun/lock-free-queue/pkg/spsclist"
	"github.com/mutouyun/lock-free-queue/pkg/spscring"
)

// BenchmarkResult holds results for one test run.
type BenchmarkResult struct {
	Implementation      string  `json:"implementation"`
	NumProducers        int     `json:"num_producers"`
	NumConsumers        int     `json:"num_consumers"`
	NumMessages         int64   `json:"num_messages"`          // produced count
	NumMessagesConsumed int64   `json:"num_messages_consumed"` // consumed count
	TestDuration        string  `json:"test_duration"`         // e.g. "5s"
	ActualElapsed       string  `json:"actual_elapsed"`        // measured time
	Throughput          float64 `json:"throughput_msgs_sec"`   // based on consumed count
	Timestamp           int64   `json:"timestamp"`
	GoVersion           string  `json:"go_version"`
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU            int     `json:"num_cpu"`
	TrueCPU           int     `json:"true_cpu,omitempty"`
	SimulatedCPUCount int     `json:"simulated_cpu_count,omitempty"`
	CPUModel          string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz       float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH            string  `json:"go_arch"`
	TotalMemory       uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete test session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// benchQueue is the runtime view of any variant, instantiated at int64.
type benchQueue interface {
	Push(int64) bool
	Pop() (int64, bool)
	Empty() bool
	Quit()
}

// Implementation describes one queue variant to the driver.
type Implementation struct {
	name        string
	description string
	pkgName     string
	features    []string
	// maxProducers/maxConsumers cap the concurrency the variant tolerates;
	// 0 means unlimited.
	maxProducers int
	maxConsumers int
	bounded      bool
	newQueue     func() benchQueue
}

func (impl Implementation) clampConfig(cfg testbench.Config) testbench.Config {
	if impl.maxProducers > 0 && cfg.NumProducers > impl.maxProducers {
		cfg.NumProducers = impl.maxProducers
	}
	if impl.maxConsumers > 0 && cfg.NumConsumers > impl.maxConsumers {
		cfg.NumConsumers = impl.maxConsumers
	}
	return cfg
}

// getImplementations enumerates the queue family.
func getImplementations() []Implementation {
	return []Implementation{
		{
			name:        "LockedQueue",
			pkgName:     "lockedqueue",
			description: "Mutex-guarded linked queue; the correctness oracle.",
			features:    []string{"MPMC", "FIFO", "Unbounded"},
			newQueue:    func() benchQueue { return lockedqueue.New[int64]() },
		},
		{
			name:         "SPSCList",
			pkgName:      "spsclist",
			description:  "Linked queue with one-way publishes; one producer, one consumer.",
			features:     []string{"SPSC", "FIFO", "Unbounded"},
			maxProducers: 1, maxConsumers: 1,
			newQueue: func() benchQueue { return spsclist.New[int64]() },
		},
		{
			name:         "MPSCList",
			pkgName:      "mpsclist",
			description:  "Exchange-tail linked queue; producers race, one consumer polls.",
			features:     []string{"MPSC", "FIFO", "Unbounded"},
			maxConsumers: 1,
			newQueue:     func() benchQueue { return mpsclist.New[int64]() },
		},
		{
			name:         "SPMCList",
			pkgName:      "spmclist",
			description:  "Linked queue with a versioned head CAS and deferred reclamation.",
			features:     []string{"SPMC", "FIFO", "Unbounded"},
			maxProducers: 1,
			newQueue:     func() benchQueue { return spmclist.New[int64]() },
		},
		{
			name:        "MPMCList",
			pkgName:     "mpmclist",
			description: "Michael–Scott queue over tagged words with quiescent reclamation.",
			features:    []string{"MPMC", "FIFO", "Unbounded"},
			newQueue:    func() benchQueue { return mpmclist.New[int64]() },
		},
		{
			name:        "MPMCRef",
			pkgName:     "mpmcref",
			description: "Michael–Scott queue with per-node reference counting.",
			features:    []string{"MPMC", "FIFO", "Unbounded"},
			newQueue:    func() benchQueue { return mpmcref.New[int64]() },
		},
		{
			name:         "SPSCRing",
			pkgName:      "spscring",
			description:  "256-slot ring; index arithmetic is a byte truncation.",
			features:     []string{"SPSC", "FIFO", "Bounded"},
			maxProducers: 1, maxConsumers: 1,
			bounded:  true,
			newQueue: func() benchQueue { return spscring.New[int64]() },
		},
		{
			name:         "SPMCRing",
			pkgName:      "spmcring",
			description:  "256-slot ring with a CAS read cursor.",
			features:     []string{"SPMC", "FIFO", "Bounded"},
			maxProducers: 1,
			bounded:      true,
			newQueue:     func() benchQueue { return spmcring.New[int64]() },
		},
		{
			name:        "MPMCRing",
			pkgName:     "mpmcring",
			description: "256-slot ring; producers publish in ticket order via a spin.",
			features:    []string{"MPMC", "FIFO", "Bounded"},
			bounded:     true,
			newQueue:    func() benchQueue { return mpmcring.New[int64]() },
		},
		{
			name:        "MPMCWaitFree",
			pkgName:     "mpmcwf",
			description: "256-slot ring with commit flags; producers never spin on publish.",
			features:    []string{"MPMC", "FIFO", "Bounded", "WaitFree", "Quit"},
			bounded:     true,
			newQueue:    func() benchQueue { return mpmcwf.New[int64]() },
		},
		{
			name:        "SeqRing",
			pkgName:     "seqring",
			description: "Sequence-number MPMC ring; the Vyukov-style baseline.",
			features:    []string{"MPMC", "FIFO", "Bounded"},
			bounded:     true,
			newQueue:    func() benchQueue { return seqring.New[int64](256) },
		},
		{
			name:        "BufferedChannel",
			pkgName:     "buffered",
			description: "A plain buffered Go channel behind the family interface.",
			features:    []string{"MPMC", "FIFO", "Bounded", "Quit"},
			bounded:     true,
			newQueue:    func() benchQueue { return buffered.New[int64](256) },
		},
		{
			name:        "CondQueue",
			pkgName:     "condqueue",
			description: "Blocking wrapper: mutex + condition variable over the plain list.",
			features:    []string{"MPMC", "FIFO", "Unbounded", "Blocking", "Quit"},
			newQueue:    func() benchQueue { return condqueue.New[int64]() },
		},
	}
}

// verifyImplementations runs the sentinel protocol once per variant and
// reports any sum mismatch. Returns false if anything failed.
func verifyImplementations(count int) bool {
	ok := true
	for _, impl := range getImplementations() {
		cfg := impl.clampConfig(testbench.Config{NumProducers: 4, NumConsumers: 4})
		q := impl.newQueue()
		got := testbench.RunSentinelTest(q, cfg, count)
		want := testbench.SentinelSum(cfg.NumProducers, count)
		status := "ok"
		if got != want {
			status = fmt.Sprintf("FAIL (got %d, want %d)", got, want)
			ok = false
		}
		fmt.Printf("  verify %-16s producers=%d consumers=%d => %s\n",
			impl.name, cfg.NumProducers, cfg.NumConsumers, status)
	}
	return ok
}

// outputMarkdownTable loads the JSON file and outputs a Markdown table.
func outputMarkdownTable(jsonFile string) {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file %q: %v\n", jsonFile, err)
		os.Exit(1)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found in JSON.")
		os.Exit(1)
	}
	lastSession := sessions[len(sessions)-1]

	implMetaMap := make(map[string]Implementation)
	for _, impl := range getImplementations() {
		implMetaMap[impl.name] = impl
	}

	type tableRow struct {
		implementation string
		pkgName        string
		features       string
		throughput     float64
	}
	var rows []tableRow
	for _, bench := range lastSession.Benchmarks {
		meta := implMetaMap[bench.Implementation]
		rows = append(rows, tableRow{
			implementation: bench.Implementation,
			pkgName:        meta.pkgName,
			features:       strings.Join(meta.features, ", "),
			throughput:     bench.Throughput,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].throughput > rows[j].throughput
	})
	fmt.Println("## Last Session Benchmark Summary")
	fmt.Println()
	fmt.Println("| Implementation   | Package      | Features                              | Throughput (msgs/sec) |")
	fmt.Println("|------------------|--------------|---------------------------------------|-----------------------|")
	for _, r := range rows {
		fmt.Printf("| %-16s | %-12s | %-37s | %21.0f |\n",
			r.implementation, r.pkgName, r.features, r.throughput)
	}
}

func main() {
	testIterations := flag.Int("iter", 5, "Number of test iterations per concurrency setting")
	cpuMaxFlag := flag.Int("cpu", 0, "If non-zero, test only that GOMAXPROCS value; if 0, test common CPU/vCPU values up to runtime.NumCPU()")
	jsonExport := flag.Bool("json", false, "Export results as JSON to test-results.json")
	highConcurrency := flag.Bool("high-concurrency", false, "Include high concurrency configurations")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from test-results.json and exit")
	jsonFileForMarkdown := flag.String("jsonfile", "test-results.json", "Path to JSON file for markdown table")
	progressFlag := flag.Bool("progress", false, "Display a progress bar with ETA")
	verifyCount := flag.Int("verify", 100000, "Sentinel verification message count per producer (0 skips verification)")
	flag.Parse()

	if *markdownTable {
		outputMarkdownTable(*jsonFileForMarkdown)
		return
	}

	if *verifyCount > 0 {
		fmt.Println("Sentinel verification:")
		if !verifyImplementations(*verifyCount) {
			fmt.Fprintln(os.Stderr, "verification failed")
			os.Exit(1)
		}
	}

	trueCpuCount := runtime.NumCPU()
	var cpuSettings []int
	commonCPUs := []int{1, 2, 3, 4, 6, 8, 12, 16, 32, 48, 56, 64, 96, 128, 192, 256, 384, 512}

	if *cpuMaxFlag > 0 {
		desired := *cpuMaxFlag
		if desired > trueCpuCount {
			desired = trueCpuCount
		}
		cpuSettings = []int{desired}
	} else {
		for _, v := range commonCPUs {
			if v <= trueCpuCount {
				cpuSettings = append(cpuSettings, v)
			}
		}
	}

	concurrencyConfigs := []testbench.Config{
		{NumProducers: 2, NumConsumers: 2},
		{NumProducers: 10, NumConsumers: 10},
		{NumProducers: 50, NumConsumers: 50},
	}
	if *highConcurrency {
		concurrencyConfigs = append(concurrencyConfigs,
			testbench.Config{NumProducers: 100, NumConsumers: 100},
			testbench.Config{NumProducers: 250, NumConsumers: 250},
			testbench.Config{NumProducers: 500, NumConsumers: 500},
		)
	}

	testDuration := 5 * time.Second

	impls := getImplementations()
	totalTests := len(cpuSettings) * len(concurrencyConfigs) * (*testIterations) * len(impls)

	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.NewOptions(totalTests,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("benchmarks"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	var allSessions []FullReport

	for _, cpus := range cpuSettings {
		runtime.GOMAXPROCS(cpus)
		sysInfo := gatherSystemInfo()
		sysInfo.NumCPU = cpus
		sysInfo.TrueCPU = trueCpuCount
		sysInfo.SimulatedCPUCount = cpus

		fmt.Printf("\n=============================\n")
		fmt.Printf("GOMAXPROCS = %d\n", cpus)
		fmt.Printf("=============================\n")

		var results []BenchmarkResult

		for _, cfg := range concurrencyConfigs {
			fmt.Printf("  [Concurrency: producers=%d, consumers=%d]\n", cfg.NumProducers, cfg.NumConsumers)
			for iteration := 1; iteration <= *testIterations; iteration++ {
				fmt.Printf("    iteration %d/%d\n", iteration, *testIterations)
				for _, impl := range impls {
					runtime.GC()
					q := impl.newQueue()
					clamped := impl.clampConfig(cfg)
					time.Sleep(250 * time.Millisecond)

					produced, consumed, actualTime := testbench.RunTimedTest[int64](
						q,
						clamped,
						testDuration,
						func(i int) int64 { return int64(i) },
					)
					throughput := float64(consumed) / actualTime.Seconds()

					fmt.Printf("    %s => produced=%d, consumed=%d, throughput=%.0f msg/s, took=%v\n",
						impl.name, produced, consumed, throughput, actualTime)

					if bar != nil {
						bar.Add(1)
					}

					results = append(results, BenchmarkResult{
						Implementation:      impl.name,
						NumProducers:        clamped.NumProducers,
						NumConsumers:        clamped.NumConsumers,
						NumMessages:         produced,
						NumMessagesConsumed: consumed,
						TestDuration:        testDuration.String(),
						ActualElapsed:       actualTime.String(),
						Throughput:          throughput,
						Timestamp:           time.Now().Unix(),
						GoVersion:           runtime.Version(),
					})
				}
			}
		}

		allSessions = append(allSessions, FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  sysInfo,
			Benchmarks:  results,
		})
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if *jsonExport {
		const filename = "test-results.json"
		var previous []FullReport
		if _, err := os.Stat(filename); err == nil {
			data, err := os.ReadFile(filename)
			if err == nil && len(data) > 0 {
				json.Unmarshal(data, &previous)
			}
		}
		updated := append(previous, allSessions...)
		data, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error marshalling JSON:", err)
			os.Exit(1)
		}
		if err = os.WriteFile(filename, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing JSON file:", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", filename)
	}
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	numCPU := runtime.NumCPU()
	goArch := runtime.GOARCH

	var cpuModel string
	var cpuSpeed float64
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cpuModel = infos[0].ModelName
		cpuSpeed = infos[0].Mhz
	}

	var totalMemory uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		totalMemory = vm.Total
	}

	return SystemInfo{
		NumCPU:      numCPU,
		CPUModel:    cpuModel,
		CPUSpeedMHz: cpuSpeed,
		GOARCH:      goArch,
		TotalMemory: totalMemory,
	}
}
