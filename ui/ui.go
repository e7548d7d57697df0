// Package ui serves a small read-only web dashboard over a running kernel:
// the live process table, a manual tick control, and the memory pool's
// allocation list.
package ui

import (
	"fmt"
	"html/template"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arctir/vkernel/internal/kernel"
	"github.com/arctir/vkernel/internal/klog"
	"github.com/arctir/vkernel/internal/memory"
)

const (
	DefaultAddr   = ":8080"
	tickPath      = "/tick"
	memoryPath    = "/memory"
	processesPath = "/process/"
)

// UI serves the dashboard over k. It holds no state of its own beyond the
// last-refreshed timestamp; every request reads live data from the kernel.
type UI struct {
	k           *kernel.Kernel
	log         *klog.Logger
	mu          sync.Mutex
	lastRefresh time.Time
}

type processListData struct {
	LastRefresh time.Time
	Ticks       int
	PS          []snapshotRow
}

// snapshotRow flattens process.Snapshot for the template, which needs
// plain exported fields it can range over without a custom Funcs entry.
type snapshotRow struct {
	PID        int
	Name       string
	State      string
	Priority   int
	Persistent bool
}

type memoryData struct {
	Used        int
	Total       int
	Free        int
	Allocations []memory.Allocation
}

// DetailKV is one row of a reflected process-detail view.
type DetailKV struct {
	Field string
	Value string
}

// New builds a UI bound to an already-running kernel.
func New(k *kernel.Kernel) *UI {
	return &UI{k: k, log: k.Log}
}

// RunUI blocks serving the dashboard at addr ("" selects DefaultAddr).
func (ui *UI) RunUI(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	http.HandleFunc("/", ui.handleAllProcesses)
	http.HandleFunc(tickPath, ui.handleTick)
	http.HandleFunc(memoryPath, ui.handleMemory)
	http.HandleFunc(processesPath, ui.handleProcessDetails)

	ui.log.Infof("ui: serving dashboard at %s", addr)
	return http.ListenAndServe(addr, nil)
}

func (ui *UI) handleAllProcesses(w http.ResponseWriter, r *http.Request) {
	ui.mu.Lock()
	ui.lastRefresh = time.Now()
	refreshed := ui.lastRefresh
	ui.mu.Unlock()

	snap := ui.k.Facade.PS()
	rows := make([]snapshotRow, 0, len(snap))
	for _, p := range snap {
		rows = append(rows, snapshotRow{
			PID: p.PID, Name: p.Name, State: p.State.String(),
			Priority: p.Priority, Persistent: p.Persistent,
		})
	}
	data := processListData{
		LastRefresh: refreshed,
		Ticks:       ui.k.Scheduler.Stats().Ticks,
		PS:          rows,
	}

	t, err := createTemplate(allProcessesView)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, data); err != nil {
		writeFailure(w, err)
	}
}

func (ui *UI) handleTick(w http.ResponseWriter, r *http.Request) {
	ui.k.Scheduler.Tick()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (ui *UI) handleMemory(w http.ResponseWriter, r *http.Request) {
	used, total, free := ui.k.Facade.MemoryUsage()
	data := memoryData{
		Used: used, Total: total, Free: free,
		Allocations: ui.k.Facade.Allocations(),
	}
	t, err := createTemplate(memoryView)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, data); err != nil {
		writeFailure(w, err)
	}
}

func (ui *UI) handleProcessDetails(w http.ResponseWriter, r *http.Request) {
	pidString := strings.TrimPrefix(r.URL.Path, processesPath)
	pid, err := strconv.Atoi(pidString)
	if err != nil {
		writeFailure(w, err)
		return
	}

	var found *snapshotRow
	for _, p := range ui.k.Facade.PS() {
		if p.PID == pid {
			found = &snapshotRow{PID: p.PID, Name: p.Name, State: p.State.String(), Priority: p.Priority, Persistent: p.Persistent}
			break
		}
	}
	if found == nil {
		writeFailure(w, fmt.Errorf("process %d does not exist", pid))
		return
	}

	t, err := createTemplate(viewProcessDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, *found); err != nil {
		writeFailure(w, err)
	}
}

// processDetails reflects over a snapshotRow so the template's pDeets
// helper works the same way for any exported struct.
func processDetails(row snapshotRow) []DetailKV {
	result := []DetailKV{}
	t := reflect.TypeOf(row)
	v := reflect.ValueOf(row)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result = append(result, DetailKV{field.Name, fmt.Sprintf("%v", v.Field(i).Interface())})
	}
	return result
}

// createTemplate returns a template wrapped with uiHeader/uiFooter.
func createTemplate(temp string) (*template.Template, error) {
	return template.New("response").
		Funcs(template.FuncMap{"pDeets": processDetails}).
		Parse(uiHeader + temp + uiFooter)
}

func writeFailure(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	t, _ := createTemplate(errorView)
	t.Execute(w, err.Error())
}
