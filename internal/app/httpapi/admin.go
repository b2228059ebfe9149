package httpapi

import (
	"crypto/subtle"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	apierrors "github.com/streamlaunch/platform/internal/errors"
)

// requireAdmin guards a route with the static admin bearer token. An
// unconfigured token is an operator mistake, so it surfaces as a server
// error rather than a 401 that would suggest retrying with better
// credentials.
func (s *Server) requireAdmin(handler HandlerFunc) http.HandlerFunc {
	return s.route(RouteConfig{}, func(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
		if s.adminToken == "" {
			return nil, apierrors.New(http.StatusInternalServerError, apierrors.CodeAdminUnconfigured, "admin token is not configured")
		}

		presented := ""
		if header := r.Header.Get("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				presented = parts[1]
			}
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.adminToken)) != 1 {
			return nil, apierrors.Unauthorized("invalid admin token")
		}

		return handler(r, rc, body)
	})
}

// handleAdminCleanup ends streams that have been live longer than the
// configured idle window. The second run over the same set reports zero.
func (s *Server) handleAdminCleanup(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	cutoff := time.Now().UTC().Add(-s.cleanupIdleAfter)
	count, err := s.app.Streams.CleanupStale(r.Context(), cutoff)
	if err != nil {
		return nil, apierrors.Internal("stream cleanup failed", err)
	}
	return map[string]int{"count": count}, nil
}

type healthReport struct {
	Status    string  `json:"status"`
	Uptime    string  `json:"uptime"`
	Goroutine int     `json:"goroutines"`
	CPUPct    float64 `json:"cpuPercent"`
	MemRSS    uint64  `json:"memoryRssBytes"`
	MemSysPct float64 `json:"systemMemoryPercent"`
}

var startedAt = time.Now()

// handleAdminHealth reports process and host resource usage.
func (s *Server) handleAdminHealth(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	report := healthReport{
		Status:    "ok",
		Uptime:    time.Since(startedAt).Round(time.Second).String(),
		Goroutine: runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			report.CPUPct = pct
		}
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			report.MemRSS = memInfo.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.MemSysPct = vm.UsedPercent
	}
	// Zero-interval sample; fine for a spot check.
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 && report.CPUPct == 0 {
		report.CPUPct = pcts[0]
	}

	return report, nil
}
