package api

import (
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/middleware"
)

// ScanStatus is the lifecycle state of a scan.
type ScanStatus string

const (
	ScanStatusQueued  ScanStatus = "queued"
	ScanStatusRunning ScanStatus = "running"
	ScanStatusDone    ScanStatus = "done"
	ScanStatusFailed  ScanStatus = "failed"
)

// Scan is one requested accessibility scan.
type Scan struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Status    ScanStatus `json:"status"`
	Subject   string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// scanStore keeps scans in memory, partitioned by account subject.
type scanStore struct {
	mu    sync.RWMutex
	byID  map[string]*Scan
	byOwn map[string][]string // subject -> scan IDs
}

func newScanStore() *scanStore {
	return &scanStore{
		byID:  make(map[string]*Scan),
		byOwn: make(map[string][]string),
	}
}

func (s *scanStore) add(scan *Scan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[scan.ID] = scan
	s.byOwn[scan.Subject] = append(s.byOwn[scan.Subject], scan.ID)
}

func (s *scanStore) get(id string) (*Scan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scan, ok := s.byID[id]
	return scan, ok
}

func (s *scanStore) bySubject(subject string) []*Scan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwn[subject]
	scans := make([]*Scan, 0, len(ids))
	for _, id := range ids {
		scans = append(scans, s.byID[id])
	}
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans
}

type createScanRequest struct {
	URL string `json:"url"`
}

func (s *Server) createScan(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}

	var req createScanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	target, err := url.Parse(req.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		httputil.WriteBadRequest(w, "url must be an absolute http or https URL")
		return
	}

	scan := &Scan{
		ID:        uuid.NewString(),
		URL:       target.String(),
		Status:    ScanStatusQueued,
		Subject:   identity.Subject,
		CreatedAt: time.Now().UTC(),
	}
	s.scans.add(scan)

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"scan_id": scan.ID,
			"subject": identity.Subject,
		}).Info("scan queued")
	}
	httputil.WriteCreated(w, scan)
}

func (s *Server) getScan(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}

	scan, ok := s.scans.get(mux.Vars(r)["id"])
	if !ok || scan.Subject != identity.Subject {
		// Another account's scan looks identical to a missing one.
		httputil.WriteNotFound(w, "scan not found")
		return
	}
	httputil.WriteSuccess(w, scan)
}

type reportSummary struct {
	TotalScans int     `json:"total_scans"`
	Queued     int     `json:"queued"`
	Done       int     `json:"done"`
	Scans      []*Scan `json:"scans"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}

	scans := s.scans.bySubject(identity.Subject)
	summary := reportSummary{TotalScans: len(scans), Scans: scans}
	for _, scan := range scans {
		switch scan.Status {
		case ScanStatusQueued, ScanStatusRunning:
			summary.Queued++
		case ScanStatusDone:
			summary.Done++
		}
	}
	httputil.WriteSuccess(w, summary)
}
