package server

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/compliance_radar/pkg/config"
)

// NewHTTPServer 构建 HTTP 服务并注册审计相关的路由
func NewHTTPServer(c config.ServerConfig, s *AuditService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.HTTPAddr != "" {
		opts = append(opts, http.Address(c.HTTPAddr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	srv.HandleFunc("/api/compliance/check", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeError(w, nethttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req CheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, nethttp.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if len(req.PagePaths) == 0 {
			writeError(w, nethttp.StatusBadRequest, "page_paths is required")
			return
		}
		writeJSON(w, nethttp.StatusOK, s.CheckCompliance(r.Context(), &req))
	})

	srv.HandleFunc("/api/intent/detect", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeError(w, nethttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req IntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, nethttp.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Text == "" {
			writeError(w, nethttp.StatusBadRequest, "text is required")
			return
		}
		writeJSON(w, nethttp.StatusOK, s.DetectIntent(&req))
	})

	srv.HandleFunc("/api/pages", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeError(w, nethttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rootPath := r.URL.Query().Get("path")
		depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
		pages, err := s.QueryPages(r.Context(), rootPath, depth)
		if err != nil {
			writeError(w, nethttp.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"pages":       pages,
			"total_count": len(pages),
		})
	})

	srv.HandleFunc("/api/runs", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeError(w, nethttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := s.ListRuns(limit)
		if err != nil {
			writeError(w, nethttp.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"runs": runs})
	})

	srv.HandleFunc("/api/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, s.Health(r.Context()))
	})

	return srv
}

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
