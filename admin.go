package vhttpd

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves /healthz and /stats for operators. It is mounted on
// admin_addr, never on the static listener.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, ContentTypePlain)
		w.Write([]byte("ok"))
	})
	r.Get("/stats", s.handleStats)
	return r
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, err := sonic.Marshal(s.Stats())
	if err != nil {
		LogError(&s.log, Wrap(err, ErrInternal, "cannot encode stats"))
		http.Error(w, "error encoding stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
