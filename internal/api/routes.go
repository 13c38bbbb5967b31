package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /process", handler.HandleProcess)
	mux.HandleFunc("POST /ask", handler.HandleAsk)
	mux.HandleFunc("GET /export", handler.HandleExport)
	mux.HandleFunc("GET /session", handler.HandleSession)
	mux.HandleFunc("POST /session/clear", handler.HandleClearSession)
}
