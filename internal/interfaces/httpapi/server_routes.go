package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics == nil {
		return
	}

	mux.Handle("GET /metrics", metrics)
}

func registerBoardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/boards/{kind}/{id}", handler.GetBoard)
	mux.HandleFunc("GET /v1/boards/{kind}/{id}/history", handler.GetBoardHistory)
	mux.HandleFunc("GET /v1/boards/{kind}/{id}/changes", handler.GetBoardChanges)
	mux.HandleFunc("GET /v1/boards/{kind}/{id}/zeroths", handler.GetBoardZeroths)
	mux.HandleFunc("GET /v1/archives/{archiveID}/rank", handler.GetArchiveRank)
}

func registerMappackRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/mappacks/submissions", handler.SubmitScore)
	mux.HandleFunc("GET /v1/mappacks/gold-check", handler.GoldCheck)
}
