package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
