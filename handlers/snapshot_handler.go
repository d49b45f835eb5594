package handlers

import (
	"net/http"

	"github.com/Dosada05/tkd-tournament/services"
)

type SnapshotHandler struct {
	snapshotService services.SnapshotService
}

func NewSnapshotHandler(ss services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: ss}
}

func (h *SnapshotHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.snapshotService.ArchiveSnapshot(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"snapshot": res}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	objects, err := h.snapshotService.ListArchived(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshots": objects}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportSnapshot отдаёт текущее состояние без загрузки в хранилище.
func (h *SnapshotHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotService.BuildSnapshot(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, snap, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
