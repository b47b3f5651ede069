package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// maxUploadBytes caps material uploads.
const maxUploadBytes = 512 << 20

// MaterialHandler handles HTTP requests for materials. It is mounted
// under a course/lecture route pair.
type MaterialHandler struct {
	service coursecontent.Service
}

// NewMaterialHandler creates a new material handler
func NewMaterialHandler(service coursecontent.Service) *MaterialHandler {
	return &MaterialHandler{service: service}
}

// Routes returns the routes for materials
func (h *MaterialHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.UploadMaterial)
	r.Get("/", h.ListMaterials)
	r.Get("/{materialID}", h.GetMaterial)
	r.Patch("/{materialID}", h.UpdateMaterial)
	r.Delete("/{materialID}", h.DeleteMaterial)
	r.Put("/{materialID}/file", h.ReplaceFile)
	r.Post("/{materialID}/storage", h.ChangeStorage)
	r.Get("/{materialID}/download", h.DownloadMaterial)

	return r
}

// UpdateMaterialRequest is the request body for a material metadata update
type UpdateMaterialRequest struct {
	Title     *string `json:"title,omitempty"`
	Duration  *int    `json:"duration,omitempty"`
	IsPreview *bool   `json:"is_preview,omitempty"`
}

// ChangeStorageRequest is the request body for a storage migration
type ChangeStorageRequest struct {
	StorageType string `json:"storage_type"`
}

// MaterialResponse is the response body for a material
type MaterialResponse struct {
	ID          string    `json:"id"`
	LectureID   string    `json:"lecture_id"`
	CourseID    string    `json:"course_id"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Duration    int       `json:"duration,omitempty"`
	IsPreview   bool      `json:"is_preview"`
	StorageType string    `json:"storage_type"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func materialResponse(material *coursecontent.Material) MaterialResponse {
	return MaterialResponse{
		ID:          material.ID.String(),
		LectureID:   material.LectureID.String(),
		CourseID:    material.CourseID.String(),
		Position:    material.Order,
		Title:       material.Title,
		Type:        string(material.Type),
		Duration:    material.Duration,
		IsPreview:   material.IsPreview,
		StorageType: string(material.StorageType),
		MimeType:    material.MimeType,
		SizeBytes:   material.SizeBytes,
		CreatedAt:   material.CreatedAt,
		UpdatedAt:   material.UpdatedAt,
	}
}

func materialScope(r *http.Request) (courseID, lectureID uuid.UUID, err error) {
	courseID, err = uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	lectureID, err = uuid.Parse(chi.URLParam(r, "lectureID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return courseID, lectureID, nil
}

// UploadMaterial creates a material from a streamed body. Metadata rides
// in query parameters; the MIME type comes from the Content-Type header.
func (h *MaterialHandler) UploadMaterial(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		http.Error(w, "title query parameter is required", http.StatusBadRequest)
		return
	}

	req := coursecontent.AddMaterialRequest{
		CourseID:    courseID,
		LectureID:   lectureID,
		Title:       title,
		StorageType: coursecontent.StorageTypeLocal,
		MimeType:    r.Header.Get("Content-Type"),
	}
	if v := r.URL.Query().Get("storage_type"); v != "" {
		req.StorageType = coursecontent.StorageType(v)
	}
	if v := r.URL.Query().Get("duration"); v != "" {
		duration, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid duration", http.StatusBadRequest)
			return
		}
		req.Duration = duration
	}
	if v := r.URL.Query().Get("is_preview"); v != "" {
		preview, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid is_preview", http.StatusBadRequest)
			return
		}
		req.IsPreview = preview
	}
	if v := r.URL.Query().Get("position"); v != "" {
		position, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid position", http.StatusBadRequest)
			return
		}
		req.Position = &position
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	req.Content = r.Body

	material, err := h.service.AddMaterial(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, materialResponse(material))
}

// ListMaterials lists a lecture's materials in position order
func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}

	materials, err := h.service.ListMaterials(r.Context(), courseID, lectureID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		resp = append(resp, materialResponse(material))
	}
	render.JSON(w, r, resp)
}

// GetMaterial retrieves a material by ID
func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	material, err := h.service.GetMaterial(r.Context(), courseID, lectureID, materialID)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, materialResponse(material))
}

// UpdateMaterial applies a partial metadata update to a material
func (h *MaterialHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	var req UpdateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.service.UpdateMaterial(r.Context(), coursecontent.UpdateMaterialRequest{
		CourseID:   courseID,
		LectureID:  lectureID,
		MaterialID: materialID,
		Title:      req.Title,
		Duration:   req.Duration,
		IsPreview:  req.IsPreview,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, materialResponse(material))
}

// ReplaceFile swaps a material's backing object in place
func (h *MaterialHandler) ReplaceFile(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	material, err := h.service.ReplaceMaterialFile(r.Context(), coursecontent.ReplaceMaterialFileRequest{
		CourseID:   courseID,
		LectureID:  lectureID,
		MaterialID: materialID,
		MimeType:   r.Header.Get("Content-Type"),
		Content:    r.Body,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, materialResponse(material))
}

// ChangeStorage migrates a material's backing object between targets
func (h *MaterialHandler) ChangeStorage(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	var req ChangeStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	material, err := h.service.ChangeMaterialStorage(r.Context(), courseID, lectureID, materialID,
		coursecontent.StorageType(req.StorageType))
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, materialResponse(material))
}

// DownloadMaterial streams a material's backing object
func (h *MaterialHandler) DownloadMaterial(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	content, material, err := h.service.DownloadMaterial(r.Context(), courseID, lectureID, materialID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", material.MimeType)
	w.Header().Set("Content-Disposition", "attachment")
	if material.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(material.SizeBytes, 10))
	}
	if _, err := io.Copy(w, content); err != nil {
		// Headers are gone; nothing to do but drop the connection.
		return
	}
}

// DeleteMaterial deletes a material and releases its backing object
func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	courseID, lectureID, err := materialScope(r)
	if err != nil {
		http.Error(w, "Invalid course or lecture ID", http.StatusBadRequest)
		return
	}
	materialID, err := uuid.Parse(chi.URLParam(r, "materialID"))
	if err != nil {
		http.Error(w, "Invalid material ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteMaterial(r.Context(), courseID, lectureID, materialID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
