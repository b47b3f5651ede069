package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// CourseHandler handles HTTP requests for courses and their lectures
type CourseHandler struct {
	service coursecontent.Service
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(service coursecontent.Service) *CourseHandler {
	return &CourseHandler{service: service}
}

// Routes returns the routes for courses
func (h *CourseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateCourse)
	r.Get("/{courseID}", h.GetCourse)
	r.Put("/{courseID}", h.UpdateCourse)
	r.Delete("/{courseID}", h.DeleteCourse)
	r.Post("/{courseID}/publish", h.PublishCourse)
	r.Post("/{courseID}/sweep", h.SweepPendingReleases)

	r.Put("/{courseID}/students/{studentID}", h.EnrollStudent)
	r.Delete("/{courseID}/students/{studentID}", h.UnenrollStudent)

	r.Post("/{courseID}/lectures", h.AddLecture)
	r.Get("/{courseID}/lectures", h.ListLectures)
	r.Put("/{courseID}/lectures/{lectureID}", h.UpdateLecture)
	r.Delete("/{courseID}/lectures/{lectureID}", h.DeleteLecture)

	r.Mount("/{courseID}/lectures/{lectureID}/materials", NewMaterialHandler(h.service).Routes())

	return r
}

// CreateCourseRequest is the request body for creating a course
type CreateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id"`
	Level       string `json:"level,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// UpdateCourseRequest is the request body for updating a course
type UpdateCourseRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Level       *string `json:"level,omitempty"`
}

// CourseResponse is the response body for a course
type CourseResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	CategoryID   string     `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	Level        string     `json:"level,omitempty"`
	Status       string     `json:"status"`
	Students     int        `json:"students"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

func courseResponse(course *coursecontent.Course) CourseResponse {
	return CourseResponse{
		ID:           course.ID.String(),
		Name:         course.Name,
		Description:  course.Description,
		CategoryID:   course.CategoryID.String(),
		CategoryName: course.CategoryName,
		Level:        course.Level,
		Status:       string(course.Status),
		Students:     len(course.StudentIDs),
		CreatedAt:    course.CreatedAt,
		UpdatedAt:    course.UpdatedAt,
		PublishedAt:  course.PublishedAt,
	}
}

// AddLectureRequest is the request body for creating a lecture
type AddLectureRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position,omitempty"`
}

// UpdateLectureRequest is the request body for updating a lecture
type UpdateLectureRequest struct {
	Title *string `json:"title,omitempty"`
}

// LectureResponse is the response body for a lecture
type LectureResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func lectureResponse(lecture *coursecontent.Lecture) LectureResponse {
	return LectureResponse{
		ID:        lecture.ID.String(),
		CourseID:  lecture.CourseID.String(),
		Position:  lecture.Order,
		Title:     lecture.Title,
		CreatedAt: lecture.CreatedAt,
		UpdatedAt: lecture.UpdatedAt,
	}
}

// CreateCourse creates a new course
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}
	var createdBy uuid.UUID
	if req.CreatedBy != "" {
		createdBy, err = uuid.Parse(req.CreatedBy)
		if err != nil {
			http.Error(w, "Invalid creator ID", http.StatusBadRequest)
			return
		}
	}

	course, err := h.service.CreateCourse(r.Context(), coursecontent.CreateCourseRequest{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  categoryID,
		Level:       req.Level,
		CreatedBy:   createdBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, courseResponse(course))
}

// GetCourse retrieves a course by ID
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, courseResponse(course))
}

// UpdateCourse applies a partial update to a course
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	var req UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	course, err := h.service.UpdateCourse(r.Context(), coursecontent.UpdateCourseRequest{
		CourseID:    id,
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, courseResponse(course))
}

// DeleteCourse deletes a course and everything beneath it
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCourseCascade(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishCourse transitions a draft course to published
func (h *CourseHandler) PublishCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	course, err := h.service.PublishCourse(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, courseResponse(course))
}

// SweepPendingReleases retries releases left behind by interrupted
// storage migrations
func (h *CourseHandler) SweepPendingReleases(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	released, err := h.service.SweepPendingReleases(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, map[string]int{"released": released})
}

// EnrollStudent adds a student to the course roster
func (h *CourseHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}

	course, err := h.service.EnrollStudent(r.Context(), courseID, studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, courseResponse(course))
}

// UnenrollStudent removes a student from the course roster
func (h *CourseHandler) UnenrollStudent(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}

	course, err := h.service.UnenrollStudent(r.Context(), courseID, studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, courseResponse(course))
}

// AddLecture creates a new lecture in a course
func (h *CourseHandler) AddLecture(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	var req AddLectureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	lecture, err := h.service.AddLecture(r.Context(), coursecontent.AddLectureRequest{
		CourseID: courseID,
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, lectureResponse(lecture))
}

// ListLectures lists a course's lectures in position order
func (h *CourseHandler) ListLectures(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	lectures, err := h.service.ListLectures(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]LectureResponse, 0, len(lectures))
	for _, lecture := range lectures {
		resp = append(resp, lectureResponse(lecture))
	}
	render.JSON(w, r, resp)
}

// UpdateLecture applies a partial update to a lecture
func (h *CourseHandler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	lectureID, err := uuid.Parse(chi.URLParam(r, "lectureID"))
	if err != nil {
		http.Error(w, "Invalid lecture ID", http.StatusBadRequest)
		return
	}

	var req UpdateLectureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lecture, err := h.service.UpdateLecture(r.Context(), coursecontent.UpdateLectureRequest{
		CourseID:  courseID,
		LectureID: lectureID,
		Title:     req.Title,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, r, lectureResponse(lecture))
}

// DeleteLecture deletes a lecture and its materials
func (h *CourseHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	lectureID, err := uuid.Parse(chi.URLParam(r, "lectureID"))
	if err != nil {
		http.Error(w, "Invalid lecture ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteLectureCascade(r.Context(), courseID, lectureID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
