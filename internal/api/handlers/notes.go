package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/repository"
)

// NoteHandler handles note endpoints. All operations are scoped to the
// authenticated user; someone else's note behaves as missing.
type NoteHandler struct {
	notes *repository.NoteRepository
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes *repository.NoteRepository) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// NoteResponse represents a note in API responses
type NoteResponse struct {
	ID              string `json:"id"`
	LessonID        string `json:"lessonId,omitempty"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	EnhancedContent string `json:"enhancedContent,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

func toNoteResponse(n *domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:              n.ID.String(),
		Title:           n.Title,
		Content:         n.Content,
		EnhancedContent: n.EnhancedContent,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       n.UpdatedAt.Format(time.RFC3339),
	}
	if n.LessonID != uuid.Nil {
		resp.LessonID = n.LessonID.String()
	}
	return resp
}

// noteRequest is the request body for creating and updating notes
type noteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	LessonID string `json:"lessonId"`
}

func (req noteRequest) lessonID() (uuid.UUID, error) {
	if req.LessonID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(req.LessonID)
}

// ownedNote loads a note and hides other users' notes behind a 404.
func (h *NoteHandler) ownedNote(w http.ResponseWriter, r *http.Request) (*domain.Note, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid note id")
		return nil, false
	}

	note, err := h.notes.NoteByID(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load note")
		return nil, false
	}
	if note == nil || note.UserID != UserFrom(r.Context()).ID {
		jsonError(w, http.StatusNotFound, "note not found")
		return nil, false
	}
	return note, true
}

// List returns the caller's notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	notes, err := h.notes.ListNotesByUser(r.Context(), user.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	response := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		response = append(response, toNoteResponse(n))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"notes": response,
		"total": len(response),
	})
}

// Create adds a note for the caller
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "content is required")
		return
	}
	lessonID, err := req.lessonID()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	now := time.Now()
	note := &domain.Note{
		ID:        uuid.New(),
		UserID:    user.ID,
		LessonID:  lessonID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.notes.CreateNote(r.Context(), note); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"note": toNoteResponse(note)})
}

// Get returns one of the caller's notes
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"note": toNoteResponse(note)})
}

// Update replaces a note's title, content and lesson link. Editing drops the
// cached enhancement since it no longer matches the content.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "content is required")
		return
	}
	lessonID, err := req.lessonID()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	note.Title = req.Title
	note.Content = req.Content
	note.LessonID = lessonID
	note.EnhancedContent = ""
	note.UpdatedAt = time.Now()

	if err := h.notes.UpdateNote(r.Context(), note); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update note")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"note": toNoteResponse(note)})
}

// Delete removes one of the caller's notes
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}

	if err := h.notes.DeleteNote(r.Context(), note.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "note deleted"})
}
