package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"rakhaai/pkg/ai"
	"rakhaai/pkg/domain"
)

// 10 MB cap on multipart turn uploads.
const maxPhotoUploadBytes = 10 << 20

type createChatRequest struct {
	Title string `json:"title"`
}

type renameChatRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	UserMessage domain.Message `json:"userMessage"`
	AIMessage   domain.Message `json:"aiMessage"`
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		chats, err := s.app.ListChats(user.ID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": chats,
			"count": len(chats),
		})
	case http.MethodPost:
		var req createChatRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		chat, err := s.app.CreateChat(user.ID, req.Title)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, chat)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleChatByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r.URL.Path, "/api/chats/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		msgs, err := s.app.ListChatMessages(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": msgs,
			"count": len(msgs),
		})
	case http.MethodDelete:
		if err := s.app.DeleteChat(user.ID, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r.URL.Path, "/api/updateChat/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req renameChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	chat, err := s.app.RenameChat(user.ID, id, req.Title)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// handleSendMessage runs one chat turn. Accepts multipart form data with
// "message" and optional "photo" fields, or a plain JSON body for text-only
// turns.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r.URL.Path, "/api/chat/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	text, photo, photoName, err := parseTurnRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userTurn, aiTurn, err := s.app.SendMessage(r.Context(), user, id, text, photo, photoName)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{UserMessage: userTurn, AIMessage: aiTurn})
}

func parseTurnRequest(r *http.Request) (string, *ai.Photo, string, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType != "multipart/form-data" {
		var req sendMessageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && err != io.EOF {
			return "", nil, "", errInvalidBody
		}
		return req.Message, nil, "", nil
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		return "", nil, "", errInvalidBody
	}
	text := r.FormValue("message")
	file, header, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return text, nil, "", nil
	}
	if err != nil {
		return "", nil, "", errInvalidBody
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoUploadBytes))
	if err != nil {
		return "", nil, "", errInvalidBody
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(header.Filename))
	}
	return text, &ai.Photo{Data: data, MimeType: mimeType}, header.Filename, nil
}

var errInvalidBody = &badRequestError{"invalid request body"}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

// pathID extracts the single path segment after prefix, rejecting nested
// paths.
func pathID(urlPath, prefix string) string {
	id := strings.TrimPrefix(urlPath, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
