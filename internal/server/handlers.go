package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/upload"
	"github.com/mithrel/docman/pkg/api"
)

const maxUploadBytes = 32 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleGenerateOTP(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mobile := strings.TrimSpace(req.MobileNumber)
	if len(mobile) < 10 {
		writeMessage(w, http.StatusBadRequest, "Invalid mobile number")
		return
	}
	s.mu.Lock()
	s.pending[mobile] = true
	s.mu.Unlock()
	s.log.Debug("otp issued", zap.String("mobile", mobile))
	writeMessage(w, http.StatusOK, "OTP sent successfully")
}

func (s *Server) handleValidateOTP(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mobile := strings.TrimSpace(req.MobileNumber)
	s.mu.Lock()
	ok := s.pending[mobile] && req.OTP == s.otp
	var token string
	if ok {
		delete(s.pending, mobile)
		token = uuid.NewString()
		s.tokens[token] = mobile
	}
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid OTP")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": true,
		"data":   map[string]string{"token": token},
	})
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Expected multipart/form-data body")
		return
	}
	var data api.DocumentData
	if err := json.Unmarshal([]byte(r.FormValue(upload.FieldData)), &data); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid document data")
		return
	}
	if strings.TrimSpace(data.MajorHead) == "" || strings.TrimSpace(data.MinorHead) == "" || strings.TrimSpace(data.UserID) == "" {
		writeMessage(w, http.StatusBadRequest, "major_head, minor_head and user_id are required")
		return
	}
	f, hdr, err := r.FormFile(upload.FieldFile)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "File is required")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read file")
		return
	}

	id := s.docs.addFile(api.DocumentRecord{
		MajorHead:       data.MajorHead,
		MinorHead:       data.MinorHead,
		DocumentDate:    data.DocumentDate,
		DocumentRemarks: data.DocumentRemarks,
		UploadedBy:      data.UserID,
		Tags:            data.Tags,
		DocumentName:    hdr.Filename,
	}, content, hdr.Header.Get("Content-Type"), s.now())
	s.log.Info("document stored", zap.String("id", id), zap.String("name", hdr.Filename), zap.Int("bytes", len(content)))
	writeMessage(w, http.StatusOK, "Document uploaded successfully")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	docs, total, err := s.docs.search(req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid date: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.SearchResponse{Data: docs, RecordsTotal: total})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	var req api.TagsRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, api.TagsResponse{Tags: s.docs.tagList(req.Term)})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	d, ok := s.docs.file(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if d.ctype != "" {
		w.Header().Set("Content-Type", d.ctype)
	}
	_, _ = w.Write(d.file)
}
