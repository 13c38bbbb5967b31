package api

import "github.com/wgomg/kukulkan/internal/pipeline"

type ProcessRequest struct {
	URL                string `json:"url"`
	TranslateToEnglish bool   `json:"translate_to_english"`
}

type ProcessResponse struct {
	VideoInfo    any      `json:"video_info"`
	Summary      string   `json:"summary"`
	BulletPoints []string `json:"bullet_points"`
	ChunkCount   int      `json:"chunk_count"`
	Language     string   `json:"language"`
	Method       string   `json:"processing_method"`
	Notice       string   `json:"notice,omitempty"`
	Preview      string   `json:"transcript_preview"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

type SessionResponse struct {
	Active  bool          `json:"active"`
	Method  string        `json:"processing_method,omitempty"`
	Title   string        `json:"title,omitempty"`
	History []pipeline.QA `json:"history,omitempty"`
}
