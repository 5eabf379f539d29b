// Package backend is the HTTP client for the voice assistant service.
package backend

// Conversation is one recorded exchange as returned by the backend.
type Conversation struct {
	ID             int    `json:"id"`
	UserText       string `json:"user_text"`
	AIText         string `json:"ai_text"`
	InputAudioURL  string `json:"input_audio_url"`
	OutputAudioURL string `json:"output_audio_url"`
}

// Settings mirrors GET /settings.
type Settings struct {
	UseContext bool `json:"use_context"`
	MemorySize int  `json:"memory_size"`
	IsCustom   bool `json:"is_custom"`
}

// Stats mirrors GET /stats.
type Stats struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// MemorySizeRequest is the body of POST /memory-size.
type MemorySizeRequest struct {
	Size     int    `json:"size"`
	IsCustom bool   `json:"is_custom"`
	APIKey   string `json:"api_key,omitempty"`
}

// KeyValidation is the result of POST /validate-key.
type KeyValidation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Ack is the generic acknowledgement body.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ProcessResult is the conversation produced by POST /process.
type ProcessResult struct {
	Conversation
}

type settingsUpdate struct {
	UseContext bool `json:"use_context"`
}

type keyRequest struct {
	APIKey string `json:"api_key"`
}
