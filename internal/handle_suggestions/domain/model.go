package domain

import (
	"strings"
	"unicode/utf16"
)

const (
	// MinNameLength is the minimum trimmed name length, in UTF-16 code units.
	MinNameLength = 2
	// MaxNameLength bounds how much user text is interpolated into the prompt.
	MaxNameLength = 64
	// MaxSuggestions caps the result set returned to the client.
	MaxSuggestions = 5
)

// Tone is the stylistic voice requested for the handles.
type Tone string

const (
	ToneProfessional Tone = "professional"
	TonePlayful      Tone = "playful"
	ToneEdgy         Tone = "edgy"
)

// DefaultTone applies when the submission omits a tone.
const DefaultTone = ToneProfessional

var toneDescriptions = map[Tone]string{
	ToneProfessional: "polished, trustworthy, business-forward voice",
	TonePlayful:      "creative, upbeat, quirky voice",
	ToneEdgy:         "bold, daring, slightly rebellious voice",
}

// Tones lists the accepted tones in display order.
func Tones() []Tone {
	return []Tone{ToneProfessional, TonePlayful, ToneEdgy}
}

func (t Tone) Valid() bool {
	_, ok := toneDescriptions[t]
	return ok
}

// Description is the prompt wording for the tone.
func (t Tone) Description() string {
	return toneDescriptions[t]
}

// Platform is the social network the handles target.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// DefaultPlatform applies when the submission omits a platform.
const DefaultPlatform = PlatformInstagram

var platformGuidance = map[Platform]string{
	PlatformInstagram: "optimized for Instagram handle rules (30 chars max, letters, numbers, underscores, periods).",
	PlatformTwitter:   "optimized for X/Twitter handle rules (15 chars max, letters, numbers, underscores).",
	PlatformTikTok:    "optimized for TikTok handle rules (24 chars max, letters, numbers, underscores, periods).",
	PlatformYouTube:   "optimized for YouTube handle rules (30 chars max, lowercase letters, numbers, underscores, periods).",
}

// Platforms lists the accepted platforms in display order.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTwitter, PlatformTikTok, PlatformYouTube}
}

func (p Platform) Valid() bool {
	_, ok := platformGuidance[p]
	return ok
}

// Guidance describes the platform's handle character rules.
func (p Platform) Guidance() string {
	return platformGuidance[p]
}

// SubmissionRequest is a validated user submission.
type SubmissionRequest struct {
	Name     string   `json:"name"`
	Tone     Tone     `json:"tone"`
	Platform Platform `json:"platform"`
}

// Suggestion is one proposed handle with its rationale.
type Suggestion struct {
	Handle    string `json:"handle"`
	Rationale string `json:"rationale"`
}

// nameLength counts UTF-16 code units, so characters outside the Basic
// Multilingual Plane count twice.
func nameLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// NewSubmission trims and validates raw submission fields and applies the
// tone/platform defaults. Empty tone or platform counts as absent.
func NewSubmission(name, tone, platform string) (SubmissionRequest, error) {
	name = strings.TrimSpace(name)
	n := nameLength(name)
	if n < MinNameLength {
		return SubmissionRequest{}, NewRequestError(ErrInvalidName, MsgNameTooShort)
	}
	if n > MaxNameLength {
		return SubmissionRequest{}, NewRequestError(ErrInvalidName, MsgNameTooLong)
	}

	t := DefaultTone
	if v := strings.TrimSpace(tone); v != "" {
		t = Tone(strings.ToLower(v))
		if !t.Valid() {
			return SubmissionRequest{}, NewRequestError(ErrInvalidPayload, MsgInvalidTone)
		}
	}

	p := DefaultPlatform
	if v := strings.TrimSpace(platform); v != "" {
		p = Platform(strings.ToLower(v))
		if !p.Valid() {
			return SubmissionRequest{}, NewRequestError(ErrInvalidPayload, MsgInvalidPlatform)
		}
	}

	return SubmissionRequest{Name: name, Tone: t, Platform: p}, nil
}
