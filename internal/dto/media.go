package dto

import "time"

// MediaOwner identifies the kind of record a photo belongs to.
type MediaOwner string

// Media owners.
const (
	MediaOwnerStudent MediaOwner = "students"
	MediaOwnerTeacher MediaOwner = "teachers"
)

// PhotoUploadResponse is returned after a photo upload.
type PhotoUploadResponse struct {
	Photo     string    `json:"photo"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
