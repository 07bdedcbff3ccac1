package dancemedia

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		fileName    string
		hint        MediaType
		category    Category
		mediaType   MediaType
		wantErr     error
	}{
		{"video content type", "video/quicktime", "clip.mov", "", CategoryVideo, MediaTypeVideo, nil},
		{"audio content type", "audio/mpeg", "son.mp3", "", CategoryAudio, MediaTypeAudio, nil},
		{"content type with params", "audio/ogg; codecs=opus", "x", "", CategoryAudio, MediaTypeAudio, nil},
		{"content type wins over extension", "audio/mp4", "clip.mp4", "", CategoryAudio, MediaTypeAudio, nil},
		{"extension fallback", "application/octet-stream", "Clip.MOV", "", CategoryVideo, MediaTypeVideo, nil},
		{"empty content type", "", "song.wav", "", CategoryAudio, MediaTypeAudio, nil},
		{"audio hint for unknown file", "application/octet-stream", "notes.bin", MediaTypeAudio, CategoryAudio, MediaTypeAudio, nil},
		{"video hint for unknown file", "application/octet-stream", "clip.mpeg", MediaTypeVideo, CategoryVideo, MediaTypeVideo, nil},
		{"hint ignored when detectable", "video/mp4", "a.mp4", MediaTypeAudio, CategoryVideo, MediaTypeVideo, nil},
		{"unknown without hint", "image/png", "photo.png", "", CategoryOther, "", ErrUnsupportedMedia},
		{"invalid hint", "text/plain", "a.txt", MediaType("image"), CategoryOther, "", ErrUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, mediaType, err := Classify(tt.contentType, tt.fileName, tt.hint)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.mediaType, mediaType)
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/quicktime", contentTypeFor("video/quicktime", "a.mov"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("", "a.unknownext"))
	assert.Equal(t, "image/jpeg", contentTypeFor("", "a.jpg"))
	assert.Equal(t, "image/jpeg", contentTypeFor("not a type;;", "a.jpg"))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleTeacher, ParseRole("teacher"))
	assert.Equal(t, RoleDancer, ParseRole("dancer"))
	assert.Equal(t, RoleDancer, ParseRole(""))
	assert.Equal(t, RoleDancer, ParseRole("ADMIN"))
}

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{Role: RoleTeacher}
	assert.True(t, p.HasRole(RoleAdmin, RoleTeacher))
	assert.False(t, p.HasRole(RoleAdmin))
	assert.False(t, p.HasRole())
}
