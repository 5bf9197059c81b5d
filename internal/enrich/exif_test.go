package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/photoloader/internal/flickr"
	"github.com/lehigh-university-libraries/photoloader/internal/photos"
)

func TestAPIExif(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("method") != "flickr.photos.getExif" {
			t.Errorf("Unexpected method %s", r.URL.Query().Get("method"))
		}
		if r.URL.Query().Get("secret") != "s3cr3t" {
			t.Errorf("Expected secret to be sent, got %q", r.URL.Query().Get("secret"))
		}
		_, _ = w.Write([]byte(`{"stat":"ok","photo":{"exif":[
			{"tagspace":"IFD0","tag":"Model","label":"Model","raw":{"_content":"X100V"}},
			{"tagspace":"ExifIFD","tag":"FNumber","label":"Aperture","raw":{"_content":"2.0"},"clean":{"_content":"f/2.0"}},
			{"tagspace":"ExifIFD","tag":"Empty","label":"Empty"}]}}`))
	}))
	defer server.Close()

	client := flickr.NewClient("key", flickr.Options{BaseURL: server.URL, HTTPClient: server.Client()})
	source := &APIExif{Client: client}

	values, err := source.Exif(context.Background(), &photos.Photo{ID: "1", Secret: "s3cr3t"})
	if err != nil {
		t.Fatalf("Exif failed: %v", err)
	}

	if v := values["Model"]; v.Value != "X100V" || v.Clean != "" || v.Raw != "X100V" {
		t.Errorf("Unexpected Model value %+v", v)
	}
	if v := values["FNumber"]; v.Value != "f/2.0" || v.Clean != "f/2.0" || v.Raw != "2.0" {
		t.Errorf("Unexpected FNumber value %+v", v)
	}
	if v := values["Empty"]; v.Value != "" {
		t.Errorf("Expected empty value, got %+v", v)
	}
}

func TestImageExifErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: "missing"},
		{name: "not an image", status: http.StatusOK, body: "definitely not a jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			source := &ImageExif{HTTPClient: server.Client()}
			p := &photos.Photo{ID: "1", ImageURLs: map[string]photos.ImageURL{
				photos.OriginalSize: {URL: server.URL + "/o.jpg", Width: 10, Height: 10, Orientation: photos.Square},
			}}

			if _, err := source.Exif(context.Background(), p); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestCameraSummary(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]photos.ExifValue
		expected *photos.Camera
	}{
		{name: "nil map", values: nil, expected: nil},
		{
			name:     "unrelated tags",
			values:   map[string]photos.ExifValue{"Software": {Value: "Lightroom"}},
			expected: nil,
		},
		{
			name: "clean preferred, exposure keeps raw",
			values: map[string]photos.ExifValue{
				"Model":        {Value: "X100V", Raw: "X100V"},
				"LensModel":    {Value: "23mm", Raw: "23mm"},
				"ExposureTime": {Value: "1/250 sec", Clean: "1/250 sec", Raw: "1/250"},
				"FNumber":      {Value: "f/2.0", Clean: "f/2.0", Raw: "2.0"},
				"FocalLength":  {Value: "23.0 mm", Clean: "23.0 mm", Raw: "23 mm"},
				"ISO":          {Value: "160", Raw: "160"},
			},
			expected: &photos.Camera{
				Model:        "X100V",
				Lens:         "23mm",
				ExposureTime: "1/250",
				FNumber:      "f/2.0",
				FocalLength:  "23.0 mm",
				ISO:          "160",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CameraSummary(tt.values)
			if tt.expected == nil {
				if got != nil {
					t.Errorf("Expected nil, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}
