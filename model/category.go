package model

import (
	"path"
	"strings"
)

// Categories lists every storage category in display order.
var Categories = []string{"Images", "Videos", "Documents", "Audio", "Others"}

var extCategories = map[string]string{
	"jpg": "Images", "jpeg": "Images", "png": "Images", "gif": "Images",
	"webp": "Images", "svg": "Images",

	"mp4": "Videos", "mov": "Videos", "avi": "Videos", "mkv": "Videos",
	"webm": "Videos",

	"pdf": "Documents", "doc": "Documents", "docx": "Documents",
	"txt": "Documents", "xls": "Documents", "xlsx": "Documents",
	"ppt": "Documents", "pptx": "Documents",

	"mp3": "Audio", "wav": "Audio", "ogg": "Audio",
}

// Category classifies a file name by its extension. The category is never
// persisted so classification rules can change without leaving stale rows
// behind.
func Category(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if c, ok := extCategories[ext]; ok {
		return c
	}
	return "Others"
}
