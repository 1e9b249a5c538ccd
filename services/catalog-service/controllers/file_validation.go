package controllers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const MaxUploadSize = 20 * 1024 * 1024

var allowedCSVExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

func validateCSVUpload(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedCSVExtensions[ext] {
		return fmt.Errorf("invalid file type. Only CSV files are allowed")
	}
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large. Maximum size is %d MB", MaxUploadSize/(1024*1024))
	}
	return nil
}
