// Package manifest validates and inspects dependency files before upload.
package manifest

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/acheong08/depguardian/internal/errs"
)

// Kind is the detected type of a manifest
type Kind string

const (
	KindPackageJSON  Kind = "package.json"
	KindRequirements Kind = "requirements.txt"
	KindText         Kind = "text"
	KindJSON         Kind = "json"
)

var (
	ErrNoFile        = errors.New("no file selected")
	ErrUnsupported   = errors.New("only .txt or .json files are allowed")
	acceptedExts     = map[string]string{".txt": "text/plain; charset=utf-8", ".json": "application/json"}
	acceptedMIMEType = map[string]Kind{"text/plain": KindText, "application/json": KindJSON}
)

// Validate checks that a file may be submitted: a .txt or .json extension,
// or, for names without an extension, a text/plain or application/json type.
func Validate(name, contentType string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation("manifest.Validate", ErrNoFile)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := acceptedExts[ext]; ok {
		return nil
	}
	if ext == "" && contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if _, ok := acceptedMIMEType[mediaType]; ok {
				return nil
			}
		}
	}
	return errs.Validation("manifest.Validate", fmt.Errorf("%s: %w", filepath.Base(name), ErrUnsupported))
}

// ContentType returns the MIME type to upload a validated file with
func ContentType(name, contentType string) string {
	if ct, ok := acceptedExts[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// Info describes a manifest for display before submission
type Info struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Declared int    `json:"declared"` // declared dependencies, 0 when unknown
}

// Inspect detects the manifest kind and counts its declared dependencies.
// It never rejects a file; unparseable content just reports zero.
func Inspect(name, contentType string, data []byte) Info {
	info := Info{Name: filepath.Base(name)}
	base := strings.ToLower(info.Name)
	ext := strings.ToLower(filepath.Ext(base))

	isJSON := ext == ".json"
	if ext == "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			isJSON = mediaType == "application/json"
		}
	}

	switch {
	case isJSON:
		info.Kind = KindJSON
		if pkg, err := ParsePackageJSON(data); err == nil && (base == "package.json" || len(pkg.GetAllDependencies()) > 0) {
			info.Kind = KindPackageJSON
			info.Declared = len(pkg.GetAllDependencies())
		}
	case strings.HasPrefix(base, "requirements"):
		info.Kind = KindRequirements
		info.Declared = len(ParseRequirements(data))
	default:
		info.Kind = KindText
		if reqs := ParseRequirements(data); len(reqs) > 0 {
			info.Declared = len(reqs)
		}
	}
	return info
}
