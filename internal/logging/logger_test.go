package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, levelVar))

	logger = logger.With(String(FieldComponent, "dispatcher"))
	logger.Info("conversion finished", String(FieldFilename, "model.ifc"), Float64("ratio", 80))

	line := buf.String()
	if !strings.Contains(line, "INFO dispatcher: conversion finished") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "filename=model.ifc") {
		t.Fatalf("missing filename attr: %q", line)
	}
	if !strings.Contains(line, "ratio=80") {
		t.Fatalf("missing ratio attr: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, levelVar))

	logger.Warn("failed", String("message", "output file not found"))

	if !strings.Contains(buf.String(), `message="output file not found"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("unexpected level: %v", got)
	}
}
