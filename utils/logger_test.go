/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":    logrus.DebugLevel,
		" WARN ":   logrus.WarnLevel,
		"warning":  logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"":         logrus.InfoLevel,
		"nonsense": logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "USERDIR"}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "User store failure",
		Data:    logrus.Fields{"error": errors.New("disk full"), "id": 7},
	}
	b, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal(b, &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, b)
	}
	if rec["time"] != "2025-03-01 10:30:00.000" || rec["level"] != "warning" || rec["model"] != "USERDIR" {
		t.Fatalf("record = %v", rec)
	}
	fields := rec["fields"].(map[string]interface{})
	if fields["error"] != "disk full" || fields["id"] != float64(7) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "DATABASE", NameWidth: 4}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "connected",
		Data:    logrus.Fields{"type": "sqlite", "host": ""},
	}
	b, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(b)
	if !strings.HasSuffix(line, "connected host= type=sqlite\n") {
		t.Fatalf("fields not appended in key order: %q", line)
	}
	if !strings.Contains(line, "DATA") || strings.Contains(line, "DATABASE") {
		t.Fatalf("name not truncated to width: %q", line)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	defer ConfigureConsoleOutput(os.Stdout)

	l := NewLogger("LEVELTEST")
	l.SetFormatter(&JSONLogFormatter{LoggerName: "LEVELTEST"})
	if !SetLoggerLevel("LEVELTEST", "error") {
		t.Fatalf("logger not registered")
	}
	l.Info("hidden")
	l.Error("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
	if SetLoggerLevel("NOSUCHLOGGER", "debug") {
		t.Fatalf("unknown logger reported as set")
	}
}

func TestConfigureFileLog(t *testing.T) {
	ConfigureConsoleOutput(nil)
	defer ConfigureConsoleOutput(os.Stdout)

	path := filepath.Join(t.TempDir(), "logs", "userdir.log")
	if err := ConfigureFileLog(path); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l := NewLogger("FILETEST")
	l.WithField("id", "abc").Warn("written to file")
	if err := ConfigureFileLog(""); err != nil {
		t.Fatalf("disable: %v", err)
	}
	l.Warn("not written")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"written to file"`) || !strings.Contains(lines[0], `"model":"FILETEST"`) {
		t.Fatalf("log file = %q", data)
	}
}

func TestConfigureReportCaller(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	defer ConfigureConsoleOutput(os.Stdout)
	defer ConfigureReportCaller(true)

	existing := NewLogger("CALLER1")
	ConfigureReportCaller(false)
	fresh := NewLogger("CALLER2")
	if existing.ReportCaller || fresh.ReportCaller {
		t.Fatalf("report caller still on: existing=%v fresh=%v", existing.ReportCaller, fresh.ReportCaller)
	}
	ConfigureReportCaller(true)
	if !existing.ReportCaller || !fresh.ReportCaller {
		t.Fatalf("report caller not restored")
	}
}

func TestConfigureConsoleLogFormatSwitchesRegistered(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	defer ConfigureConsoleOutput(os.Stdout)
	defer ConfigureConsoleLogFormat("text")

	l := NewLogger("FMTSWITCH")
	if _, ok := l.Formatter.(*Log4jColorFormatter); !ok {
		t.Fatalf("formatter = %T, want text", l.Formatter)
	}
	ConfigureConsoleLogFormat("JSON")
	f, ok := l.Formatter.(*JSONLogFormatter)
	if !ok || f.LoggerName != "FMTSWITCH" {
		t.Fatalf("formatter = %#v, want json named FMTSWITCH", l.Formatter)
	}
	ConfigureConsoleLogFormat("text")
	if _, ok := l.Formatter.(*Log4jColorFormatter); !ok {
		t.Fatalf("formatter = %T, want text", l.Formatter)
	}
}
